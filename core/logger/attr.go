package logger

import (
	"log/slog"
	"time"
)

// Helpers that take an optional value return the empty Attr for it, which
// slog drops, so callers can pass errors and ids without nil checks.

func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

func Component(name string) slog.Attr { return slog.String("component", name) }
func Event(name string) slog.Attr     { return slog.String("event", name) }

// Limiter names the rate limit table, "requests" or "paste_creations".
func Limiter(name string) slog.Attr { return slog.String("limiter", name) }

func PasteID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("paste_id", id)
}

func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

func ClientIP(ip string) slog.Attr { return slog.String("client_ip", ip) }

// HTTP request attributes.

func Method(method string) slog.Attr { return slog.String("method", method) }
func Path(path string) slog.Attr     { return slog.String("path", path) }
func StatusCode(code int) slog.Attr  { return slog.Int("status_code", code) }
func BytesOut(n int64) slog.Attr     { return slog.Int64("bytes_out", n) }

// Query logs an already redacted raw query.
func Query(q string) slog.Attr {
	if q == "" {
		return slog.Attr{}
	}
	return slog.String("query", q)
}

func Duration(d time.Duration) slog.Attr { return slog.Duration("duration", d) }

// Elapsed is the time since start under "elapsed".
func Elapsed(start time.Time) slog.Attr {
	return slog.Duration("elapsed", time.Since(start))
}

// Count is an integer under key, e.g. records removed by a sweep.
func Count(key string, n int) slog.Attr { return slog.Int(key, n) }

// Key is any value under key, empty when value is nil.
func Key(key string, value any) slog.Attr {
	if value == nil {
		return slog.Attr{}
	}
	return slog.Any(key, value)
}
