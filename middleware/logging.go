package middleware

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/dmitrymomot/dustebin/core/handler"
	"github.com/dmitrymomot/dustebin/core/logger"
	"github.com/dmitrymomot/dustebin/core/response"
)

// LoggingConfig configures the request logging middleware.
type LoggingConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool

	// Logger is the slog logger to use (default: slog.Default())
	Logger *slog.Logger

	// LogLevel for successful requests (default: slog.LevelInfo)
	LogLevel slog.Level

	// LogRequest emits an extra record when the request starts
	LogRequest bool

	// LogHeaders adds request headers to the completion record
	LogHeaders bool

	// SensitiveHeaders are redacted when LogHeaders is set
	SensitiveHeaders []string

	// SlowRequestThreshold logs slow requests at warning level (default: 5s)
	SlowRequestThreshold time.Duration

	// Component name for structured logging (default: "http")
	Component string
}

// Logging logs one record per request with default configuration.
func Logging[C handler.Context]() handler.Middleware[C] {
	return LoggingWithConfig[C](LoggingConfig{})
}

// LoggingWithLogger logs through log.
func LoggingWithLogger[C handler.Context](log *slog.Logger) handler.Middleware[C] {
	return LoggingWithConfig[C](LoggingConfig{Logger: log})
}

// LoggingWithConfig logs request completion with status, size and duration.
// Server errors log at error level, client errors and slow requests at warn.
func LoggingWithConfig[C handler.Context](cfg LoggingConfig) handler.Middleware[C] {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.LogLevel == 0 {
		cfg.LogLevel = slog.LevelInfo
	}
	if cfg.SensitiveHeaders == nil {
		cfg.SensitiveHeaders = []string{
			"Authorization",
			"Cookie",
			"X-Password",
		}
	}
	if cfg.SlowRequestThreshold <= 0 {
		cfg.SlowRequestThreshold = 5 * time.Second
	}
	if cfg.Component == "" {
		cfg.Component = "http"
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			start := time.Now()
			req := ctx.Request()

			attrs := []slog.Attr{
				logger.Component(cfg.Component),
				logger.Method(req.Method),
				logger.Path(req.URL.Path),
				logger.ClientIP(ClientIPFromRequest(ctx)),
			}
			if id, ok := GetRequestID(ctx); ok {
				attrs = append(attrs, logger.RequestID(id))
			}
			if req.URL.RawQuery != "" {
				attrs = append(attrs, logger.Query(redactQuery(req)))
			}
			if cfg.LogHeaders {
				attrs = append(attrs, slog.Any("request_headers", headersForLog(req.Header, cfg.SensitiveHeaders)))
			}

			if cfg.LogRequest {
				cfg.Logger.LogAttrs(req.Context(), slog.LevelDebug, "HTTP request started",
					append(attrs, logger.Event("request"))...)
			}

			resp := next(ctx)

			return func(w http.ResponseWriter, r *http.Request) error {
				lw := &loggingWriter{ResponseWriter: w, statusCode: http.StatusOK}
				err := resp(lw, r)

				duration := time.Since(start)
				status := lw.statusCode
				if err != nil && !lw.headerWritten {
					// The router's error handler has not rendered yet.
					status = response.ToHTTPError(err).Status
				}

				attrs := append(attrs,
					logger.Event("response"),
					logger.StatusCode(status),
					logger.BytesOut(int64(lw.size)),
					logger.Duration(duration),
				)

				level := cfg.LogLevel
				switch {
				case status >= http.StatusInternalServerError:
					level = slog.LevelError
					attrs = append(attrs, logger.Error(err))
				case status >= http.StatusBadRequest:
					level = slog.LevelWarn
				case duration > cfg.SlowRequestThreshold:
					level = slog.LevelWarn
					attrs = append(attrs, slog.Bool("slow_request", true))
				}

				cfg.Logger.LogAttrs(r.Context(), level, "HTTP request completed", attrs...)
				return err
			}
		}
	}
}

func headersForLog(h http.Header, sensitive []string) map[string]any {
	out := make(map[string]any, len(h))
	for key, values := range h {
		switch {
		case slices.ContainsFunc(sensitive, func(s string) bool { return http.CanonicalHeaderKey(s) == key }):
			out[key] = "[REDACTED]"
		case len(values) == 1:
			out[key] = values[0]
		default:
			out[key] = values
		}
	}
	return out
}

// redactQuery hides the password query parameter accepted by paste reads.
func redactQuery(r *http.Request) string {
	q := r.URL.Query()
	if !q.Has("password") {
		return r.URL.RawQuery
	}
	q.Set("password", "[REDACTED]")
	return q.Encode()
}

type loggingWriter struct {
	http.ResponseWriter
	statusCode    int
	size          int
	headerWritten bool
}

func (w *loggingWriter) WriteHeader(statusCode int) {
	if !w.headerWritten {
		w.statusCode = statusCode
		w.headerWritten = true
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *loggingWriter) Write(b []byte) (int, error) {
	if !w.headerWritten {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

// Flush keeps event streams working through the logging wrapper.
func (w *loggingWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *loggingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
