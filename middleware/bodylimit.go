package middleware

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/dmitrymomot/dustebin/core/handler"
	"github.com/dmitrymomot/dustebin/core/response"
)

// Size units for body limits.
const (
	KB int64 = 1024
	MB       = 1024 * KB
	GB       = 1024 * MB
)

// ErrBodyTooLarge is returned by the request body reader once the limit is crossed.
var ErrBodyTooLarge = errors.New("request body too large")

// BodyLimitConfig configures the request body size middleware.
type BodyLimitConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool

	// MaxSize is the maximum allowed size in bytes (default: 4MB)
	MaxSize int64

	// ContentTypeLimit overrides MaxSize per media type
	ContentTypeLimit map[string]int64

	// ErrorHandler renders requests whose Content-Length exceeds the limit
	ErrorHandler func(ctx handler.Context, contentLength, maxSize int64) handler.Response
}

// BodyLimit rejects bodies larger than 4MB.
func BodyLimit[C handler.Context]() handler.Middleware[C] {
	return BodyLimitWithConfig[C](BodyLimitConfig{})
}

// BodyLimitWithSize rejects bodies larger than maxSize bytes.
func BodyLimitWithSize[C handler.Context](maxSize int64) handler.Middleware[C] {
	return BodyLimitWithConfig[C](BodyLimitConfig{MaxSize: maxSize})
}

// BodyLimitWithConfig rejects oversized requests up front by Content-Length
// and caps the body reader, so chunked uploads fail with ErrBodyTooLarge.
func BodyLimitWithConfig[C handler.Context](cfg BodyLimitConfig) handler.Middleware[C] {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 4 * MB
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(_ handler.Context, contentLength, maxSize int64) handler.Response {
			return response.Error(BodyTooLargeError(contentLength, maxSize))
		}
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			req := ctx.Request()

			maxSize := cfg.MaxSize
			if cfg.ContentTypeLimit != nil {
				if mediaType, _, err := mime.ParseMediaType(req.Header.Get("Content-Type")); err == nil {
					if limit, ok := cfg.ContentTypeLimit[mediaType]; ok {
						maxSize = limit
					}
				}
			}

			if req.ContentLength > maxSize {
				return cfg.ErrorHandler(ctx, req.ContentLength, maxSize)
			}

			if req.Body != nil && req.Body != http.NoBody {
				req.Body = &limitedReader{reader: req.Body, limit: maxSize}
			}

			return next(ctx)
		}
	}
}

// BodyTooLargeError builds the 413 error for a body of size bytes.
// A non-positive size means the size is unknown.
func BodyTooLargeError(size, maxSize int64) response.HTTPError {
	message := fmt.Sprintf("Request body too large. Maximum allowed: %s", formatBytes(maxSize))
	details := map[string]any{"limit": maxSize}
	if size > 0 {
		message = fmt.Sprintf("Request body too large. Size: %s, Maximum allowed: %s",
			formatBytes(size), formatBytes(maxSize))
		details["size"] = size
	}
	return response.ErrRequestEntityTooLarge.WithMessage(message).WithDetails(details)
}

type limitedReader struct {
	reader io.ReadCloser
	limit  int64
	read   int64
}

func (lr *limitedReader) Read(p []byte) (int, error) {
	if lr.read > lr.limit {
		return 0, ErrBodyTooLarge
	}

	// One byte past the limit tells an exact-size body from an oversized one.
	if remaining := lr.limit - lr.read + 1; int64(len(p)) > remaining {
		p = p[:remaining]
	}

	n, err := lr.reader.Read(p)
	lr.read += int64(n)
	if lr.read > lr.limit {
		return n - int(lr.read-lr.limit), ErrBodyTooLarge
	}
	return n, err
}

func (lr *limitedReader) Close() error {
	return lr.reader.Close()
}

func formatBytes(bytes int64) string {
	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}
