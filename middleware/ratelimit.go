package middleware

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/dustebin/core/handler"
	"github.com/dmitrymomot/dustebin/core/logger"
	"github.com/dmitrymomot/dustebin/core/response"
	"github.com/dmitrymomot/dustebin/pkg/ratelimiter"
)

// RateLimitChecker admits or rejects one event for key.
// ratelimiter.Service.CheckRequestLimit and Limiter.Check both fit.
type RateLimitChecker func(key string) ratelimiter.Result

// RateLimitConfig configures the rate limiting middleware.
type RateLimitConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool
	// Check is the limiter decision function (required)
	Check RateLimitChecker
	// KeyExtractor defines how to extract the rate limiting key (default: client IP)
	KeyExtractor func(ctx handler.Context) string
	// ErrorHandler renders rejected requests (default: 429 with retry_after)
	ErrorHandler func(ctx handler.Context, result ratelimiter.Result) handler.Response
	// Name identifies the limiter in logs
	Name string
	// Logger records rejected requests (default: slog.Default())
	Logger *slog.Logger
}

// RateLimit enforces cfg.Check per client key. Every response, allowed or
// not, carries the X-RateLimit-* headers; rejected requests get 429 with a
// Retry-After header and never reach the handler. Panics without Check.
//
//	api.Use(middleware.RateLimit[*router.Context](middleware.RateLimitConfig{
//		Name:  "requests",
//		Check: limits.CheckRequestLimit,
//	}))
func RateLimit[C handler.Context](cfg RateLimitConfig) handler.Middleware[C] {
	if cfg.Check == nil {
		panic("ratelimit middleware: check function is required")
	}
	if cfg.KeyExtractor == nil {
		cfg.KeyExtractor = ClientIPFromRequest
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(_ handler.Context, result ratelimiter.Result) handler.Response {
			return response.Error(RateLimitError(result))
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			key := cfg.KeyExtractor(ctx)
			result := cfg.Check(key)

			if result.Limited {
				cfg.Logger.LogAttrs(ctx, slog.LevelWarn, "rate limit exceeded",
					logger.Component("ratelimit"),
					logger.Limiter(cfg.Name),
					logger.ClientIP(key),
					logger.Path(ctx.Request().URL.Path),
					logger.Duration(result.RetryAfter),
				)
				return withRateLimitHeaders(cfg.ErrorHandler(ctx, result), result)
			}

			return withRateLimitHeaders(next(ctx), result)
		}
	}
}

// RateLimitError builds the 429 error for a limited result.
func RateLimitError(result ratelimiter.Result) response.HTTPError {
	return response.ErrTooManyRequests.
		WithMessage("Rate limit exceeded. Please try again later.").
		WithDetails(map[string]any{
			"retry_after": result.RetryAfterSeconds(),
			"reset_at":    result.ResetUnix(),
		})
}

// withRateLimitHeaders sets the decision headers before the wrapped
// response writes, so they survive error rendering too.
func withRateLimitHeaders(resp handler.Response, result ratelimiter.Result) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		result.SetHeaders(w.Header())
		return resp(w, r)
	}
}
