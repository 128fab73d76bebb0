// Package middleware provides the HTTP middleware used by the paste API.
//
// Every middleware is a generic handler.Middleware[C] built by a plain
// constructor (defaults) and a WithConfig variant. Config structs share a
// Skip func for per-request opt-out.
//
//   - RequestID assigns a UUID and echoes it in X-Request-ID.
//     RequestIDExtractor plugs it into the logger.
//   - ClientIP resolves the caller address through pkg/clientip.
//   - Logging writes one slog record per request.
//   - BodyLimit caps request bodies by Content-Length and while reading.
//   - RateLimit runs a ratelimiter check, attaches X-RateLimit-* headers to
//     every response and answers 429 with Retry-After when limited.
//   - BearerAuth guards admin routes with a static token.
//   - CORS answers preflights and exposes the rate limit and burn headers.
//   - SecurityHeaders keeps browsers from sniffing, framing or running
//     served paste content.
//
// Typical order:
//
//	r.Use(
//		middleware.RequestID[*router.Context](),
//		middleware.ClientIP[*router.Context](),
//		middleware.LoggingWithLogger[*router.Context](log),
//	)
//	r.Route("/api", func(api router.Router[*router.Context]) {
//		api.Use(middleware.RateLimit[*router.Context](middleware.RateLimitConfig{
//			Name:  "requests",
//			Check: limits.CheckRequestLimit,
//		}))
//	})
package middleware
