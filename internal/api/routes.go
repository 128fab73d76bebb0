package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/dustebin/core/handler"
	"github.com/dmitrymomot/dustebin/core/health"
	"github.com/dmitrymomot/dustebin/core/response"
	"github.com/dmitrymomot/dustebin/core/router"
	"github.com/dmitrymomot/dustebin/middleware"
	"github.com/dmitrymomot/dustebin/pkg/ratelimiter"
)

// Limits is the pair of per-IP limiters guarding the API.
type Limits interface {
	CheckRequestLimit(ip string) ratelimiter.Result
	CheckPasteCreationLimit(ip string) ratelimiter.Result
}

// NewRouter builds the application router: health checks plus the rate
// limited /api tree. checks feed the readiness endpoint.
func NewRouter(h *Handler, limits Limits, log *slog.Logger, checks ...func(context.Context) error) router.Router[*router.Context] {
	security := middleware.APISecurity
	security.StrictTransportSecurity = h.cfg.HSTS

	r := router.New[*router.Context](
		router.WithErrorHandler(response.JSONErrorHandler[*router.Context]),
		router.WithLogger[*router.Context](log),
	)
	r.Use(
		middleware.RequestID[*router.Context](),
		middleware.ClientIP[*router.Context](),
		middleware.LoggingWithConfig[*router.Context](middleware.LoggingConfig{
			Logger: log,
			// Metadata streams stay open until the AI result arrives.
			SlowRequestThreshold: h.metadataTimeout + 5*time.Second,
		}),
		middleware.SecurityHeadersWithConfig[*router.Context](security),
	)

	r.Get("/health/live", health.Liveness[*router.Context])
	r.Get("/health/ready", health.Readiness[*router.Context](log, checks...))

	r.Route("/api", func(api router.Router[*router.Context]) {
		// Preflights are answered by CORS before the request limiter counts them.
		api.Use(middleware.CORSWithConfig[*router.Context](middleware.CORSConfig{
			AllowOrigins: h.cfg.CORSOrigins,
			MaxAge:       h.cfg.CORSMaxAge,
		}))
		api.Use(middleware.RateLimit[*router.Context](middleware.RateLimitConfig{
			Name:   "requests",
			Check:  limits.CheckRequestLimit,
			Logger: log,
		}))

		api.Get("/languages", h.languages)

		api.With(
			middleware.BodyLimitWithSize[*router.Context](h.cfg.MaxBodySize),
			middleware.RateLimit[*router.Context](middleware.RateLimitConfig{
				Name:   "paste_creations",
				Check:  limits.CheckPasteCreationLimit,
				Logger: log,
			}),
		).Post("/pastes", h.create)

		api.Get("/pastes/{id}", h.get)
		api.Get("/pastes/{id}/raw", h.raw)
		api.Post("/pastes/{id}/burn", h.burn)
		api.Get("/pastes/{id}/image", h.image)
		api.Get("/pastes/{id}/download", h.download)
		api.Get("/pastes/{id}/formats", h.formats)
		api.Get("/pastes/{id}/metadata", h.metadata)
		api.Get("/pastes/{id}/qr", h.qr)

		api.With(middleware.BearerAuth[*router.Context](h.cfg.AdminAPIKey)).
			Post("/admin/cleanup", h.cleanup)

		api.Method("/*", func(*router.Context) handler.Response {
			return response.NoContent()
		}, http.MethodOptions)
	})

	return r
}
