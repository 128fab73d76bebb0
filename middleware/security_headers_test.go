package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/dustebin/core/handler"
	"github.com/dmitrymomot/dustebin/core/response"
	"github.com/dmitrymomot/dustebin/core/router"
	"github.com/dmitrymomot/dustebin/middleware"
)

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	t.Run("api defaults", func(t *testing.T) {
		r := router.New[*router.Context]()
		r.Use(middleware.SecurityHeaders[*router.Context]())
		r.Get("/raw", func(ctx *router.Context) handler.Response {
			return response.String("<script>alert(1)</script>")
		})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/raw", nil))

		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
		assert.Contains(t, w.Header().Get("Content-Security-Policy"), "sandbox")
		assert.Equal(t, "no-referrer", w.Header().Get("Referrer-Policy"))
		assert.Equal(t, "cross-origin", w.Header().Get("Cross-Origin-Resource-Policy"))
		assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
	})

	t.Run("custom and skip", func(t *testing.T) {
		r := router.New[*router.Context]()
		r.Use(middleware.SecurityHeadersWithConfig[*router.Context](middleware.SecurityHeadersConfig{
			StrictTransportSecurity: "max-age=63072000",
			CustomHeaders:           map[string]string{"X-Robots-Tag": "noindex"},
			Skip: func(ctx handler.Context) bool {
				return ctx.Request().URL.Path == "/health"
			},
		}))
		r.Get("/", func(ctx *router.Context) handler.Response { return response.NoContent() })
		r.Get("/health", func(ctx *router.Context) handler.Response { return response.NoContent() })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, "max-age=63072000", w.Header().Get("Strict-Transport-Security"))
		assert.Equal(t, "noindex", w.Header().Get("X-Robots-Tag"))
		assert.Empty(t, w.Header().Get("X-Frame-Options"))

		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Empty(t, w.Header().Get("X-Robots-Tag"))
	})
}
