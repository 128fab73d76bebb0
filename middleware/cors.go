package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/dmitrymomot/dustebin/core/handler"
)

// CORSConfig configures cross-origin access to the API.
type CORSConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool

	// AllowOrigins lists allowed origins. "*" or an empty list allows any origin.
	AllowOrigins []string

	// AllowMethods lists methods accepted in preflight requests (default: GET, HEAD, POST)
	AllowMethods []string

	// AllowHeaders lists request headers accepted in preflight requests
	AllowHeaders []string

	// ExposeHeaders lists response headers readable by browser scripts
	ExposeHeaders []string

	// MaxAge is how long browsers may cache a preflight answer, in seconds
	MaxAge int
}

// Default header lists. Password and admin token travel in headers, rate
// limit and burn state are reported in headers.
var (
	DefaultCORSAllowHeaders = []string{
		"Accept",
		"Authorization",
		"Content-Type",
		"X-Password",
		"X-Request-ID",
	}
	DefaultCORSExposeHeaders = []string{
		"Content-Disposition",
		"Retry-After",
		"X-Burn-After-Reading",
		"X-RateLimit-Limit",
		"X-RateLimit-Remaining",
		"X-RateLimit-Reset",
		"X-Request-ID",
	}
)

// CORS allows any origin with the default header lists.
func CORS[C handler.Context]() handler.Middleware[C] {
	return CORSWithConfig[C](CORSConfig{})
}

// CORSWithConfig answers preflight requests itself and decorates other
// responses with the allow headers. Requests from origins that are not
// allowed pass through undecorated; preflights from them get 403.
// Credentials are never allowed: the API authenticates with headers only.
func CORSWithConfig[C handler.Context](cfg CORSConfig) handler.Middleware[C] {
	if len(cfg.AllowMethods) == 0 {
		cfg.AllowMethods = []string{http.MethodGet, http.MethodHead, http.MethodPost}
	}
	if len(cfg.AllowHeaders) == 0 {
		cfg.AllowHeaders = DefaultCORSAllowHeaders
	}
	if cfg.ExposeHeaders == nil {
		cfg.ExposeHeaders = DefaultCORSExposeHeaders
	}

	anyOrigin := len(cfg.AllowOrigins) == 0 || slices.Contains(cfg.AllowOrigins, "*")
	origins := make(map[string]struct{}, len(cfg.AllowOrigins))
	for _, o := range cfg.AllowOrigins {
		origins[strings.TrimRight(o, "/")] = struct{}{}
	}

	allowMethods := strings.Join(cfg.AllowMethods, ", ")
	allowHeaders := strings.Join(cfg.AllowHeaders, ", ")
	exposeHeaders := strings.Join(cfg.ExposeHeaders, ", ")

	resolve := func(origin string) (string, bool) {
		if anyOrigin {
			return "*", true
		}
		if _, ok := origins[origin]; ok {
			return origin, true
		}
		return "", false
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			req := ctx.Request()
			origin := req.Header.Get("Origin")
			allowed, ok := resolve(origin)

			if req.Method == http.MethodOptions && req.Header.Get("Access-Control-Request-Method") != "" {
				method := req.Header.Get("Access-Control-Request-Method")
				return func(w http.ResponseWriter, r *http.Request) error {
					h := w.Header()
					h.Add("Vary", "Origin")
					h.Add("Vary", "Access-Control-Request-Method")
					h.Add("Vary", "Access-Control-Request-Headers")
					if !ok || !slices.Contains(cfg.AllowMethods, method) {
						w.WriteHeader(http.StatusForbidden)
						return nil
					}
					h.Set("Access-Control-Allow-Origin", allowed)
					h.Set("Access-Control-Allow-Methods", allowMethods)
					h.Set("Access-Control-Allow-Headers", allowHeaders)
					if cfg.MaxAge > 0 {
						h.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
					}
					w.WriteHeader(http.StatusNoContent)
					return nil
				}
			}

			resp := next(ctx)
			if origin == "" || !ok {
				return resp
			}
			return func(w http.ResponseWriter, r *http.Request) error {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", allowed)
				if exposeHeaders != "" {
					h.Set("Access-Control-Expose-Headers", exposeHeaders)
				}
				h.Add("Vary", "Origin")
				return resp(w, r)
			}
		}
	}
}
