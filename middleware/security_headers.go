package middleware

import (
	"net/http"

	"github.com/dmitrymomot/dustebin/core/handler"
)

// SecurityHeadersConfig lists the security headers set on every response.
// Empty fields are not sent.
type SecurityHeadersConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool

	ContentTypeOptions        string
	FrameOptions              string
	ContentSecurityPolicy     string
	ReferrerPolicy            string
	CrossOriginResourcePolicy string
	StrictTransportSecurity   string

	// CustomHeaders are set after the named ones
	CustomHeaders map[string]string
}

// APISecurity suits an API that returns user supplied text and images.
// Nothing it serves may be sniffed, framed or run as a document, while
// images stay embeddable by a frontend on another origin.
var APISecurity = SecurityHeadersConfig{
	ContentTypeOptions:        "nosniff",
	FrameOptions:              "DENY",
	ContentSecurityPolicy:     "default-src 'none'; frame-ancestors 'none'; sandbox",
	ReferrerPolicy:            "no-referrer",
	CrossOriginResourcePolicy: "cross-origin",
}

// SecurityHeaders sets the APISecurity headers.
func SecurityHeaders[C handler.Context]() handler.Middleware[C] {
	return SecurityHeadersWithConfig[C](APISecurity)
}

// SecurityHeadersWithConfig sets the headers of cfg before the response
// renders, so handlers can still override them.
func SecurityHeadersWithConfig[C handler.Context](cfg SecurityHeadersConfig) handler.Middleware[C] {
	headers := make(map[string]string, 6+len(cfg.CustomHeaders))
	set := func(name, value string) {
		if value != "" {
			headers[name] = value
		}
	}
	set("X-Content-Type-Options", cfg.ContentTypeOptions)
	set("X-Frame-Options", cfg.FrameOptions)
	set("Content-Security-Policy", cfg.ContentSecurityPolicy)
	set("Referrer-Policy", cfg.ReferrerPolicy)
	set("Cross-Origin-Resource-Policy", cfg.CrossOriginResourcePolicy)
	set("Strict-Transport-Security", cfg.StrictTransportSecurity)
	for k, v := range cfg.CustomHeaders {
		set(k, v)
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}
			resp := next(ctx)
			return func(w http.ResponseWriter, r *http.Request) error {
				h := w.Header()
				for k, v := range headers {
					h.Set(k, v)
				}
				return resp(w, r)
			}
		}
	}
}
