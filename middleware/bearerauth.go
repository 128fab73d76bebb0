package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/dmitrymomot/dustebin/core/handler"
	"github.com/dmitrymomot/dustebin/core/response"
)

// BearerAuthConfig configures static bearer token authentication.
type BearerAuthConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx handler.Context) bool
	// Token is the expected bearer token. An empty token disables the check.
	Token string
}

// BearerAuth guards routes with a single static token.
func BearerAuth[C handler.Context](token string) handler.Middleware[C] {
	return BearerAuthWithConfig[C](BearerAuthConfig{Token: token})
}

// BearerAuthWithConfig rejects requests whose Authorization header is not
// "Bearer <Token>" with 401. Tokens are compared in constant time.
func BearerAuthWithConfig[C handler.Context](cfg BearerAuthConfig) handler.Middleware[C] {
	expected := []byte(cfg.Token)

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if len(expected) == 0 || (cfg.Skip != nil && cfg.Skip(ctx)) {
				return next(ctx)
			}

			token, ok := strings.CutPrefix(ctx.Request().Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(token), expected) != 1 {
				return response.Error(response.ErrUnauthorized)
			}

			return next(ctx)
		}
	}
}
