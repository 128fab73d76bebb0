package health

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/dustebin/core/handler"
	"github.com/dmitrymomot/dustebin/core/logger"
	"github.com/dmitrymomot/dustebin/core/response"
)

// CheckTimeout bounds a whole readiness check.
const CheckTimeout = 5 * time.Second

// Readiness runs every check concurrently and answers "READY", or 503 when
// any check fails or the run exceeds CheckTimeout.
func Readiness[C handler.Context](log *slog.Logger, checks ...func(context.Context) error) handler.HandlerFunc[C] {
	return func(ctx C) handler.Response {
		checkCtx, cancel := context.WithTimeout(ctx, CheckTimeout)
		defer cancel()

		g, gctx := errgroup.WithContext(checkCtx)
		for _, check := range checks {
			g.Go(func() error { return check(gctx) })
		}
		if err := g.Wait(); err != nil {
			log.WarnContext(ctx, "readiness check failed",
				logger.Component("health"),
				logger.Error(err))
			return response.Error(response.ErrServiceUnavailable)
		}

		return response.String("READY")
	}
}
