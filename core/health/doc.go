// Package health serves the liveness and readiness checks.
//
//	r.Get("/health/live", health.Liveness[*router.Context])
//	r.Get("/health/ready", health.Readiness[*router.Context](log,
//		pg.Healthcheck(pool),
//		redis.Healthcheck(client),
//		reaper.Healthcheck,
//	))
//
// Checks have the func(context.Context) error shape exposed by the
// integration packages and the background workers.
package health
