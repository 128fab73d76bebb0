// Package ratelimiter provides in-memory, per-key window counters with
// block/unblock semantics and a background reaper.
//
// Two counting algorithms are available:
//
//   - SlidingWindow stores the timestamp of every admitted event and counts
//     those newer than now-window. It gives a smooth limit with no burst at
//     window edges.
//   - FixedWindow stores a counter and the start of its window. A window opens
//     at the first event after the previous window expired, so each key has
//     its own drifting window.
//
// When a key reaches its limit it is blocked. The sliding variant blocks for a
// full window from the rejected event, the fixed variant until its current
// window ends. While blocked every Check is rejected without touching the
// counting state. The first Check (or reaper sweep) at or after the deadline
// lifts the block and clears the key.
//
// # Usage
//
//	svc, err := ratelimiter.NewService(ratelimiter.DefaultConfig())
//	if err != nil {
//		return err
//	}
//
//	res := svc.CheckRequestLimit(clientIP)
//	res.SetHeaders(w.Header())
//	if res.Limited {
//		w.WriteHeader(http.StatusTooManyRequests)
//		return
//	}
//
// Every Result carries X-RateLimit-Limit, X-RateLimit-Remaining and
// X-RateLimit-Reset (unix seconds, rounded up). Limited results also carry
// Retry-After in whole seconds, rounded up.
//
// # Reaper
//
// Keys are created lazily and never removed by Check. Run a Reaper next to the
// HTTP server to release expired blocks and delete idle keys:
//
//	reaper := ratelimiter.NewReaperFromConfig(cfg, svc, ratelimiter.WithReaperLogger(log))
//	g.Go(reaper.Run(ctx))
//
// A Limiter is safe for concurrent use. State lives in process memory only and
// is lost on restart.
package ratelimiter
