package ratelimiter

import (
	"net/http"
	"strconv"
	"time"
)

// Response header names carried by every rate limit decision.
const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// Result is the outcome of a single Check.
type Result struct {
	Limit      int           // Maximum events per window
	Remaining  int           // Events left in the current window, never negative
	ResetAt    time.Time     // When the window (or the block) ends
	RetryAfter time.Duration // Time until the block is lifted; zero when allowed
	Limited    bool          // True when the event was rejected
}

// Allowed reports whether the event was admitted.
func (r Result) Allowed() bool {
	return !r.Limited
}

// ResetUnix returns ResetAt as unix seconds, rounded up.
func (r Result) ResetUnix() int64 {
	return ceilSeconds(r.ResetAt.UnixMilli())
}

// RetryAfterSeconds returns RetryAfter in whole seconds, rounded up.
func (r Result) RetryAfterSeconds() int64 {
	return ceilSeconds(r.RetryAfter.Milliseconds())
}

// Headers renders the decision as HTTP response headers.
// Retry-After is present only for limited results.
func (r Result) Headers() map[string]string {
	h := map[string]string{
		HeaderLimit:     strconv.Itoa(r.Limit),
		HeaderRemaining: strconv.Itoa(max(0, r.Remaining)),
		HeaderReset:     strconv.FormatInt(r.ResetUnix(), 10),
	}
	if r.Limited {
		h[HeaderRetryAfter] = strconv.FormatInt(r.RetryAfterSeconds(), 10)
	}
	return h
}

// SetHeaders copies Headers onto h.
func (r Result) SetHeaders(h http.Header) {
	for k, v := range r.Headers() {
		h.Set(k, v)
	}
}

func ceilSeconds(ms int64) int64 {
	if ms <= 0 {
		return 0
	}
	return (ms + 999) / 1000
}
