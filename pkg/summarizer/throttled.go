package summarizer

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Throttled limits the rate of calls forwarded to the wrapped Summarizer.
// Callers wait for a token; a cancelled context aborts the wait.
type Throttled struct {
	next    Summarizer
	limiter *rate.Limiter
}

// NewThrottled allows perMinute calls per minute with the given burst.
// A non-positive perMinute disables throttling.
func NewThrottled(next Summarizer, perMinute, burst int) *Throttled {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	if burst < 1 {
		burst = 1
	}
	return &Throttled{next: next, limiter: rate.NewLimiter(limit, burst)}
}

func (t *Throttled) Summarize(ctx context.Context, content, language string) (Summary, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return Summary{}, fmt.Errorf("summarizer throttled: %w", err)
	}
	return t.next.Summarize(ctx, content, language)
}

// WithTimeout bounds every call to next by d.
func WithTimeout(next Summarizer, d time.Duration) Summarizer {
	if d <= 0 {
		return next
	}
	return Func(func(ctx context.Context, content, language string) (Summary, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return next.Summarize(ctx, content, language)
	})
}
