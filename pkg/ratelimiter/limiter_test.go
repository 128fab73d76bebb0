package ratelimiter_test

import (
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dustebin/pkg/ratelimiter"
)

func newLimiter(t *testing.T, alg ratelimiter.Algorithm, limit int, window time.Duration, clock *fakeClock) *ratelimiter.Limiter {
	t.Helper()
	l, err := ratelimiter.NewLimiter("test", alg, limit, window, ratelimiter.WithClock(clock.Now))
	require.NoError(t, err)
	return l
}

func TestNewLimiter_Validation(t *testing.T) {
	t.Parallel()

	t.Run("rejects non-positive limit", func(t *testing.T) {
		_, err := ratelimiter.NewLimiter("x", ratelimiter.SlidingWindow, 0, time.Minute)
		assert.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
	})

	t.Run("rejects sub-millisecond window", func(t *testing.T) {
		_, err := ratelimiter.NewLimiter("x", ratelimiter.FixedWindow, 10, time.Microsecond)
		assert.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
	})

	t.Run("rejects unknown algorithm", func(t *testing.T) {
		_, err := ratelimiter.NewLimiter("x", ratelimiter.Algorithm(42), 10, time.Minute)
		assert.ErrorIs(t, err, ratelimiter.ErrInvalidAlgorithm)
	})
}

func TestLimiter_SlidingWindow(t *testing.T) {
	t.Parallel()

	t.Run("admits up to the limit then blocks for a full window", func(t *testing.T) {
		clock := newFakeClock()
		l := newLimiter(t, ratelimiter.SlidingWindow, 60, time.Minute, clock)

		for i := range 60 {
			res := l.Check("1.2.3.4")
			require.False(t, res.Limited, "request %d", i+1)
			assert.Equal(t, 59-i, res.Remaining)

			h := res.Headers()
			assert.Equal(t, "60", h[ratelimiter.HeaderLimit])
			assert.Equal(t, strconv.Itoa(59-i), h[ratelimiter.HeaderRemaining])
			assert.Equal(t, "1700000061", h[ratelimiter.HeaderReset])
			assert.NotContains(t, h, ratelimiter.HeaderRetryAfter)
		}

		res := l.Check("1.2.3.4")
		require.True(t, res.Limited)
		assert.Equal(t, 0, res.Remaining)
		assert.Equal(t, epoch.Add(time.Minute), res.ResetAt)

		h := res.Headers()
		assert.Equal(t, "0", h[ratelimiter.HeaderRemaining])
		assert.Equal(t, "60", h[ratelimiter.HeaderRetryAfter])
		assert.Equal(t, "1700000061", h[ratelimiter.HeaderReset])
	})

	t.Run("limited checks do not touch counters", func(t *testing.T) {
		clock := newFakeClock()
		l := newLimiter(t, ratelimiter.SlidingWindow, 3, time.Minute, clock)

		for range 3 {
			require.False(t, l.Check("k").Limited)
		}
		require.True(t, l.Check("k").Limited)

		clock.Advance(30 * time.Second)
		res := l.Check("k")
		assert.True(t, res.Limited)
		assert.Equal(t, 30*time.Second, res.RetryAfter)
		assert.Equal(t, int64(30), res.RetryAfterSeconds())
	})

	t.Run("block is lifted exactly at the deadline and state is cleared", func(t *testing.T) {
		clock := newFakeClock()
		l := newLimiter(t, ratelimiter.SlidingWindow, 60, time.Minute, clock)

		for range 61 {
			l.Check("k")
		}

		clock.Advance(time.Minute - time.Millisecond)
		res := l.Check("k")
		require.True(t, res.Limited)
		assert.Equal(t, "1", res.Headers()[ratelimiter.HeaderRetryAfter])

		clock.Advance(time.Millisecond)
		res = l.Check("k")
		require.False(t, res.Limited)
		assert.Equal(t, 59, res.Remaining)
	})

	t.Run("timestamps at now-window fall out of the window", func(t *testing.T) {
		clock := newFakeClock()
		l := newLimiter(t, ratelimiter.SlidingWindow, 60, time.Minute, clock)

		for range 30 {
			l.Check("k")
		}
		clock.Advance(30 * time.Second)
		for range 30 {
			l.Check("k")
		}

		clock.Advance(30 * time.Second)
		res := l.Check("k")
		require.False(t, res.Limited)
		assert.Equal(t, 29, res.Remaining)
	})

	t.Run("keys are independent", func(t *testing.T) {
		clock := newFakeClock()
		l := newLimiter(t, ratelimiter.SlidingWindow, 1, time.Minute, clock)

		assert.False(t, l.Check("a").Limited)
		assert.True(t, l.Check("a").Limited)
		assert.False(t, l.Check("b").Limited)
	})
}

func TestLimiter_FixedWindow(t *testing.T) {
	t.Parallel()

	t.Run("admits up to the limit then blocks until the window ends", func(t *testing.T) {
		clock := newFakeClock()
		l := newLimiter(t, ratelimiter.FixedWindow, 30, time.Hour, clock)

		for i := range 30 {
			res := l.Check("k")
			require.False(t, res.Limited, "paste %d", i+1)
			assert.Equal(t, 29-i, res.Remaining)
			assert.Equal(t, "1700003601", res.Headers()[ratelimiter.HeaderReset])
		}

		clock.Advance(10 * time.Minute)
		res := l.Check("k")
		require.True(t, res.Limited)
		assert.Equal(t, "3000", res.Headers()[ratelimiter.HeaderRetryAfter])
		assert.Equal(t, epoch.Add(time.Hour), res.ResetAt)

		clock.Advance(50 * time.Minute)
		res = l.Check("k")
		require.False(t, res.Limited)
		assert.Equal(t, 29, res.Remaining)
		assert.Equal(t, "1700007201", res.Headers()[ratelimiter.HeaderReset])
	})

	t.Run("window drifts from the first event after expiry", func(t *testing.T) {
		clock := newFakeClock()
		l := newLimiter(t, ratelimiter.FixedWindow, 30, time.Hour, clock)

		l.Check("k")

		clock.Advance(time.Hour)
		res := l.Check("k")
		assert.Equal(t, 28, res.Remaining, "window still open at exactly start+window")

		clock.Advance(time.Millisecond)
		res = l.Check("k")
		assert.Equal(t, 29, res.Remaining)
		assert.Equal(t, epoch.Add(2*time.Hour+time.Millisecond), res.ResetAt)
		assert.Equal(t, "1700007201", res.Headers()[ratelimiter.HeaderReset])
	})
}

func TestLimiter_Sweep(t *testing.T) {
	t.Parallel()

	t.Run("sliding: unblocks, removes idle and keeps active keys", func(t *testing.T) {
		clock := newFakeClock()
		l := newLimiter(t, ratelimiter.SlidingWindow, 60, time.Minute, clock)

		l.Check("idle")
		for range 61 {
			l.Check("blocked")
		}
		clock.Advance(30 * time.Second)
		l.Check("active")
		clock.Advance(30 * time.Second)

		res := l.Sweep()
		assert.Equal(t, 1, res.Unblocked)
		assert.Equal(t, 2, res.Removed)
		assert.Equal(t, 1, res.Active)
		assert.Equal(t, 1, l.Len())

		again := l.Sweep()
		assert.Equal(t, ratelimiter.SweepResult{Active: 1}, again)
	})

	t.Run("keeps keys that are still blocked", func(t *testing.T) {
		clock := newFakeClock()
		l := newLimiter(t, ratelimiter.SlidingWindow, 1, time.Minute, clock)

		l.Check("k")
		l.Check("k")
		clock.Advance(10 * time.Second)

		res := l.Sweep()
		assert.Equal(t, 0, res.Removed)
		assert.Equal(t, 1, l.Stats().BlockedRecords)
		assert.True(t, l.Check("k").Limited)
	})

	t.Run("fixed: removes keys whose window expired", func(t *testing.T) {
		clock := newFakeClock()
		l := newLimiter(t, ratelimiter.FixedWindow, 30, time.Hour, clock)

		for range 5 {
			l.Check("stale")
		}
		clock.Advance(30 * time.Minute)
		l.Check("fresh")

		res := l.Sweep()
		assert.Equal(t, 0, res.Removed)

		clock.Advance(30*time.Minute + time.Millisecond)
		res = l.Sweep()
		assert.Equal(t, 1, res.Removed)
		assert.Equal(t, 1, res.Active)
	})

	t.Run("fixed: sweep lifts block at the deadline", func(t *testing.T) {
		clock := newFakeClock()
		l := newLimiter(t, ratelimiter.FixedWindow, 2, time.Hour, clock)

		for range 3 {
			l.Check("k")
		}
		clock.Advance(time.Hour)

		res := l.Sweep()
		assert.Equal(t, 1, res.Unblocked)
		assert.Equal(t, 1, res.Removed)

		stats := l.Stats()
		assert.Equal(t, int64(1), stats.RecordsBlocked)
		assert.Equal(t, int64(1), stats.RecordsUnblocked)
		assert.Equal(t, "fixed_window", stats.Algorithm)
	})
}

func TestLimiter_Reset(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	l := newLimiter(t, ratelimiter.SlidingWindow, 1, time.Minute, clock)

	l.Check("k")
	require.True(t, l.Check("k").Limited)

	l.Reset("k")
	assert.False(t, l.Check("k").Limited)
}

func TestLimiter_ConcurrentChecks(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping concurrency test in short mode")
	}
	t.Parallel()

	clock := newFakeClock()
	l := newLimiter(t, ratelimiter.SlidingWindow, 500, time.Minute, clock)

	var (
		allowed atomic.Int64
		wg      sync.WaitGroup
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 20 {
				if l.Check("shared").Allowed() {
					allowed.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(500), allowed.Load())
	assert.True(t, l.Check("shared").Limited)
}
