package ratelimiter_test

import (
	"sync"
	"time"
)

// epoch is deliberately not aligned to a whole second so that header rounding is observable.
var epoch = time.UnixMilli(1_700_000_000_500)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: epoch}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
