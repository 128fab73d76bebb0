package ratelimiter

// Algorithm selects how a Limiter counts events inside its window.
type Algorithm int

const (
	// SlidingWindow keeps the timestamp of every admitted event and counts
	// those newer than now-window.
	SlidingWindow Algorithm = iota
	// FixedWindow keeps a single counter per key. The window opens at the first
	// event after the previous one expired, so windows drift per key instead of
	// being aligned to the wall clock.
	FixedWindow
)

func (a Algorithm) String() string {
	switch a {
	case SlidingWindow:
		return "sliding_window"
	case FixedWindow:
		return "fixed_window"
	default:
		return "unknown"
	}
}

func (a Algorithm) valid() bool {
	return a == SlidingWindow || a == FixedWindow
}

func (a Algorithm) newCounter(now int64) counter {
	if a == FixedWindow {
		return &fixedCounter{windowStart: now}
	}
	return &slidingCounter{}
}

// counter is the per-key counting state. All instants are unix milliseconds.
type counter interface {
	// reset drops all counting state as if the key was never seen.
	reset(now int64)
	// advance discards events that fell out of the window.
	advance(now, window int64)
	// size is the number of events counted in the current window.
	size() int
	// record admits one event.
	record(now int64)
	// blockDeadline is the instant a key blocked at now is released.
	blockDeadline(now, window int64) int64
	// resetAt is the instant reported to clients after an admitted event.
	resetAt(now, window int64) int64
	// idle reports whether no events remain in the window.
	idle() bool
}

type slidingCounter struct {
	stamps []int64
}

func (c *slidingCounter) reset(int64) {
	c.stamps = c.stamps[:0]
}

func (c *slidingCounter) advance(now, window int64) {
	cutoff := now - window
	kept := c.stamps[:0]
	for _, ts := range c.stamps {
		if ts > cutoff {
			kept = append(kept, ts)
		}
	}
	c.stamps = kept
}

func (c *slidingCounter) size() int { return len(c.stamps) }

func (c *slidingCounter) record(now int64) {
	c.stamps = append(c.stamps, now)
}

func (c *slidingCounter) blockDeadline(now, window int64) int64 { return now + window }

func (c *slidingCounter) resetAt(now, window int64) int64 { return now + window }

func (c *slidingCounter) idle() bool { return len(c.stamps) == 0 }

type fixedCounter struct {
	count       int
	windowStart int64
}

func (c *fixedCounter) reset(now int64) {
	c.count = 0
	c.windowStart = now
}

func (c *fixedCounter) advance(now, window int64) {
	if c.windowStart < now-window {
		c.reset(now)
	}
}

func (c *fixedCounter) size() int { return c.count }

func (c *fixedCounter) record(int64) { c.count++ }

func (c *fixedCounter) blockDeadline(_, window int64) int64 { return c.windowStart + window }

func (c *fixedCounter) resetAt(_, window int64) int64 { return c.windowStart + window }

func (c *fixedCounter) idle() bool { return c.count == 0 }
