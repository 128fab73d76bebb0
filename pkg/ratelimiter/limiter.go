package ratelimiter

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// record is the per-key state held by a Limiter.
type record struct {
	counter      counter
	blocked      bool
	blockedUntil int64
}

// Limiter is an in-memory window counter keyed by an arbitrary string
// (usually the client IP). Every Check and Sweep on the same Limiter is
// serialized by a single mutex.
type Limiter struct {
	name      string
	algorithm Algorithm
	limit     int
	window    time.Duration

	mu      sync.Mutex
	records map[string]*record

	clock  func() time.Time
	logger *slog.Logger

	recordsCreated   atomic.Int64
	recordsRemoved   atomic.Int64
	recordsBlocked   atomic.Int64
	recordsUnblocked atomic.Int64
}

// LimiterStats provides observability metrics for a single Limiter.
type LimiterStats struct {
	Name             string
	Algorithm        string
	ActiveRecords    int
	BlockedRecords   int
	RecordsCreated   int64
	RecordsRemoved   int64
	RecordsBlocked   int64
	RecordsUnblocked int64
}

// SweepResult summarizes a single Sweep.
type SweepResult struct {
	Unblocked int
	Removed   int
	Active    int
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces the time source. Intended for tests.
func WithClock(clock func() time.Time) Option {
	return func(l *Limiter) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// WithLogger sets the logger for block and unblock events.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLimiter creates a Limiter that admits at most limit events per window for each key.
func NewLimiter(name string, algorithm Algorithm, limit int, window time.Duration, opts ...Option) (*Limiter, error) {
	if !algorithm.valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAlgorithm, algorithm)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidConfig, limit)
	}
	if window < time.Millisecond {
		return nil, fmt.Errorf("%w: window must be at least 1ms, got %s", ErrInvalidConfig, window)
	}

	l := &Limiter{
		name:      name,
		algorithm: algorithm,
		limit:     limit,
		window:    window,
		records:   make(map[string]*record),
		clock:     time.Now,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// Name returns the limiter name used in logs and stats.
func (l *Limiter) Name() string { return l.name }

// Limit returns the maximum number of events per window.
func (l *Limiter) Limit() int { return l.limit }

// Window returns the window length.
func (l *Limiter) Window() time.Duration { return l.window }

// Check registers one event for key and reports whether it is admitted.
// A limited result leaves the counting state untouched.
func (l *Limiter) Check(key string) Result {
	now := l.clock().UnixMilli()
	window := l.window.Milliseconds()

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[key]
	if !ok {
		rec = &record{counter: l.algorithm.newCounter(now)}
		l.records[key] = rec
		l.recordsCreated.Add(1)
	}

	if rec.blocked && !l.release(rec, now) {
		return l.limited(rec.blockedUntil, now)
	}

	rec.counter.advance(now, window)

	if rec.counter.size() >= l.limit {
		rec.blocked = true
		rec.blockedUntil = rec.counter.blockDeadline(now, window)
		l.recordsBlocked.Add(1)
		l.logger.Debug("rate limit exceeded",
			slog.String("limiter", l.name),
			slog.String("key", key),
			slog.Time("blocked_until", time.UnixMilli(rec.blockedUntil)))
		return l.limited(rec.blockedUntil, now)
	}

	rec.counter.record(now)

	return Result{
		Limit:     l.limit,
		Remaining: max(0, l.limit-rec.counter.size()),
		ResetAt:   time.UnixMilli(rec.counter.resetAt(now, window)),
	}
}

// Sweep releases expired blocks, drops events that left the window and
// deletes records that are neither blocked nor hold any events.
// Repeated sweeps at the same instant are no-ops after the first.
func (l *Limiter) Sweep() SweepResult {
	now := l.clock().UnixMilli()
	window := l.window.Milliseconds()

	l.mu.Lock()
	defer l.mu.Unlock()

	var res SweepResult
	for key, rec := range l.records {
		if rec.blocked {
			if !l.release(rec, now) {
				continue
			}
			res.Unblocked++
		}

		rec.counter.advance(now, window)
		if rec.counter.idle() {
			delete(l.records, key)
			res.Removed++
		}
	}
	res.Active = len(l.records)

	if res.Removed > 0 {
		l.recordsRemoved.Add(int64(res.Removed))
	}

	return res
}

// Reset forgets key entirely, including an active block.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.records[key]; ok {
		delete(l.records, key)
		l.recordsRemoved.Add(1)
	}
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Stats returns current limiter statistics.
func (l *Limiter) Stats() LimiterStats {
	l.mu.Lock()
	active := len(l.records)
	blocked := 0
	for _, rec := range l.records {
		if rec.blocked {
			blocked++
		}
	}
	l.mu.Unlock()

	return LimiterStats{
		Name:             l.name,
		Algorithm:        l.algorithm.String(),
		ActiveRecords:    active,
		BlockedRecords:   blocked,
		RecordsCreated:   l.recordsCreated.Load(),
		RecordsRemoved:   l.recordsRemoved.Load(),
		RecordsBlocked:   l.recordsBlocked.Load(),
		RecordsUnblocked: l.recordsUnblocked.Load(),
	}
}

// release lifts an expired block and clears the counting state.
// It is the only place a record leaves the blocked state; callers hold l.mu.
func (l *Limiter) release(rec *record, now int64) bool {
	if now < rec.blockedUntil {
		return false
	}

	rec.blocked = false
	rec.blockedUntil = 0
	rec.counter.reset(now)
	l.recordsUnblocked.Add(1)

	return true
}

func (l *Limiter) limited(blockedUntil, now int64) Result {
	return Result{
		Limit:      l.limit,
		Remaining:  0,
		ResetAt:    time.UnixMilli(blockedUntil),
		RetryAfter: time.Duration(max(0, blockedUntil-now)) * time.Millisecond,
		Limited:    true,
	}
}
