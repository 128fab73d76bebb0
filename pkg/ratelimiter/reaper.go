package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Reaper periodically sweeps a set of limiters so that expired blocks are
// lifted and idle keys do not accumulate.
type Reaper struct {
	mu       sync.RWMutex
	limiters []*Limiter

	// Configuration
	interval        time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger

	// State management
	ctx     context.Context
	cancel  context.CancelFunc
	running atomic.Bool
	wg      sync.WaitGroup

	// Observability metrics
	sweeps           atomic.Int64
	recordsRemoved   atomic.Int64
	recordsUnblocked atomic.Int64
	lastSweep        atomic.Int64
}

// ReaperStats provides observability metrics for monitoring and debugging.
type ReaperStats struct {
	Sweeps           int64          // Total number of completed sweeps
	RecordsRemoved   int64          // Idle records deleted across all sweeps
	RecordsUnblocked int64          // Blocks lifted by sweeps
	LastSweep        time.Time      // Zero until the first sweep
	IsRunning        bool           // Whether the sweep loop is running
	Limiters         []LimiterStats // Per-table statistics
}

// ReaperOption configures a Reaper.
type ReaperOption func(*Reaper)

// WithInterval sets the time between sweeps.
func WithInterval(interval time.Duration) ReaperOption {
	return func(r *Reaper) {
		r.interval = interval
	}
}

// WithShutdownTimeout sets the graceful shutdown timeout.
func WithShutdownTimeout(timeout time.Duration) ReaperOption {
	return func(r *Reaper) {
		if timeout > 0 {
			r.shutdownTimeout = timeout
		}
	}
}

// WithReaperLogger sets the logger for sweep reports.
func WithReaperLogger(logger *slog.Logger) ReaperOption {
	return func(r *Reaper) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewReaper creates a reaper for the given limiters.
// Call Start or Run to begin sweeping.
func NewReaper(limiters []*Limiter, opts ...ReaperOption) *Reaper {
	r := &Reaper{
		limiters:        limiters,
		interval:        5 * time.Minute,
		shutdownTimeout: 10 * time.Second,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// NewReaperFromConfig creates a reaper for every limiter owned by svc.
func NewReaperFromConfig(cfg Config, svc *Service, opts ...ReaperOption) *Reaper {
	base := []ReaperOption{
		WithInterval(cfg.ReaperInterval),
		WithShutdownTimeout(cfg.ReaperShutdownTimeout),
	}
	return NewReaper(svc.Limiters(), append(base, opts...)...)
}

// Start runs the sweep loop until the context is cancelled. This is a blocking
// operation; use Run for the errgroup pattern or call this in a goroutine.
func (r *Reaper) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return ErrReaperRunning
	}

	if r.interval <= 0 {
		r.mu.Unlock()
		return fmt.Errorf("%w: interval must be > 0, got %v", ErrInvalidConfig, r.interval)
	}

	r.ctx, r.cancel = context.WithCancel(ctx)
	loopCtx := r.ctx
	r.mu.Unlock()

	// The loop may end on parent cancellation without Stop being called.
	defer r.release(loopCtx)

	r.running.Store(true)
	defer r.running.Store(false)

	r.logger.InfoContext(loopCtx, "rate limit reaper started",
		slog.Duration("interval", r.interval),
		slog.Int("limiters", len(r.limiters)))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-loopCtx.Done():
			r.logger.InfoContext(context.Background(), "rate limit reaper stopping")
			return loopCtx.Err()
		case <-ticker.C:
			r.sweepWithWait()
		}
	}
}

// release clears the running state of the loop bound to loopCtx, unless a
// later Start already replaced it.
func (r *Reaper) release(loopCtx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ctx != loopCtx {
		return
	}
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.ctx = nil
}

// Stop gracefully shuts down the sweep loop, waiting for an in-progress
// sweep up to the shutdown timeout.
func (r *Reaper) Stop() error {
	r.mu.Lock()
	if r.cancel == nil {
		r.mu.Unlock()
		return ErrReaperNotRunning
	}

	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	cancel()

	ctx, ctxCancel := context.WithTimeout(context.Background(), r.shutdownTimeout)
	defer ctxCancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.InfoContext(context.Background(), "rate limit reaper stopped cleanly")
		return nil
	case <-ctx.Done():
		r.logger.WarnContext(context.Background(), "rate limit reaper shutdown timeout exceeded",
			slog.Duration("timeout", r.shutdownTimeout))
		return fmt.Errorf("%w after %s", ErrShutdownTimeout, r.shutdownTimeout)
	}
}

// Run provides errgroup compatibility. The returned function sweeps until ctx
// is cancelled and then shuts down gracefully.
func (r *Reaper) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- r.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			_ = r.Stop()
			<-errCh
			return nil
		case err := <-errCh:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// SweepNow performs one sweep over all limiters immediately.
func (r *Reaper) SweepNow() SweepResult {
	var total SweepResult
	for _, l := range r.limiters {
		res := l.Sweep()
		total.Unblocked += res.Unblocked
		total.Removed += res.Removed
		total.Active += res.Active

		if res.Unblocked > 0 || res.Removed > 0 {
			r.logger.Debug("rate limit table swept",
				slog.String("limiter", l.Name()),
				slog.Int("unblocked", res.Unblocked),
				slog.Int("removed", res.Removed),
				slog.Int("active", res.Active))
		}
	}

	r.sweeps.Add(1)
	r.recordsRemoved.Add(int64(total.Removed))
	r.recordsUnblocked.Add(int64(total.Unblocked))
	r.lastSweep.Store(time.Now().UnixMilli())

	return total
}

func (r *Reaper) sweepWithWait() {
	r.mu.RLock()
	if r.cancel == nil {
		r.mu.RUnlock()
		return
	}
	r.wg.Add(1)
	r.mu.RUnlock()

	defer r.wg.Done()
	r.SweepNow()
}

// Stats returns current reaper statistics. Safe to call at any time.
func (r *Reaper) Stats() ReaperStats {
	r.mu.RLock()
	isRunning := r.cancel != nil
	r.mu.RUnlock()

	stats := ReaperStats{
		Sweeps:           r.sweeps.Load(),
		RecordsRemoved:   r.recordsRemoved.Load(),
		RecordsUnblocked: r.recordsUnblocked.Load(),
		IsRunning:        isRunning,
	}
	if ms := r.lastSweep.Load(); ms > 0 {
		stats.LastSweep = time.UnixMilli(ms)
	}
	for _, l := range r.limiters {
		stats.Limiters = append(stats.Limiters, l.Stats())
	}

	return stats
}

// Healthcheck returns an error when sweeping is configured but the loop is not running.
func (r *Reaper) Healthcheck(ctx context.Context) error {
	if r.interval > 0 && !r.Stats().IsRunning {
		return ErrReaperUnhealthy
	}
	return nil
}
