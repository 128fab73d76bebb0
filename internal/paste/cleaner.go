package paste

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/dustebin/core/logger"
)

// ExpiredCleaner deletes expired pastes. *Service implements it.
type ExpiredCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// Cleaner periodically removes expired pastes.
type Cleaner struct {
	mu     sync.Mutex
	target ExpiredCleaner

	interval        time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger

	loop    context.Context
	cancel  context.CancelFunc
	running atomic.Bool
	wg      sync.WaitGroup

	runs    atomic.Int64
	failed  atomic.Int64
	deleted atomic.Int64
	lastRun atomic.Int64
}

// CleanerStats describes cleaner activity.
type CleanerStats struct {
	Runs      int64
	Failures  int64
	Deleted   int64
	LastRun   time.Time
	IsRunning bool
}

// CleanerOption configures a Cleaner.
type CleanerOption func(*Cleaner)

// WithCleanupInterval sets the time between runs.
func WithCleanupInterval(d time.Duration) CleanerOption {
	return func(c *Cleaner) {
		c.interval = d
	}
}

// WithCleanerShutdownTimeout bounds Stop.
func WithCleanerShutdownTimeout(d time.Duration) CleanerOption {
	return func(c *Cleaner) {
		if d > 0 {
			c.shutdownTimeout = d
		}
	}
}

// WithCleanerLogger sets the logger.
func WithCleanerLogger(l *slog.Logger) CleanerOption {
	return func(c *Cleaner) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCleaner creates a cleaner for target.
func NewCleaner(target ExpiredCleaner, opts ...CleanerOption) *Cleaner {
	c := &Cleaner{
		target:          target,
		interval:        time.Hour,
		shutdownTimeout: 10 * time.Second,
		logger:          logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewCleanerFromConfig creates a cleaner using cfg.
func NewCleanerFromConfig(cfg Config, target ExpiredCleaner, opts ...CleanerOption) *Cleaner {
	base := []CleanerOption{
		WithCleanupInterval(cfg.CleanupInterval),
		WithCleanerShutdownTimeout(cfg.CleanupShutdownTimeout),
	}
	return NewCleaner(target, append(base, opts...)...)
}

// Start runs cleanup on every tick until ctx is cancelled. It blocks.
func (c *Cleaner) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return ErrCleanerRunning
	}
	if c.interval <= 0 {
		c.mu.Unlock()
		return fmt.Errorf("paste cleaner: interval must be > 0, got %v", c.interval)
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.loop = ctx
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.loop == ctx {
			if c.cancel != nil {
				c.cancel()
				c.cancel = nil
			}
			c.loop = nil
		}
		c.mu.Unlock()
	}()

	c.running.Store(true)
	defer c.running.Store(false)

	c.logger.InfoContext(ctx, "paste cleaner started", slog.Duration("interval", c.interval))

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.InfoContext(context.Background(), "paste cleaner stopping")
			return ctx.Err()
		case <-ticker.C:
			c.wg.Add(1)
			_, _ = c.RunOnce(ctx)
			c.wg.Done()
		}
	}
}

// Stop cancels the loop and waits for an in-flight run.
func (c *Cleaner) Stop() error {
	c.mu.Lock()
	if c.cancel == nil {
		c.mu.Unlock()
		return ErrCleanerNotRunning
	}
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(c.shutdownTimeout):
		return fmt.Errorf("%w after %s", ErrCleanerShutdownTimeout, c.shutdownTimeout)
	}
}

// Run provides errgroup compatibility.
func (c *Cleaner) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- c.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			_ = c.Stop()
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

// RunOnce performs a single cleanup.
func (c *Cleaner) RunOnce(ctx context.Context) (int64, error) {
	start := time.Now()
	n, err := c.target.CleanupExpired(ctx)

	c.runs.Add(1)
	c.lastRun.Store(time.Now().UnixMilli())
	if err != nil {
		c.failed.Add(1)
		c.logger.ErrorContext(ctx, "expired paste cleanup failed", logger.Error(err))
		return 0, err
	}

	c.deleted.Add(n)
	c.logger.InfoContext(ctx, "expired pastes cleaned up",
		logger.Count("deleted", int(n)),
		logger.Elapsed(start),
	)
	return n, nil
}

// Stats returns cleaner statistics.
func (c *Cleaner) Stats() CleanerStats {
	s := CleanerStats{
		Runs:      c.runs.Load(),
		Failures:  c.failed.Load(),
		Deleted:   c.deleted.Load(),
		IsRunning: c.running.Load(),
	}
	if ms := c.lastRun.Load(); ms > 0 {
		s.LastRun = time.UnixMilli(ms)
	}
	return s
}

// Healthcheck fails when the loop is configured but not running.
func (c *Cleaner) Healthcheck(context.Context) error {
	if c.interval > 0 && !c.running.Load() {
		return ErrCleanerUnhealthy
	}
	return nil
}
