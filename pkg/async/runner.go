package async

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Future is the outcome of a task started by Runner.Go.
type Future struct {
	err  error
	done chan struct{}
}

// Await blocks until the task finishes and returns its error.
func (f *Future) Await() error {
	<-f.done
	return f.err
}

// AwaitWithTimeout is Await bounded by timeout.
func (f *Future) AwaitWithTimeout(timeout time.Duration) error {
	select {
	case <-f.done:
		return f.err
	case <-time.After(timeout):
		return ErrTimeout
	}
}

// IsComplete reports whether the task has finished.
func (f *Future) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

func failed(err error) *Future {
	f := &Future{err: err, done: make(chan struct{})}
	close(f.done)
	return f
}

// Runner executes fire-and-forget tasks that must outlive the request that
// started them, and waits for them on shutdown.
type Runner struct {
	base    context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	started  atomic.Int64
	failures atomic.Int64
}

// Option configures a Runner.
type Option func(*Runner)

// WithTaskTimeout bounds every task's context. Zero means no bound.
func WithTaskTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.timeout = d
	}
}

// WithLogger logs failed and panicking tasks.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...Option) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		base:   ctx,
		cancel: cancel,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Go runs fn in its own goroutine. The task context is detached from any
// request and is cancelled only by its timeout or by Shutdown.
func (r *Runner) Go(name string, fn func(ctx context.Context) error) *Future {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return failed(ErrRunnerClosed)
	}

	r.wg.Add(1)
	r.started.Add(1)
	f := &Future{done: make(chan struct{})}

	go func() {
		defer r.wg.Done()
		defer close(f.done)

		ctx := r.base
		if r.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.timeout)
			defer cancel()
		}

		defer func() {
			if p := recover(); p != nil {
				f.err = fmt.Errorf("async: task %s panicked: %v", name, p)
				r.failures.Add(1)
				r.logger.Error("background task panicked", slog.String("task", name), slog.Any("panic", p))
			}
		}()

		if f.err = fn(ctx); f.err != nil {
			r.failures.Add(1)
			r.logger.Warn("background task failed", slog.String("task", name), slog.String("error", f.err.Error()))
		}
	}()

	return f
}

// Shutdown stops accepting tasks and waits for running ones until ctx is
// done, at which point the remaining tasks are cancelled.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		return nil
	case <-ctx.Done():
		r.cancel()
		return errors.Join(ErrShutdownTimed, ctx.Err())
	}
}

// Stats reports how many tasks were started and how many failed.
func (r *Runner) Stats() (started, failed int64) {
	return r.started.Load(), r.failures.Load()
}
