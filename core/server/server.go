package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/dustebin/core/logger"
)

// Server runs one http.Server at a time. Request contexts derive from a
// base context that is canceled when shutdown begins, so long-lived
// responses such as event streams end instead of holding shutdown open.
type Server struct {
	mu       sync.Mutex
	addr     string
	bound    string
	server   *http.Server
	cancel   context.CancelFunc
	done     chan struct{}
	logger   *slog.Logger
	shutdown time.Duration
	tuning   http.Server
	tls      *tls.Config
}

// New creates a Server listening on addr once started.
func New(addr string, opts ...Option) *Server {
	s := &Server{
		addr:     addr,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		shutdown: DefaultShutdownTimeout,
		tuning: http.Server{
			ReadHeaderTimeout: DefaultReadHeaderTimeout,
			ReadTimeout:       DefaultReadTimeout,
			WriteTimeout:      DefaultWriteTimeout,
			IdleTimeout:       DefaultIdleTimeout,
			MaxHeaderBytes:    DefaultMaxHeaderBytes,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds the listener and serves until ctx is canceled or serving
// fails. It returns ctx.Err() on cancellation; call Stop to drain.
func (s *Server) Start(ctx context.Context, h http.Handler) error {
	s.mu.Lock()
	if s.server != nil {
		s.mu.Unlock()
		return ErrServerAlreadyRunning
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s: %w", ErrListen, s.addr, err)
	}
	if s.tls != nil {
		ln = tls.NewListener(ln, s.tls)
	}

	base, cancel := context.WithCancel(context.WithoutCancel(ctx))
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: s.tuning.ReadHeaderTimeout,
		ReadTimeout:       s.tuning.ReadTimeout,
		WriteTimeout:      s.tuning.WriteTimeout,
		IdleTimeout:       s.tuning.IdleTimeout,
		MaxHeaderBytes:    s.tuning.MaxHeaderBytes,
		BaseContext:       func(net.Listener) context.Context { return base },
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	done := make(chan struct{})
	s.server, s.cancel, s.done = srv, cancel, done
	s.bound = ln.Addr().String()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "http server listening",
		logger.Component("http_server"),
		slog.String("addr", s.bound),
		slog.Bool("tls", s.tls != nil))

	errCh := make(chan error, 1)
	go func() {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.reset(srv)
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop cancels in-flight request contexts and waits up to the shutdown
// timeout for handlers to return. A server that is not running is a no-op.
func (s *Server) Stop() error {
	s.mu.Lock()
	srv, cancel, done := s.server, s.cancel, s.done
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	defer s.reset(srv)

	s.logger.Info("http server shutting down",
		logger.Component("http_server"),
		slog.Duration("timeout", s.shutdown))

	cancel()
	ctx, stop := context.WithTimeout(context.Background(), s.shutdown)
	defer stop()

	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Error("http server shutdown", logger.Component("http_server"), logger.Error(err))
		_ = srv.Close()
		return err
	}
	<-done

	s.logger.Info("http server stopped", logger.Component("http_server"))
	return nil
}

// Run returns an errgroup function: serve until ctx is canceled, then Stop.
func (s *Server) Run(ctx context.Context, h http.Handler) func() error {
	return func() error {
		err := s.Start(ctx, h)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return s.Stop()
		}
		return err
	}
}

// Addr is the bound address while running, the configured one otherwise.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		return s.bound
	}
	return s.addr
}

func (s *Server) reset(srv *http.Server) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == srv {
		s.server, s.cancel, s.done, s.bound = nil, nil, nil, ""
	}
}
