package server

import (
	"crypto/tls"
	"log/slog"
	"time"
)

// Option configures a Server.
type Option func(*Server)

// WithTLS serves HTTPS with config. Most deployments terminate TLS at the
// proxy and leave this unset.
func WithTLS(config *tls.Config) Option {
	return func(s *Server) { s.tls = config }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithShutdownTimeout bounds how long Stop waits for handlers.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) { s.shutdown = d }
}

// WithTimeouts overrides the read, write and idle timeouts. Zero values
// keep the current setting.
func WithTimeouts(read, write, idle time.Duration) Option {
	return func(s *Server) {
		if read > 0 {
			s.tuning.ReadTimeout = read
		}
		if write > 0 {
			s.tuning.WriteTimeout = write
		}
		if idle > 0 {
			s.tuning.IdleTimeout = idle
		}
	}
}

func WithReadHeaderTimeout(d time.Duration) Option {
	return func(s *Server) { s.tuning.ReadHeaderTimeout = d }
}

func WithMaxHeaderBytes(n int) Option {
	return func(s *Server) { s.tuning.MaxHeaderBytes = n }
}
