package server

import "time"

const (
	DefaultReadHeaderTimeout = 5 * time.Second
	DefaultReadTimeout       = 30 * time.Second

	// DefaultWriteTimeout must outlast the metadata event stream.
	DefaultWriteTimeout = 45 * time.Second

	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultMaxHeaderBytes  = 64 << 10
)
