package ratelimiter

import "errors"

// Package-level error definitions for rate limiter operations.
var (
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrInvalidAlgorithm  = errors.New("invalid algorithm")
	ErrReaperRunning     = errors.New("reaper already started")
	ErrReaperNotRunning  = errors.New("reaper not started")
	ErrReaperUnhealthy   = errors.New("reaper is configured but not running")
	ErrShutdownTimeout   = errors.New("reaper shutdown timeout exceeded")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)
