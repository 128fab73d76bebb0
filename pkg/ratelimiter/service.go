package ratelimiter

import (
	"fmt"
	"time"
)

// Window lengths of the two limiters owned by Service.
const (
	RequestWindow  = time.Minute
	CreationWindow = time.Hour
)

// Config holds the rate limiting settings loaded from the environment.
type Config struct {
	RequestsPerMinute     int           `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" envDefault:"60"`
	PastesPerHour         int           `env:"RATE_LIMIT_PASTES_PER_HOUR" envDefault:"30"`
	ReaperInterval        time.Duration `env:"RATE_LIMIT_REAPER_INTERVAL" envDefault:"5m"`
	ReaperShutdownTimeout time.Duration `env:"RATE_LIMIT_REAPER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute:     60,
		PastesPerHour:         30,
		ReaperInterval:        5 * time.Minute,
		ReaperShutdownTimeout: 10 * time.Second,
	}
}

// Service owns the per-IP request limiter (sliding window, one minute) and
// the per-IP paste creation limiter (fixed window, one hour). The two tables
// are independent.
type Service struct {
	requests  *Limiter
	creations *Limiter
}

// NewService builds both limiters from cfg. Options apply to both.
func NewService(cfg Config, opts ...Option) (*Service, error) {
	requests, err := NewLimiter("requests", SlidingWindow, cfg.RequestsPerMinute, RequestWindow, opts...)
	if err != nil {
		return nil, fmt.Errorf("request limiter: %w", err)
	}

	creations, err := NewLimiter("paste_creations", FixedWindow, cfg.PastesPerHour, CreationWindow, opts...)
	if err != nil {
		return nil, fmt.Errorf("creation limiter: %w", err)
	}

	return &Service{requests: requests, creations: creations}, nil
}

// CheckRequestLimit counts one API request from ip.
func (s *Service) CheckRequestLimit(ip string) Result {
	return s.requests.Check(ip)
}

// CheckPasteCreationLimit counts one paste creation from ip.
func (s *Service) CheckPasteCreationLimit(ip string) Result {
	return s.creations.Check(ip)
}

// Requests returns the request limiter.
func (s *Service) Requests() *Limiter { return s.requests }

// Creations returns the paste creation limiter.
func (s *Service) Creations() *Limiter { return s.creations }

// Limiters returns every table owned by the service, for the reaper.
func (s *Service) Limiters() []*Limiter {
	return []*Limiter{s.requests, s.creations}
}
