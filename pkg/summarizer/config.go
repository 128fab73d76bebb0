package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/dustebin/core/logger"
)

// Providers accepted by Config.Provider.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"
)

// Config selects and tunes the AI provider.
type Config struct {
	Provider          string        `env:"AI_PROVIDER" envDefault:"gemini"`
	GeminiAPIKey      string        `env:"GEMINI_API_KEY"`
	GeminiModel       string        `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	OpenAIAPIKey      string        `env:"OPENAI_API_KEY"`
	OpenAIModel       string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	RequestsPerMinute int           `env:"AI_REQUESTS_PER_MINUTE" envDefault:"30"`
	Burst             int           `env:"AI_BURST" envDefault:"5"`
	Timeout           time.Duration `env:"AI_TIMEOUT" envDefault:"20s"`
	CacheTTL          time.Duration `env:"AI_CACHE_TTL" envDefault:"24h"`
}

// New assembles Fallback(Cached(Throttled(provider))). The cache layer is
// skipped when store is nil. A provider without an API key degrades to the
// fallback summary with a warning.
func New(ctx context.Context, cfg Config, store Store, log *slog.Logger) (Summarizer, error) {
	if log == nil {
		log = logger.Discard()
	}

	provider, err := newProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		log.WarnContext(ctx, "AI summaries disabled",
			logger.Component("summarizer"),
			slog.String("provider", cfg.Provider),
		)
		return NewFallback(nil, log), nil
	}

	var s Summarizer = WithTimeout(provider, cfg.Timeout)
	s = NewThrottled(s, cfg.RequestsPerMinute, cfg.Burst)
	if store != nil {
		s = NewCached(s, store, WithCacheTTL(cfg.CacheTTL), WithCacheLogger(log))
	}

	log.InfoContext(ctx, "AI summaries enabled",
		logger.Component("summarizer"),
		slog.String("provider", cfg.Provider),
		slog.Bool("cache", store != nil),
	)
	return NewFallback(s, log), nil
}

func newProvider(ctx context.Context, cfg Config) (Summarizer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderGemini, "":
		if cfg.GeminiAPIKey == "" {
			return nil, nil
		}
		return NewGoogle(ctx, cfg.GeminiAPIKey, WithGoogleModel(cfg.GeminiModel))
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, nil
		}
		return NewOpenAI(cfg.OpenAIAPIKey, WithOpenAIModel(cfg.OpenAIModel))
	case ProviderNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}
