package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/dustebin/core/logger"
)

// Store persists summaries by key.
type Store interface {
	// Get returns found=false when the key is absent.
	Get(ctx context.Context, key string) (s Summary, found bool, err error)
	Set(ctx context.Context, key string, s Summary, ttl time.Duration) error
}

// Cached memoizes summaries of identical content. Store failures are logged
// and never fail a call.
type Cached struct {
	next   Summarizer
	store  Store
	ttl    time.Duration
	logger *slog.Logger
}

// CachedOption configures Cached.
type CachedOption func(*Cached)

// WithCacheTTL sets how long summaries are kept.
func WithCacheTTL(ttl time.Duration) CachedOption {
	return func(c *Cached) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCacheLogger sets the logger used for store failures.
func WithCacheLogger(l *slog.Logger) CachedOption {
	return func(c *Cached) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCached wraps next with store.
func NewCached(next Summarizer, store Store, opts ...CachedOption) *Cached {
	c := &Cached{
		next:   next,
		store:  store,
		ttl:    24 * time.Hour,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CacheKey derives the store key for content written in language.
func CacheKey(content, language string) string {
	h := xxhash.New()
	_, _ = h.WriteString(language)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(content)
	return "summary:" + strconv.FormatUint(h.Sum64(), 16)
}

func (c *Cached) Summarize(ctx context.Context, content, language string) (Summary, error) {
	key := CacheKey(content, language)

	if s, ok, err := c.store.Get(ctx, key); err != nil {
		c.logger.WarnContext(ctx, "summary cache read failed", logger.Key("key", key), logger.Error(err))
	} else if ok {
		return s, nil
	}

	s, err := c.next.Summarize(ctx, content, language)
	if err != nil {
		return Summary{}, err
	}

	if err := c.store.Set(ctx, key, s, c.ttl); err != nil {
		c.logger.WarnContext(ctx, "summary cache write failed", logger.Key("key", key), logger.Error(err))
	}
	return s, nil
}

// RedisStore keeps summaries as JSON strings in Redis.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore creates a Store backed by client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Get(ctx context.Context, key string) (Summary, bool, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Summary{}, false, nil
	}
	if err != nil {
		return Summary{}, false, err
	}

	var s Summary
	if err := json.Unmarshal(raw, &s); err != nil {
		return Summary{}, false, err
	}
	return s, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, s Summary, ttl time.Duration) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, raw, ttl).Err()
}
