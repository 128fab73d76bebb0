// Package viewcache suppresses repeated view counts for the same item within
// a short window. It is advisory: state is process-local and lost on restart.
package viewcache

import (
	"sync"
	"sync/atomic"
	"time"
)

// Config holds the debounce settings loaded from the environment.
type Config struct {
	Window     time.Duration `env:"VIEW_DEBOUNCE_WINDOW" envDefault:"2s"`
	MaxEntries int           `env:"VIEW_DEBOUNCE_MAX_ENTRIES" envDefault:"1000"`
}

// Cache remembers when each id was last counted.
type Cache struct {
	mu      sync.Mutex
	entries map[string]int64

	window     int64
	maxEntries int
	clock      func() time.Time

	evicted atomic.Int64
}

// Stats describes the current cache state.
type Stats struct {
	Entries int
	Evicted int64
}

// Option configures a Cache.
type Option func(*Cache)

// WithWindow sets the debounce window.
func WithWindow(window time.Duration) Option {
	return func(c *Cache) {
		if window > 0 {
			c.window = window.Milliseconds()
		}
	}
}

// WithMaxEntries sets the table size above which stale entries are evicted.
func WithMaxEntries(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// WithClock replaces the time source. Intended for tests.
func WithClock(clock func() time.Time) Option {
	return func(c *Cache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// New creates a cache with a 2 second window and a 1000 entry eviction threshold.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:    make(map[string]int64),
		window:     2000,
		maxEntries: 1000,
		clock:      time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewFromConfig creates a cache from cfg.
func NewFromConfig(cfg Config, opts ...Option) *Cache {
	base := []Option{WithWindow(cfg.Window), WithMaxEntries(cfg.MaxEntries)}
	return New(append(base, opts...)...)
}

// ShouldCount reports whether a view of id should be counted. It returns true
// when id was never counted or its last count is older than the window, and
// records the current time in that case.
func (c *Cache) ShouldCount(id string) bool {
	now := c.clock().UnixMilli()

	c.mu.Lock()
	defer c.mu.Unlock()

	if last, ok := c.entries[id]; ok && now-last <= c.window {
		return false
	}

	c.entries[id] = now

	if len(c.entries) > c.maxEntries {
		c.evictStale(now)
	}

	return true
}

// Forget drops id, e.g. after the item was deleted.
func (c *Cache) Forget(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// Len returns the number of remembered ids.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns the current entry count and total evictions.
func (c *Cache) Stats() Stats {
	return Stats{Entries: c.Len(), Evicted: c.evicted.Load()}
}

// evictStale removes entries older than ten windows. Callers hold c.mu.
func (c *Cache) evictStale(now int64) {
	horizon := 10 * c.window
	removed := 0
	for id, ts := range c.entries {
		if now-ts > horizon {
			delete(c.entries, id)
			removed++
		}
	}
	c.evicted.Add(int64(removed))
}
