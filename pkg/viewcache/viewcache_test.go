package viewcache_test

import (
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/dustebin/pkg/viewcache"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCache_ShouldCount(t *testing.T) {
	t.Parallel()

	t.Run("first view counts, repeats within window do not", func(t *testing.T) {
		clk := &clock{now: time.UnixMilli(1_000_000)}
		c := viewcache.New(viewcache.WithClock(clk.Now))

		assert.True(t, c.ShouldCount("abc"))

		clk.Advance(500 * time.Millisecond)
		assert.False(t, c.ShouldCount("abc"))

		clk.Advance(1500 * time.Millisecond)
		assert.False(t, c.ShouldCount("abc"), "exactly one window later is still debounced")

		clk.Advance(time.Millisecond)
		assert.True(t, c.ShouldCount("abc"))
	})

	t.Run("suppressed views do not extend the window", func(t *testing.T) {
		clk := &clock{now: time.UnixMilli(1_000_000)}
		c := viewcache.New(viewcache.WithClock(clk.Now))

		assert.True(t, c.ShouldCount("abc"))
		clk.Advance(1900 * time.Millisecond)
		assert.False(t, c.ShouldCount("abc"))
		clk.Advance(101 * time.Millisecond)
		assert.True(t, c.ShouldCount("abc"))
	})

	t.Run("ids are independent", func(t *testing.T) {
		clk := &clock{now: time.UnixMilli(1_000_000)}
		c := viewcache.New(viewcache.WithClock(clk.Now))

		assert.True(t, c.ShouldCount("a"))
		assert.True(t, c.ShouldCount("b"))
		assert.False(t, c.ShouldCount("a"))
	})

	t.Run("forget resets the id", func(t *testing.T) {
		c := viewcache.New()

		assert.True(t, c.ShouldCount("a"))
		c.Forget("a")
		assert.True(t, c.ShouldCount("a"))
	})
}

func TestCache_Eviction(t *testing.T) {
	t.Parallel()

	t.Run("evicts entries older than ten windows once the table is over capacity", func(t *testing.T) {
		clk := &clock{now: time.UnixMilli(1_000_000)}
		c := viewcache.New(viewcache.WithClock(clk.Now), viewcache.WithMaxEntries(5))

		for i := range 5 {
			c.ShouldCount("old-" + strconv.Itoa(i))
		}
		assert.Equal(t, 5, c.Len())

		clk.Advance(20*time.Second + time.Millisecond)
		c.ShouldCount("recent")
		assert.Equal(t, 1, c.Len())
		assert.Equal(t, int64(5), c.Stats().Evicted)
	})

	t.Run("keeps entries within ten windows", func(t *testing.T) {
		clk := &clock{now: time.UnixMilli(1_000_000)}
		c := viewcache.New(viewcache.WithClock(clk.Now), viewcache.WithMaxEntries(2))

		c.ShouldCount("a")
		c.ShouldCount("b")
		clk.Advance(20 * time.Second)
		c.ShouldCount("c")

		assert.Equal(t, 3, c.Len())
	})

	t.Run("no eviction at or below capacity", func(t *testing.T) {
		clk := &clock{now: time.UnixMilli(1_000_000)}
		c := viewcache.NewFromConfig(viewcache.Config{Window: 2 * time.Second, MaxEntries: 3}, viewcache.WithClock(clk.Now))

		c.ShouldCount("a")
		c.ShouldCount("b")
		clk.Advance(time.Hour)
		c.ShouldCount("c")

		assert.Equal(t, 3, c.Len())
	})
}

func TestCache_Concurrent(t *testing.T) {
	t.Parallel()

	c := viewcache.New(viewcache.WithWindow(time.Hour))

	var (
		counted atomic.Int64
		wg      sync.WaitGroup
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.ShouldCount("hot") {
				counted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), counted.Load())
}
