package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dustebin/core/handler"
	"github.com/dmitrymomot/dustebin/core/logger"
	"github.com/dmitrymomot/dustebin/core/response"
	"github.com/dmitrymomot/dustebin/core/router"
	"github.com/dmitrymomot/dustebin/middleware"
	"github.com/dmitrymomot/dustebin/pkg/ratelimiter"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestClock() *testClock {
	return &testClock{now: time.UnixMilli(1_700_000_000_500)}
}

func newService(t *testing.T, perMinute, perHour int, clock *testClock) *ratelimiter.Service {
	t.Helper()

	cfg := ratelimiter.DefaultConfig()
	cfg.RequestsPerMinute = perMinute
	cfg.PastesPerHour = perHour

	svc, err := ratelimiter.NewService(cfg, ratelimiter.WithClock(clock.Now))
	require.NoError(t, err)
	return svc
}

func newLimitedRouter(svc *ratelimiter.Service) router.Router[*router.Context] {
	r := router.New[*router.Context](router.WithErrorHandler(response.JSONErrorHandler[*router.Context]))
	r.Use(
		middleware.ClientIP[*router.Context](),
		middleware.RateLimit[*router.Context](middleware.RateLimitConfig{
			Name:   "requests",
			Check:  svc.CheckRequestLimit,
			Logger: logger.Discard(),
		}),
	)

	r.Get("/api/pastes/{id}", func(ctx *router.Context) handler.Response {
		return response.JSON(map[string]string{"id": ctx.Param("id")})
	})
	r.With(middleware.RateLimit[*router.Context](middleware.RateLimitConfig{
		Name:   "paste_creations",
		Check:  svc.CheckPasteCreationLimit,
		Logger: logger.Discard(),
	})).Post("/api/pastes", func(ctx *router.Context) handler.Response {
		return response.JSONWithStatus(map[string]string{"id": "abcd1234.txt"}, http.StatusCreated)
	})
	r.Get("/api/boom", func(ctx *router.Context) handler.Response {
		return response.Error(response.ErrNotFound)
	})
	return r
}

func do(r http.Handler, method, path, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = ip + ":54321"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit_RequestLimiter(t *testing.T) {
	t.Parallel()

	clock := newTestClock()
	r := newLimitedRouter(newService(t, 3, 30, clock))

	for i := range 3 {
		w := do(r, http.MethodGet, "/api/pastes/abc", "192.0.2.10")
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
		assert.Equal(t, "3", w.Header().Get(ratelimiter.HeaderLimit))
		assert.Equal(t, strconv.Itoa(2-i), w.Header().Get(ratelimiter.HeaderRemaining))
		assert.Equal(t, "1700000061", w.Header().Get(ratelimiter.HeaderReset))
		assert.Empty(t, w.Header().Get(ratelimiter.HeaderRetryAfter))
	}

	w := do(r, http.MethodGet, "/api/pastes/abc", "192.0.2.10")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get(ratelimiter.HeaderRemaining))
	assert.Equal(t, "60", w.Header().Get(ratelimiter.HeaderRetryAfter))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "too_many_requests", body["code"])
	assert.Equal(t, float64(60), body["details"].(map[string]any)["retry_after"])

	t.Run("other clients are unaffected", func(t *testing.T) {
		w := do(r, http.MethodGet, "/api/pastes/abc", "192.0.2.11")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("block holds for a full window", func(t *testing.T) {
		clock.Advance(30 * time.Second)
		w := do(r, http.MethodGet, "/api/pastes/abc", "192.0.2.10")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "30", w.Header().Get(ratelimiter.HeaderRetryAfter))

		clock.Advance(30 * time.Second)
		w = do(r, http.MethodGet, "/api/pastes/abc", "192.0.2.10")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get(ratelimiter.HeaderRemaining))
	})
}

func TestRateLimit_CreationLimiter(t *testing.T) {
	t.Parallel()

	clock := newTestClock()
	r := newLimitedRouter(newService(t, 100, 2, clock))

	for range 2 {
		w := do(r, http.MethodPost, "/api/pastes", "198.51.100.7")
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := do(r, http.MethodPost, "/api/pastes", "198.51.100.7")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get(ratelimiter.HeaderLimit), "creation headers override request headers")
	assert.Equal(t, "3600", w.Header().Get(ratelimiter.HeaderRetryAfter))

	w = do(r, http.MethodGet, "/api/pastes/abc", "198.51.100.7")
	assert.Equal(t, http.StatusOK, w.Code, "reads are not bound by the creation quota")
	assert.Equal(t, "100", w.Header().Get(ratelimiter.HeaderLimit))
}

func TestRateLimit_HeadersOnErrors(t *testing.T) {
	t.Parallel()

	r := newLimitedRouter(newService(t, 5, 5, newTestClock()))

	w := do(r, http.MethodGet, "/api/boom", "203.0.113.1")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "4", w.Header().Get(ratelimiter.HeaderRemaining))
}

func TestRateLimit_SkipAndKey(t *testing.T) {
	t.Parallel()

	var keys []string
	r := router.New[*router.Context]()
	r.Use(middleware.RateLimit[*router.Context](middleware.RateLimitConfig{
		Check: func(key string) ratelimiter.Result {
			keys = append(keys, key)
			return ratelimiter.Result{Limit: 1, Remaining: 0, Limited: true, RetryAfter: time.Second}
		},
		KeyExtractor: func(ctx handler.Context) string { return ctx.Request().Header.Get("X-Key") },
		Skip:         func(ctx handler.Context) bool { return ctx.Request().URL.Path == "/health" },
		Logger:       logger.Discard(),
	}))
	r.Get("/health", func(ctx *router.Context) handler.Response { return response.String("ok") })
	r.Get("/x", func(ctx *router.Context) handler.Response { return response.String("ok") })

	w := do(r, http.MethodGet, "/health", "192.0.2.1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get(ratelimiter.HeaderLimit))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Key", "tenant-1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get(ratelimiter.HeaderRetryAfter))
	assert.Equal(t, []string{"tenant-1"}, keys)
}

func TestRateLimit_PanicsWithoutCheck(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		middleware.RateLimit[*router.Context](middleware.RateLimitConfig{})
	})
}
