package router_test

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dustebin/core/handler"
	"github.com/dmitrymomot/dustebin/core/router"
)

func text(body string) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(body))
		return err
	}
}

func tag(name string) handler.Middleware[*router.Context] {
	return func(next handler.HandlerFunc[*router.Context]) handler.HandlerFunc[*router.Context] {
		return func(ctx *router.Context) handler.Response {
			resp := next(ctx)
			return func(w http.ResponseWriter, r *http.Request) error {
				w.Header().Add("X-Trace", name)
				return resp(w, r)
			}
		}
	}
}

func serve(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestRouter_Params(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Route("/api", func(r router.Router[*router.Context]) {
		r.Get("/pastes/{id}", func(ctx *router.Context) handler.Response {
			return text(ctx.Param("id"))
		})
	})

	w := serve(t, r, http.MethodGet, "/api/pastes/abc12345.py")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc12345.py", w.Body.String())
}

func TestRouter_Middleware(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Use(tag("root"))
	r.Get("/plain", func(ctx *router.Context) handler.Response { return text("plain") })
	r.With(tag("inline")).Get("/inline", func(ctx *router.Context) handler.Response { return text("inline") })
	r.Route("/sub", func(sr router.Router[*router.Context]) {
		sr.Use(tag("sub"))
		sr.Get("/", func(ctx *router.Context) handler.Response { return text("sub") })
	})

	assert.Equal(t, []string{"root"}, serve(t, r, http.MethodGet, "/plain").Header().Values("X-Trace"))
	assert.Equal(t, []string{"root", "inline"}, serve(t, r, http.MethodGet, "/inline").Header().Values("X-Trace"))
	assert.Equal(t, []string{"root", "sub"}, serve(t, r, http.MethodGet, "/sub/").Header().Values("X-Trace"))
}

func TestRouter_UseAfterRoutesPanics(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Get("/", func(ctx *router.Context) handler.Response { return text("ok") })

	assert.Panics(t, func() { r.Use(tag("late")) })
}

func TestRouter_Errors(t *testing.T) {
	t.Parallel()

	t.Run("not found and method not allowed", func(t *testing.T) {
		r := router.New[*router.Context]()
		r.Get("/only-get", func(ctx *router.Context) handler.Response { return text("ok") })

		assert.Equal(t, http.StatusNotFound, serve(t, r, http.MethodGet, "/missing").Code)
		assert.Equal(t, http.StatusMethodNotAllowed, serve(t, r, http.MethodPost, "/only-get").Code)
	})

	t.Run("custom error handler receives render errors", func(t *testing.T) {
		var got error
		r := router.New[*router.Context](router.WithErrorHandler(func(ctx *router.Context, err error) {
			got = err
			ctx.ResponseWriter().WriteHeader(http.StatusTeapot)
		}))
		boom := errors.New("boom")
		r.Get("/", func(ctx *router.Context) handler.Response {
			return func(w http.ResponseWriter, r *http.Request) error { return boom }
		})

		w := serve(t, r, http.MethodGet, "/")
		assert.Equal(t, http.StatusTeapot, w.Code)
		assert.ErrorIs(t, got, boom)
	})

	t.Run("nil response", func(t *testing.T) {
		r := router.New[*router.Context]()
		r.Get("/", func(ctx *router.Context) handler.Response { return nil })

		w := serve(t, r, http.MethodGet, "/")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), router.ErrNilResponse.Error())
	})

	t.Run("panics are recovered", func(t *testing.T) {
		var perr router.PanicError
		r := router.New[*router.Context](router.WithErrorHandler(func(ctx *router.Context, err error) {
			require.ErrorAs(t, err, &perr)
			ctx.ResponseWriter().WriteHeader(http.StatusInternalServerError)
		}))
		r.Get("/", func(ctx *router.Context) handler.Response { panic("kaboom") })

		w := serve(t, r, http.MethodGet, "/")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		require.NotNil(t, perr)
		assert.Equal(t, "kaboom", perr.Value())
		assert.NotEmpty(t, perr.Stack())
	})
}

func TestRouter_LoggerOption(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	r := router.New[*router.Context](
		router.WithErrorHandler(func(ctx *router.Context, err error) {}),
		router.WithLogger[*router.Context](log),
	)
	r.Get("/", func(ctx *router.Context) handler.Response {
		return func(w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusOK)
			panic("after write")
		}
	})

	w := serve(t, r, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, buf.String(), "panic after response written")
}

func TestRouter_SetValueReachesResponse(t *testing.T) {
	t.Parallel()

	type key struct{}
	r := router.New[*router.Context]()
	r.Get("/", func(ctx *router.Context) handler.Response {
		ctx.SetValue(key{}, "stored")
		return func(w http.ResponseWriter, r *http.Request) error {
			_, err := w.Write([]byte(r.Context().Value(key{}).(string)))
			return err
		}
	})

	assert.Equal(t, "stored", serve(t, r, http.MethodGet, "/").Body.String())
}

func TestRouter_Routes(t *testing.T) {
	t.Parallel()

	r := router.New[*router.Context]()
	r.Get("/a", func(ctx *router.Context) handler.Response { return text("a") })
	r.Method("/b", func(ctx *router.Context) handler.Response { return text("b") }, "post", "PUT")

	var patterns []string
	for _, rt := range r.Routes() {
		patterns = append(patterns, rt.Method+" "+rt.Pattern)
	}
	joined := strings.Join(patterns, ",")
	assert.Contains(t, joined, "GET /a")
	assert.Contains(t, joined, "POST /b")
	assert.Contains(t, joined, "PUT /b")

	assert.Panics(t, func() {
		r.Method("/c", func(ctx *router.Context) handler.Response { return text("c") }, "BREW")
	})
}
