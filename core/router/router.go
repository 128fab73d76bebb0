package router

import (
	"net/http"

	"github.com/dmitrymomot/dustebin/core/handler"
)

// Router registers typed handlers on top of chi.
//
// Middleware added with Use applies to routes registered afterwards on the
// same router and its sub-routers, and only runs for matched routes.
type Router[C handler.Context] interface {
	http.Handler

	Get(pattern string, h handler.HandlerFunc[C])
	Post(pattern string, h handler.HandlerFunc[C])
	// Method registers h for each of methods, e.g. OPTIONS for preflights.
	Method(pattern string, h handler.HandlerFunc[C], methods ...string)

	Use(middlewares ...handler.Middleware[C])
	// With returns an inline router sharing the route table, for per-route
	// middleware such as the creation limiter.
	With(middlewares ...handler.Middleware[C]) Router[C]
	Route(pattern string, fn func(r Router[C])) Router[C]

	// Routes lists registered method and pattern pairs.
	Routes() []Route
}

type Route struct {
	Method  string
	Pattern string
}

func New[C handler.Context](opts ...Option[C]) Router[C] {
	return newMux[C](opts...)
}
