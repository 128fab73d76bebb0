package handler

import (
	"context"
	"net/http"
)

// Context is what handlers and middleware see of a request. It is also a
// context.Context, so it can be passed straight to services.
type Context interface {
	context.Context
	Request() *http.Request
	ResponseWriter() http.ResponseWriter
	// Param returns a path parameter, "" when absent.
	Param(key string) string
	// SetValue stores a request scoped value readable through Value.
	SetValue(key, val any)
}
