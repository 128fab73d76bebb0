package handler

import "net/http"

// Response renders the outcome of a handler. A returned error means nothing
// usable was written and goes to the router's ErrorHandler.
type Response func(w http.ResponseWriter, r *http.Request) error

// HandlerFunc handles one request with a typed context.
type HandlerFunc[C Context] func(ctx C) Response

// ErrorHandler renders errors returned by a Response.
type ErrorHandler[C Context] func(ctx C, err error)

// Middleware wraps a HandlerFunc.
type Middleware[C Context] func(next HandlerFunc[C]) HandlerFunc[C]
