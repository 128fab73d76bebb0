package health

import (
	"github.com/dmitrymomot/dustebin/core/handler"
	"github.com/dmitrymomot/dustebin/core/response"
)

// Liveness answers 200 "ALIVE" without touching dependencies.
func Liveness[C handler.Context](C) handler.Response {
	return response.String("ALIVE")
}
