// Package handler defines the typed handler contract shared by the router,
// the response helpers and the middleware.
//
// A handler receives a request Context and returns a Response. The Response
// is a deferred render step: the router calls it with the writer and hands
// any error it returns to the ErrorHandler, so handlers never write error
// bodies themselves.
//
//	func (h *Handler) get(ctx *router.Context) handler.Response {
//		view, err := h.pastes.Get(ctx, ctx.Param("id"), password)
//		if err != nil {
//			return response.Error(err)
//		}
//		return response.JSON(view)
//	}
//
// Middleware wraps a HandlerFunc and may short-circuit by returning its own
// Response, or decorate the one returned by next:
//
//	func Stamp[C handler.Context]() handler.Middleware[C] {
//		return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
//			return func(ctx C) handler.Response {
//				resp := next(ctx)
//				return func(w http.ResponseWriter, r *http.Request) error {
//					w.Header().Set("X-Served-By", "dustebin")
//					return resp(w, r)
//				}
//			}
//		}
//	}
//
// Headers must be set before the wrapped Response runs, because it writes
// the status line.
package handler
