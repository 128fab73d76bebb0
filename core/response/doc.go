// Package response builds handler.Response values for JSON, plain text,
// binary, redirect and Server-Sent Events responses, and renders errors.
//
// # Basic Usage
//
//	func getPaste(ctx *router.Context) handler.Response {
//		p, err := svc.Get(ctx, ctx.Param("id"), "")
//		if err != nil {
//			return response.Error(err)
//		}
//		return response.JSON(p)
//	}
//
// # Errors
//
// Handlers return response.Error(err) and the router's error handler renders
// it. HTTPError values carry a status, a machine-readable code, a message and
// optional details:
//
//	return response.Error(response.ErrTooManyRequests.WithDetails(map[string]any{
//		"retry_after": 60,
//	}))
//
// JSONErrorHandler renders any error as {"code","message","details"}. Errors
// that are not HTTPError but implement StatusCode() int keep their status;
// everything else becomes 500.
//
// # Decorators
//
//	response.WithHeaders(resp, map[string]string{"X-Burn-After-Reading": "true"})
//	response.WithCache(resp, 0)          // no-store
//	response.WithCache(resp, time.Hour)  // public, max-age=3600
//	response.Attachment(resp, "dustebin-abc.png")
//
// # Server-Sent Events
//
//	events := make(chan any)
//	return response.SSE(events, response.WithKeepAlive(15*time.Second))
//
// The stream ends when the channel is closed or the client disconnects.
package response
