// Package router provides a typed HTTP router on top of go-chi/chi.
//
// Handlers receive a custom context type C and return a handler.Response.
// Errors returned while rendering, unknown routes, disallowed methods and
// recovered panics all go through a single error handler.
//
// # Basic Usage
//
//	r := router.New[*router.Context](
//		router.WithErrorHandler(response.JSONErrorHandler[*router.Context]),
//		router.WithLogger[*router.Context](log),
//	)
//
//	r.Use(middleware.RequestID[*router.Context]())
//
//	r.Route("/api", func(r router.Router[*router.Context]) {
//		r.Get("/pastes/{id}", func(ctx *router.Context) handler.Response {
//			return response.JSON(map[string]string{"id": ctx.Param("id")})
//		})
//	})
//
//	http.ListenAndServe(":8080", r)
//
// # Middleware
//
// Use adds middleware for every route registered afterwards on the same
// router and must be called before the first route. With returns an
// inline router that adds middleware to a subset of routes:
//
//	r.With(createLimit).Post("/api/pastes", createPaste)
//
// # Custom Contexts
//
// Any type implementing handler.Context can be used when a factory is provided:
//
//	r := router.New[*app.Context](router.WithContextFactory(app.NewContext))
//
// Without a factory only *router.Context is supported.
//
// # Panics
//
// Panics in handlers are recovered and passed to the error handler as a
// PanicError carrying the panic value and stack. If the response was already
// written the panic is only logged.
package router
