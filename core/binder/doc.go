// Package binder maps HTTP request data onto Go structs.
//
// Three binders are provided:
//
//	binder.JSON(maxSize)      // application/json body, strict decoding
//	binder.Query()            // URL query, `query:"name"` tags
//	binder.Path(chi.URLParam) // URL parameters, `path:"name"` tags
//
// Combine them with All:
//
//	var req struct {
//		ID       string `path:"id"`
//		Format   string `query:"format"`
//		Password string `query:"password"`
//	}
//	if err := binder.All(r, &req, binder.Path(chi.URLParam), binder.Query()); err != nil {
//		return response.Error(response.ErrBadRequest.WithError(err))
//	}
//
// JSON keeps string values verbatim; query and path values are stripped of
// NUL bytes, line breaks and other control characters. Untagged fields bind
// to their lowercased Go name.
package binder
