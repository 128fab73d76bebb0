package binder

import (
	"fmt"
	"net/http"
)

// Path binds URL path parameters by `path` tag, reading them through
// extractor, typically chi.URLParam. Empty parameters are treated as absent.
//
//	type pasteParams struct {
//		ID string `path:"id"`
//	}
//	err := binder.Path(chi.URLParam)(r, &p)
func Path(extractor func(r *http.Request, name string) string) Binder {
	return func(r *http.Request, v any) error {
		if extractor == nil {
			return fmt.Errorf("%w: nil extractor", ErrFailedToParsePath)
		}
		return bindFields(v, "path", func(name string) (string, bool) {
			s := extractor(r, name)
			return s, s != ""
		}, ErrFailedToParsePath)
	}
}
