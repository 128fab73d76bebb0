package binder

import "net/http"

// Binder fills v from a part of r.
type Binder func(r *http.Request, v any) error

// All applies binders in order and stops at the first error.
func All(r *http.Request, v any, binders ...Binder) error {
	for _, b := range binders {
		if err := b(r, v); err != nil {
			return err
		}
	}
	return nil
}
