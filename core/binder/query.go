package binder

import "net/http"

// Query binds URL query parameters by `query` tag. The first value of a
// repeated parameter wins. Strings are stripped of control characters.
//
//	type rawQuery struct {
//		Password *string `query:"password"`
//		Confirm  bool    `query:"confirm"`
//	}
func Query() Binder {
	return func(r *http.Request, v any) error {
		q := r.URL.Query()
		return bindFields(v, "query", func(name string) (string, bool) {
			vals, ok := q[name]
			if !ok || len(vals) == 0 {
				return "", false
			}
			return vals[0], true
		}, ErrFailedToParseQuery)
	}
}
