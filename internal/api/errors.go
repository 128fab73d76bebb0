package api

import (
	"errors"

	"github.com/dmitrymomot/dustebin/core/binder"
	"github.com/dmitrymomot/dustebin/core/response"
	"github.com/dmitrymomot/dustebin/internal/paste"
	"github.com/dmitrymomot/dustebin/middleware"
)

const burnConfirmationMessage = "This paste is configured for burn-after-reading. " +
	"To view it, you must confirm that you understand it will be permanently deleted after viewing. " +
	"Add ?confirm=true to the URL to proceed."

// httpError maps domain and binding errors to their HTTP representation.
// ok is false for unexpected errors, which render as 500.
func httpError(err error) (herr response.HTTPError, ok bool) {
	var verr *paste.ValidationError
	if errors.As(err, &verr) {
		details := make(map[string]any, len(verr.Fields))
		for k, v := range verr.Fields {
			details[k] = v
		}
		return response.ErrBadRequest.WithMessage("Invalid request").WithDetails(details), true
	}

	switch {
	case errors.Is(err, paste.ErrNotFound):
		return response.ErrNotFound.WithMessage("Paste not found"), true
	case errors.Is(err, paste.ErrExpired):
		return response.ErrGone.WithMessage("Paste has expired"), true
	case errors.Is(err, paste.ErrPasswordRequired):
		return response.ErrUnauthorized.WithMessage("Password required"), true
	case errors.Is(err, paste.ErrIncorrectPassword):
		return response.ErrUnauthorized.WithMessage("Incorrect password"), true
	case errors.Is(err, paste.ErrBurnConfirmationRequired):
		return response.ErrForbidden.WithMessage(burnConfirmationMessage), true
	case errors.Is(err, paste.ErrNotBurnable):
		return response.ErrBadRequest.WithMessage("This paste is not configured for burn-after-reading"), true
	case errors.Is(err, paste.ErrNotImage):
		return response.ErrBadRequest.WithMessage("Not an image paste"), true
	case errors.Is(err, paste.ErrImagesDisabled):
		return response.ErrServiceUnavailable.WithMessage("Image storage is not configured"), true
	case errors.Is(err, binder.ErrBodyTooLarge), errors.Is(err, middleware.ErrBodyTooLarge):
		return response.ErrRequestEntityTooLarge.WithMessage("Request body too large"), true
	case errors.Is(err, binder.ErrUnsupportedMediaType), errors.Is(err, binder.ErrMissingContentType):
		return response.ErrUnsupportedMediaType.WithMessage("Expected application/json"), true
	case errors.Is(err, binder.ErrFailedToParseJSON):
		return response.ErrBadRequest.WithMessage("Invalid JSON body"), true
	case errors.Is(err, binder.ErrFailedToParseQuery), errors.Is(err, binder.ErrFailedToParsePath):
		return response.ErrBadRequest.WithMessage("Invalid request parameters"), true
	}
	return response.HTTPError{}, false
}
