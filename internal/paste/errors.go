package paste

import "errors"

var (
	ErrNotFound                 = errors.New("paste not found")
	ErrExpired                  = errors.New("paste has expired")
	ErrPasswordRequired         = errors.New("password required")
	ErrIncorrectPassword        = errors.New("incorrect password")
	ErrBurnConfirmationRequired = errors.New("burn-after-reading confirmation required")
	ErrNotBurnable              = errors.New("paste is not configured for burn-after-reading")
	ErrNotImage                 = errors.New("not an image paste")
	ErrImagesDisabled           = errors.New("image uploads are not configured")
	ErrDuplicateID              = errors.New("paste id already exists")
	ErrDecompress               = errors.New("failed to decompress paste content")
)

// ValidationError describes invalid create input. Fields maps the offending
// field to a message.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "invalid paste input"
}

func newValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

func (e *ValidationError) add(field, msg string) {
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

var (
	ErrCleanerRunning         = errors.New("paste cleaner is already running")
	ErrCleanerNotRunning      = errors.New("paste cleaner is not running")
	ErrCleanerShutdownTimeout = errors.New("paste cleaner shutdown timeout")
	ErrCleanerUnhealthy       = errors.New("paste cleaner is not running")
)
