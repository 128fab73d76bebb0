package summarizer

import "errors"

var (
	ErrInvalidAPIKey        = errors.New("invalid or missing API key")
	ErrClientCreationFailed = errors.New("failed to create API client")
	ErrGenerationFailed     = errors.New("failed to generate summary")
	ErrInvalidResponse      = errors.New("invalid summary response")
	ErrEmptySummary         = errors.New("empty summary returned")
	ErrUnknownProvider      = errors.New("unknown AI provider")
)
