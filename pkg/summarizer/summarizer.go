package summarizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Limits applied to content sent to and titles received from providers.
const (
	MaxPromptChars     = 10_000
	LargeContentChars  = 900_000
	MaxTitleLength     = 100
	MaxDescriptionSize = 200
)

// Summary is a generated title and description for a paste.
type Summary struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Summarizer produces a Summary for paste content written in language.
type Summarizer interface {
	Summarize(ctx context.Context, content, language string) (Summary, error)
}

// Func adapts a function to Summarizer.
type Func func(ctx context.Context, content, language string) (Summary, error)

func (f Func) Summarize(ctx context.Context, content, language string) (Summary, error) {
	return f(ctx, content, language)
}

const systemPrompt = "You are analyzing a code snippet or text content. " +
	"Generate a concise, descriptive title (max 50 chars) and a very brief description (max 100 chars). " +
	`Respond in JSON format with "title" and "description" fields only.`

// buildPrompt renders the user prompt, truncating content to MaxPromptChars.
func buildPrompt(content, language string) string {
	truncated := content
	suffix := ""
	if utf8.RuneCountInString(content) > MaxPromptChars {
		truncated = string([]rune(content)[:MaxPromptChars])
		suffix = " ..."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The content is written in %s.\n\nContent:\n", language)
	fmt.Fprintf(&b, "```%s\n%s%s\n```", language, truncated, suffix)
	return b.String()
}

// parseSummary decodes a provider JSON answer and clips oversized fields.
func parseSummary(raw string) (Summary, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var s Summary
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &s); err != nil {
		return Summary{}, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}

	s.Title = clip(strings.TrimSpace(s.Title), MaxTitleLength)
	s.Description = clip(strings.TrimSpace(s.Description), MaxDescriptionSize)
	if s.Title == "" && s.Description == "" {
		return Summary{}, ErrEmptySummary
	}
	return s, nil
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
