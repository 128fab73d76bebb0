package summarizer

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/dustebin/core/logger"
)

const (
	defaultDescription = "Code snippet"
	largeDescription   = "Large code snippet"
)

var titleCaser = cases.Title(language.English)

// FallbackSummary is the summary used when no provider answer is available.
func FallbackSummary(lang string) Summary {
	return Summary{Title: fallbackTitle(lang), Description: defaultDescription}
}

func fallbackTitle(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		lang = "plaintext"
	}
	return titleCaser.String(lang) + " Snippet"
}

// Fallback never fails: provider errors and empty fields are replaced with
// generic values derived from the language. Content above LargeContentChars
// is not sent to the provider at all.
type Fallback struct {
	next   Summarizer
	logger *slog.Logger
}

// NewFallback wraps next. A nil next always yields the fallback summary.
func NewFallback(next Summarizer, log *slog.Logger) *Fallback {
	if log == nil {
		log = logger.Discard()
	}
	return &Fallback{next: next, logger: log}
}

func (f *Fallback) Summarize(ctx context.Context, content, language string) (Summary, error) {
	fb := FallbackSummary(language)

	if utf8.RuneCountInString(content) > LargeContentChars {
		fb.Description = largeDescription
		return fb, nil
	}
	if f.next == nil {
		return fb, nil
	}

	s, err := f.next.Summarize(ctx, content, language)
	if err != nil {
		f.logger.WarnContext(ctx, "summary generation failed, using fallback",
			logger.Component("summarizer"),
			logger.Error(err),
		)
		return fb, nil
	}

	if s.Title == "" {
		s.Title = fb.Title
	}
	if s.Description == "" {
		s.Description = fb.Description
	}
	return s, nil
}
