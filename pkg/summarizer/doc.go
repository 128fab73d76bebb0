// Package summarizer generates short titles and descriptions for paste
// content using a generative AI provider.
//
// Providers (Google Gemini, OpenAI) implement Summarizer and are composed
// with decorators:
//
//	s, err := summarizer.New(ctx, cfg, summarizer.NewRedisStore(rdb), log)
//	if err != nil {
//		return err
//	}
//	sum, _ := s.Summarize(ctx, content, "python")
//
// New builds Fallback(Cached(Throttled(provider))). Fallback never returns
// an error, so callers always receive a usable Summary; "<Language> Snippet"
// and "Code snippet" stand in for anything the provider could not deliver.
// Only the first MaxPromptChars characters of the content reach the provider.
package summarizer
