package paste

import "slices"

// DefaultLanguage is used when a create request names no language.
const DefaultLanguage = "plaintext"

// Language is a supported syntax highlighting mode.
type Language struct {
	Value     string `json:"value"`
	Label     string `json:"label"`
	Extension string `json:"-"`
}

var languages = []Language{
	{Value: "plaintext", Label: "Plain Text", Extension: "txt"},
	{Value: "javascript", Label: "JavaScript", Extension: "js"},
	{Value: "typescript", Label: "TypeScript", Extension: "ts"},
	{Value: "html", Label: "HTML", Extension: "html"},
	{Value: "css", Label: "CSS", Extension: "css"},
	{Value: "json", Label: "JSON", Extension: "json"},
	{Value: "markdown", Label: "Markdown", Extension: "md"},
	{Value: "python", Label: "Python", Extension: "py"},
	{Value: "rust", Label: "Rust", Extension: "rs"},
	{Value: "sql", Label: "SQL", Extension: "sql"},
	{Value: "xml", Label: "XML", Extension: "xml"},
}

// Languages returns the supported languages in display order.
func Languages() []Language {
	return slices.Clone(languages)
}

// LookupLanguage finds a language by value.
func LookupLanguage(value string) (Language, bool) {
	i := slices.IndexFunc(languages, func(l Language) bool { return l.Value == value })
	if i < 0 {
		return Language{}, false
	}
	return languages[i], true
}

// Extension returns the file extension for value, "txt" when unknown.
func Extension(value string) string {
	if l, ok := LookupLanguage(value); ok {
		return l.Extension
	}
	return "txt"
}
