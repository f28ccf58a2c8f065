package schema

import "strings"

// TabID identifies a tab. Ids are opaque and stable for the tab's lifetime.
type TabID string

// TabName is the user-facing name of a tab.
type TabName string

// Language is the declared language of a tab.
type Language string

const (
	// LanguageHTML is an HTML document or fragment.
	LanguageHTML Language = "html"
	// LanguageCSS is a stylesheet.
	LanguageCSS Language = "css"
	// LanguageJavaScript is a script.
	LanguageJavaScript Language = "javascript"
	// LanguageTypeScript is a script; it is previewed as JavaScript without transpiling.
	LanguageTypeScript Language = "typescript"
	// LanguageJSON is a JSON document.
	LanguageJSON Language = "json"
	// LanguageMarkdown is a Markdown document.
	LanguageMarkdown Language = "markdown"
)

// Slot names the bundle slot a language populates.
type Slot string

const (
	// SlotHTML holds markup.
	SlotHTML Slot = "html"
	// SlotCSS holds styles.
	SlotCSS Slot = "css"
	// SlotJS holds script source.
	SlotJS Slot = "js"
	// SlotMarkdown holds Markdown source.
	SlotMarkdown Slot = "markdown"
	// SlotJSON holds JSON source.
	SlotJSON Slot = "json"
)

// LanguageInfo describes a language for display and preview routing.
type LanguageInfo struct {
	Language   Language `json:"value"`
	Label      string   `json:"label"`
	Icon       string   `json:"icon"`
	Slot       Slot     `json:"slot"`
	Extensions []string `json:"extensions"`
}

var languages = []LanguageInfo{
	{Language: LanguageHTML, Label: "HTML", Icon: "🌐", Slot: SlotHTML, Extensions: []string{".html", ".htm"}},
	{Language: LanguageCSS, Label: "CSS", Icon: "🎨", Slot: SlotCSS, Extensions: []string{".css"}},
	{Language: LanguageJavaScript, Label: "JavaScript", Icon: "⚡", Slot: SlotJS, Extensions: []string{".js", ".mjs", ".cjs"}},
	{Language: LanguageTypeScript, Label: "TypeScript", Icon: "🔷", Slot: SlotJS, Extensions: []string{".ts"}},
	{Language: LanguageJSON, Label: "JSON", Icon: "📄", Slot: SlotJSON, Extensions: []string{".json"}},
	{Language: LanguageMarkdown, Label: "Markdown", Icon: "📝", Slot: SlotMarkdown, Extensions: []string{".md", ".markdown"}},
}

// Languages returns the supported languages in display order.
func Languages() []LanguageInfo {
	out := make([]LanguageInfo, len(languages))
	copy(out, languages)
	return out
}

// LookupLanguage returns the table entry for a language tag.
func LookupLanguage(lang Language) (LanguageInfo, bool) {
	for _, info := range languages {
		if info.Language == lang {
			return info, true
		}
	}
	return LanguageInfo{}, false
}

// LanguageForExtension maps a file extension (with dot) to a language.
func LanguageForExtension(ext string) (Language, bool) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	for _, info := range languages {
		for _, candidate := range info.Extensions {
			if candidate == ext {
				return info.Language, true
			}
		}
	}
	return "", false
}

// Valid reports whether the language is one of the supported tags.
func (l Language) Valid() bool {
	_, ok := LookupLanguage(l)
	return ok
}

// Slot returns the bundle slot for the language. Unknown tags fall back to html.
func (l Language) Slot() Slot {
	if info, ok := LookupLanguage(l); ok {
		return info.Slot
	}
	return SlotHTML
}

// Label returns the display label, or the raw tag for unknown languages.
func (l Language) Label() string {
	if info, ok := LookupLanguage(l); ok {
		return info.Label
	}
	return string(l)
}

// ParseLanguage validates and normalizes a language tag.
func ParseLanguage(value string) (Language, error) {
	lang := Language(strings.ToLower(strings.TrimSpace(value)))
	if !lang.Valid() {
		return "", ErrUnknownLanguage
	}
	return lang, nil
}
