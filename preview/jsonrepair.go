package preview

import (
	"regexp"
	"strings"
)

// RepairPass is one textual rewrite applied to malformed JSON. Passes are
// heuristics for common hand-editing mistakes, not a lenient JSON parser.
type RepairPass struct {
	Name  string
	Apply func(string) string
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	bareKey       = regexp.MustCompile(`([{,]\s*)([A-Za-z_$][\w$]*)(\s*:)`)
	bareValue     = regexp.MustCompile(`(:\s*)([^\s"{}\[\],][^,}\]]*?)(\s*[,}\]])`)
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
	jsonLiteral   = regexp.MustCompile(`^(-?(0|[1-9]\d*)(\.\d+)?([eE][+-]?\d+)?|true|false|null)$`)
)

// RepairPasses are applied in order by RepairJSON.
var RepairPasses = []RepairPass{
	{Name: "collapse-whitespace", Apply: collapseWhitespace},
	{Name: "quote-bare-keys", Apply: quoteBareKeys},
	{Name: "quote-bare-values", Apply: quoteBareValues},
	{Name: "strip-trailing-commas", Apply: stripTrailingCommas},
}

// RepairJSON runs every repair pass over src. Passes only rewrite text
// outside double-quoted strings.
func RepairJSON(src string) string {
	out := src
	for _, pass := range RepairPasses {
		out = pass.Apply(out)
	}
	return out
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(outsideStrings(s, func(seg string) string {
		return whitespaceRun.ReplaceAllString(seg, " ")
	}))
}

func quoteBareKeys(s string) string {
	return outsideStrings(s, func(seg string) string {
		return bareKey.ReplaceAllString(seg, `$1"$2"$3`)
	})
}

func quoteBareValues(s string) string {
	return outsideStrings(s, quoteBareValuesIn)
}

func quoteBareValuesIn(s string) string {
	return bareValue.ReplaceAllStringFunc(s, func(match string) string {
		parts := bareValue.FindStringSubmatch(match)
		value := strings.TrimSpace(parts[2])
		if jsonLiteral.MatchString(value) {
			return match
		}
		if len(value) >= 2 && value[0] == '\'' && value[len(value)-1] == '\'' {
			value = value[1 : len(value)-1]
		}
		return parts[1] + `"` + value + `"` + parts[3]
	})
}

func stripTrailingCommas(s string) string {
	return outsideStrings(s, func(seg string) string {
		return trailingComma.ReplaceAllString(seg, "$1")
	})
}

// outsideStrings applies fn to each run of s that is not inside a
// double-quoted string and copies quoted runs unchanged. An unterminated
// string runs to the end of s.
func outsideStrings(s string, fn func(string) string) string {
	var b strings.Builder
	b.Grow(len(s))
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] != '"' {
			continue
		}
		b.WriteString(fn(s[start:i]))
		end := closingQuote(s, i)
		b.WriteString(s[i:end])
		start = end
		i = end - 1
	}
	b.WriteString(fn(s[start:]))
	return b.String()
}

// closingQuote returns the index just past the quote closing the string
// opened at s[open], honoring backslash escapes.
func closingQuote(s string, open int) int {
	for j := open + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '"':
			return j + 1
		}
	}
	return len(s)
}
