package schema

import (
	"fmt"
	"strings"
)

// DefaultTabName returns the name given to the nth new tab (1-based).
func DefaultTabName(n int) TabName {
	if n <= 0 {
		n = 1
	}
	return TabName(fmt.Sprintf("New file %d", n))
}

// NormalizeAddTabRequest fills an empty language with html and an empty name
// with the default name for position n.
func NormalizeAddTabRequest(req AddTabRequest, n int) AddTabRequest {
	if strings.TrimSpace(string(req.Language)) == "" {
		req.Language = LanguageHTML
	}
	if strings.TrimSpace(string(req.Name)) == "" {
		req.Name = DefaultTabName(n)
	}
	return req
}
