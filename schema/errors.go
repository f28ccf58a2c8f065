package schema

import "errors"

var (
	// ErrInvalidRequest indicates a malformed request payload.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnknownLanguage indicates a language tag outside the supported set.
	ErrUnknownLanguage = errors.New("unknown language")
	// ErrImportInvalid indicates import data could not be parsed.
	ErrImportInvalid = errors.New("import data is not valid JSON")
	// ErrImportNotArray indicates import data was valid JSON but not an array.
	ErrImportNotArray = errors.New("import data must be a JSON array of tabs")
	// ErrModeUnavailable indicates a preview mode override with no content behind it.
	ErrModeUnavailable = errors.New("preview mode not available")
	// ErrTabNotFound indicates a requested tab could not be found.
	ErrTabNotFound = errors.New("tab not found")
)
