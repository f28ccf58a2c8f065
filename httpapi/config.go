package httpapi

// Config defines HTTP API and UI settings.
type Config struct {
	Addr       string
	BaseURL    string
	BasePath   string
	HubHistory int
	// MaxImportBytes bounds import request bodies; zero uses defaultMaxImportBytes.
	MaxImportBytes int64
}
