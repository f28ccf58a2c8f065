package schema

import "time"

// StorageKey is the fixed key the tab snapshot is persisted under.
const StorageKey = "code-editor-tabs"

// DefaultDebounce is the quiet period before buffered edits are committed.
const DefaultDebounce = time.Second

// StoreConfig configures the tab store.
type StoreConfig struct {
	// StorageKey overrides the persistence key; empty uses StorageKey.
	StorageKey string
	// Initial is used when no prior snapshot exists.
	Initial []AddTabRequest
}

// NormalizeStoreConfig applies defaults.
func NormalizeStoreConfig(cfg StoreConfig) StoreConfig {
	if cfg.StorageKey == "" {
		cfg.StorageKey = StorageKey
	}
	return cfg
}
