package appconfig

import (
	"os"
	"path/filepath"
	"time"

	"pkt.systems/codepane/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int           `mapstructure:"config_version" yaml:"config_version"`
	StateDir      string        `mapstructure:"state_dir" yaml:"state_dir"`
	Storage       StorageConfig `mapstructure:"storage" yaml:"storage"`
	Editor        EditorConfig  `mapstructure:"editor" yaml:"editor"`
	HTTP          HTTPConfig    `mapstructure:"http" yaml:"http"`
	Seed          SeedConfig    `mapstructure:"seed" yaml:"seed"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// StorageConfig selects where the tab snapshot lives.
type StorageConfig struct {
	// Backend is one of file, sqlite or memory.
	Backend string `mapstructure:"backend" yaml:"backend"`
	// Path overrides the backend location (directory for file, database file for sqlite).
	Path string `mapstructure:"path" yaml:"path"`
	Key  string `mapstructure:"key" yaml:"key"`
	// KeyStorePath enables encryption at rest using the kryptograf key store at this path.
	KeyStorePath string `mapstructure:"key_store_path" yaml:"key_store_path"`
}

// EditorConfig controls the editing surface.
type EditorConfig struct {
	DebounceMS int `mapstructure:"debounce_ms" yaml:"debounce_ms"`
}

// Debounce returns the commit delay for buffered edits.
func (c EditorConfig) Debounce() time.Duration {
	if c.DebounceMS <= 0 {
		return schema.DefaultDebounce
	}
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr       string `mapstructure:"addr" yaml:"addr"`
	BaseURL    string `mapstructure:"base_url" yaml:"base_url"`
	BasePath   string `mapstructure:"base_path" yaml:"base_path"`
	HubHistory int    `mapstructure:"hub_history" yaml:"hub_history"`
}

// SeedConfig lists files that become the initial tabs when no snapshot exists.
type SeedConfig struct {
	Globs   []string `mapstructure:"globs" yaml:"globs"`
	BaseDir string   `mapstructure:"base_dir" yaml:"base_dir"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		StateDir:      filepath.Join(home, ".codepane", "state"),
		Storage: StorageConfig{
			Backend: "file",
			Path:    "",
			Key:     schema.StorageKey,
		},
		Editor: EditorConfig{
			DebounceMS: int(schema.DefaultDebounce / time.Millisecond),
		},
		HTTP: HTTPConfig{
			Addr:       "127.0.0.1:27490",
			BaseURL:    "",
			BasePath:   "",
			HubHistory: 256,
		},
		Seed: SeedConfig{
			Globs:   []string{},
			BaseDir: "",
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".codepane", "config.yaml"), nil
}
