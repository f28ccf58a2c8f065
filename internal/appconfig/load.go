package appconfig

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. CODEPANE_HTTP_ADDR.
const EnvPrefix = "CODEPANE"

// Load reads configuration from path, or DefaultConfigPath when empty. A
// missing file yields the defaults. Environment variables named
// CODEPANE_<SECTION>_<KEY> override both.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaultValues(cfg) {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		if !isNotFound(err) {
			return Config{}, err
		}
	} else if err := checkVersion(v); err != nil {
		return Config{}, err
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	expandConfigEnv(&cfg)
	if err := validateStorageConfig(cfg.Storage); err != nil {
		return Config{}, err
	}
	if cfg.Editor.DebounceMS < 0 {
		return Config{}, fmt.Errorf("editor.debounce_ms must not be negative")
	}
	if err := validateHTTPConfig(cfg.HTTP); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// defaultValues lists every key so viper resolves environment overrides
// for keys the file leaves out.
func defaultValues(cfg Config) map[string]any {
	return map[string]any{
		"config_version":         cfg.ConfigVersion,
		"state_dir":              cfg.StateDir,
		"storage.backend":        cfg.Storage.Backend,
		"storage.path":           cfg.Storage.Path,
		"storage.key":            cfg.Storage.Key,
		"storage.key_store_path": cfg.Storage.KeyStorePath,
		"editor.debounce_ms":     cfg.Editor.DebounceMS,
		"http.addr":              cfg.HTTP.Addr,
		"http.base_url":          cfg.HTTP.BaseURL,
		"http.base_path":         cfg.HTTP.BasePath,
		"http.hub_history":       cfg.HTTP.HubHistory,
		"seed.globs":             cfg.Seed.Globs,
		"seed.base_dir":          cfg.Seed.BaseDir,
	}
}

func checkVersion(v *viper.Viper) error {
	if !v.InConfig("config_version") {
		return fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
	}
	if got := v.GetInt("config_version"); got != CurrentConfigVersion {
		return fmt.Errorf("unsupported config_version %d; expected %d", got, CurrentConfigVersion)
	}
	return nil
}

// isNotFound reports a missing config file. viper returns its own error type
// for search paths and an fs error for an explicit SetConfigFile.
func isNotFound(err error) bool {
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		return true
	}
	return os.IsNotExist(err)
}

func validateStorageConfig(cfg StorageConfig) error {
	switch cfg.Backend {
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("unsupported storage.backend %q", cfg.Backend)
	}
	if strings.TrimSpace(cfg.Key) == "" {
		return fmt.Errorf("storage.key must not be empty")
	}
	return nil
}

func validateHTTPConfig(cfg HTTPConfig) error {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL != "" {
		parsed, err := url.Parse(baseURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("http.base_url must include scheme and host (e.g. https://example.com)")
		}
	}
	basePath := strings.TrimSpace(cfg.BasePath)
	if basePath != "" {
		if strings.Contains(basePath, "://") {
			return fmt.Errorf("http.base_path must be a path prefix, not a URL")
		}
		if strings.ContainsAny(basePath, "?#") {
			return fmt.Errorf("http.base_path must not include query or fragment")
		}
	}
	if cfg.HubHistory < 0 {
		return fmt.Errorf("http.hub_history must not be negative")
	}
	return nil
}

func expandConfigEnv(cfg *Config) {
	for _, field := range []*string{
		&cfg.StateDir,
		&cfg.Storage.Path,
		&cfg.Storage.KeyStorePath,
		&cfg.Seed.BaseDir,
	} {
		*field = expandEnv(*field)
	}
	for i, glob := range cfg.Seed.Globs {
		cfg.Seed.Globs[i] = expandEnv(glob)
	}
}

// expandEnv substitutes $VAR and ${VAR}. Unknown variables are kept
// literally so a typo shows up in the resulting path. UID and GID resolve
// even when the shell does not export them.
func expandEnv(value string) string {
	if !strings.Contains(value, "$") {
		return value
	}
	return os.Expand(value, func(key string) string {
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		switch key {
		case "":
			return ""
		case "UID":
			return strconv.Itoa(os.Getuid())
		case "GID":
			return strconv.Itoa(os.Getgid())
		}
		return "$" + key
	})
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
