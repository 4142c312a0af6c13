package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default values
const (
	// Cache defaults
	DefaultCacheTTL        = 10 * time.Minute
	DefaultCacheMaxEntries = 0
	DefaultBodyCache       = true

	// Concurrency defaults
	DefaultWorkers         = 4
	DefaultTimeout         = 15 * time.Second
	DefaultMaxRetries      = 2
	DefaultMaxHops         = 5
	DefaultValidateTimeout = 8 * time.Second

	// Catalog defaults
	DefaultMetaURL     = "https://v3-cinemeta.strem.io"
	DefaultFallbackURL = "https://www.imdb.com"

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "pretty"
)

// ConfigDir returns the config directory path
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sootio"
	}
	return filepath.Join(home, ".sootio")
}

// ConfigFilePath returns the config file path
func ConfigFilePath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ExpandPath expands a leading ~ to the user's home directory
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			TTL:        DefaultCacheTTL,
			MaxEntries: DefaultCacheMaxEntries,
			BodyCache:  DefaultBodyCache,
		},
		Concurrency: ConcurrencyConfig{
			Workers:         DefaultWorkers,
			Timeout:         DefaultTimeout,
			MaxRetries:      DefaultMaxRetries,
			MaxHops:         DefaultMaxHops,
			ValidateTimeout: DefaultValidateTimeout,
		},
		Catalog: CatalogConfig{
			MetaURL:     DefaultMetaURL,
			FallbackURL: DefaultFallbackURL,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
