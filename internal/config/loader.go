package config

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load loads configuration from file, environment, and defaults.
// Uses the global viper instance to access CLI flag bindings.
func Load() (*Config, error) {
	return load(viper.GetViper())
}

// LoadWithViper loads configuration into a fresh viper instance and returns it
func LoadWithViper() (*Config, *viper.Viper, error) {
	v := viper.New()
	cfg, err := load(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(ConfigDir())
	v.AddConfigPath(".")

	// A missing config file is fine
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	// Environment variables (SOOTIO_*)
	v.SetEnvPrefix("SOOTIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	v.SetDefault("cache.ttl", DefaultCacheTTL)
	v.SetDefault("cache.max_entries", DefaultCacheMaxEntries)
	v.SetDefault("cache.body_cache", DefaultBodyCache)

	v.SetDefault("concurrency.workers", DefaultWorkers)
	v.SetDefault("concurrency.timeout", DefaultTimeout)
	v.SetDefault("concurrency.max_retries", DefaultMaxRetries)
	v.SetDefault("concurrency.max_hops", DefaultMaxHops)
	v.SetDefault("concurrency.validate_timeout", DefaultValidateTimeout)
	v.SetDefault("concurrency.require_partial_content", false)
	v.SetDefault("concurrency.propagate_cancel", false)

	v.SetDefault("stealth.user_agent", "")
	v.SetDefault("stealth.proxy", "")

	v.SetDefault("hosts.file", "")

	v.SetDefault("catalog.site_url", "")
	v.SetDefault("catalog.meta_url", DefaultMetaURL)
	v.SetDefault("catalog.fallback_url", DefaultFallbackURL)

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	return os.MkdirAll(ConfigDir(), 0755)
}
