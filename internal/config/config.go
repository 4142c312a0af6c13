package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jjfiecas-stack/sootio-sub001/internal/utils"
)

// Config represents the application configuration
type Config struct {
	Cache       CacheConfig       `mapstructure:"cache" yaml:"cache"`
	Concurrency ConcurrencyConfig `mapstructure:"concurrency" yaml:"concurrency"`
	Stealth     StealthConfig     `mapstructure:"stealth" yaml:"stealth"`
	Hosts       HostsConfig       `mapstructure:"hosts" yaml:"hosts"`
	Catalog     CatalogConfig     `mapstructure:"catalog" yaml:"catalog"`
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
}

// CacheConfig contains the session cache settings
type CacheConfig struct {
	TTL        time.Duration `mapstructure:"ttl" yaml:"ttl"`
	MaxEntries int           `mapstructure:"max_entries" yaml:"max_entries"`
	// BodyCache keeps raw page bodies in memory behind the fetcher
	BodyCache bool `mapstructure:"body_cache" yaml:"body_cache"`
}

// ConcurrencyConfig contains fan-out and per-fetch settings
type ConcurrencyConfig struct {
	Workers               int           `mapstructure:"workers" yaml:"workers"`
	Timeout               time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxRetries            int           `mapstructure:"max_retries" yaml:"max_retries"`
	MaxHops               int           `mapstructure:"max_hops" yaml:"max_hops"`
	ValidateTimeout       time.Duration `mapstructure:"validate_timeout" yaml:"validate_timeout"`
	RequirePartialContent bool          `mapstructure:"require_partial_content" yaml:"require_partial_content"`
	PropagateCancel       bool          `mapstructure:"propagate_cancel" yaml:"propagate_cancel"`
}

// StealthConfig contains stealth mode settings
type StealthConfig struct {
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`
	Proxy     string `mapstructure:"proxy" yaml:"proxy"`
}

// HostsConfig points at an optional YAML host table override
type HostsConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

// CatalogConfig contains the search site and metadata endpoints
type CatalogConfig struct {
	SiteURL     string `mapstructure:"site_url" yaml:"site_url"`
	MetaURL     string `mapstructure:"meta_url" yaml:"meta_url"`
	FallbackURL string `mapstructure:"fallback_url" yaml:"fallback_url"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Validate validates the configuration, replacing out-of-range values with defaults
func (c *Config) Validate() error {
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = DefaultCacheTTL
	}
	if c.Cache.MaxEntries < 0 {
		c.Cache.MaxEntries = 0
	}
	if c.Concurrency.Workers < 1 {
		c.Concurrency.Workers = DefaultWorkers
	}
	if c.Concurrency.Timeout < time.Second {
		c.Concurrency.Timeout = DefaultTimeout
	}
	if c.Concurrency.MaxRetries < 0 {
		c.Concurrency.MaxRetries = 0
	}
	if c.Concurrency.MaxHops < 1 {
		c.Concurrency.MaxHops = DefaultMaxHops
	}
	if c.Concurrency.ValidateTimeout < time.Second {
		c.Concurrency.ValidateTimeout = DefaultValidateTimeout
	}
	if c.Logging.Format != "json" && c.Logging.Format != "pretty" {
		c.Logging.Format = DefaultLogFormat
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}

	if c.Hosts.File != "" {
		c.Hosts.File = ExpandPath(c.Hosts.File)
		switch strings.ToLower(filepath.Ext(c.Hosts.File)) {
		case ".yaml", ".yml":
		default:
			return fmt.Errorf("invalid hosts.file %q: expected a .yaml or .yml file", c.Hosts.File)
		}
	}
	if c.Stealth.Proxy != "" && !utils.IsHTTPURL(c.Stealth.Proxy) && !strings.HasPrefix(c.Stealth.Proxy, "socks5://") {
		return fmt.Errorf("invalid stealth.proxy %q", c.Stealth.Proxy)
	}
	for name, u := range map[string]string{
		"catalog.site_url":     c.Catalog.SiteURL,
		"catalog.meta_url":     c.Catalog.MetaURL,
		"catalog.fallback_url": c.Catalog.FallbackURL,
	} {
		if u != "" && !utils.IsHTTPURL(u) {
			return fmt.Errorf("invalid %s %q", name, u)
		}
	}
	return nil
}
