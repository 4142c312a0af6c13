package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConfig_Validate tests configuration validation
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		check   func(*testing.T, *Config)
		wantErr bool
	}{
		{
			name:   "defaults are valid",
			modify: func(c *Config) {},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, Default(), c)
			},
		},
		{
			name: "zero values fall back to defaults",
			modify: func(c *Config) {
				*c = Config{}
			},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, DefaultCacheTTL, c.Cache.TTL)
				assert.Equal(t, DefaultWorkers, c.Concurrency.Workers)
				assert.Equal(t, DefaultTimeout, c.Concurrency.Timeout)
				assert.Equal(t, DefaultMaxHops, c.Concurrency.MaxHops)
				assert.Equal(t, DefaultValidateTimeout, c.Concurrency.ValidateTimeout)
				assert.Equal(t, DefaultLogFormat, c.Logging.Format)
				assert.Equal(t, DefaultLogLevel, c.Logging.Level)
			},
		},
		{
			name: "negative values are clamped",
			modify: func(c *Config) {
				c.Cache.MaxEntries = -1
				c.Concurrency.MaxRetries = -3
				c.Concurrency.Timeout = 100 * time.Millisecond
			},
			check: func(t *testing.T, c *Config) {
				assert.Zero(t, c.Cache.MaxEntries)
				assert.Zero(t, c.Concurrency.MaxRetries)
				assert.Equal(t, DefaultTimeout, c.Concurrency.Timeout)
			},
		},
		{
			name: "unknown log format",
			modify: func(c *Config) {
				c.Logging.Format = "xml"
			},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "pretty", c.Logging.Format)
			},
		},
		{
			name: "yaml hosts file",
			modify: func(c *Config) {
				c.Hosts.File = "/etc/sootio/hosts.yml"
			},
		},
		{
			name: "hosts file with wrong extension",
			modify: func(c *Config) {
				c.Hosts.File = "/etc/sootio/hosts.json"
			},
			wantErr: true,
		},
		{
			name: "socks proxy",
			modify: func(c *Config) {
				c.Stealth.Proxy = "socks5://127.0.0.1:1080"
			},
		},
		{
			name: "invalid proxy",
			modify: func(c *Config) {
				c.Stealth.Proxy = "not a proxy"
			},
			wantErr: true,
		},
		{
			name: "invalid site url",
			modify: func(c *Config) {
				c.Catalog.SiteURL = "site.example"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.True(t, cfg.Cache.BodyCache)
	assert.Equal(t, 4, cfg.Concurrency.Workers)
	assert.Equal(t, 5, cfg.Concurrency.MaxHops)
	assert.False(t, cfg.Concurrency.PropagateCancel)
	assert.Equal(t, DefaultMetaURL, cfg.Catalog.MetaURL)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestConfigPaths(t *testing.T) {
	assert.Equal(t, ".sootio", filepath.Base(ConfigDir()))
	assert.Equal(t, filepath.Join(ConfigDir(), "config.yaml"), ConfigFilePath())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "hosts.yaml"), ExpandPath("~/hosts.yaml"))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, "/abs/hosts.yaml", ExpandPath("/abs/hosts.yaml"))
	assert.Equal(t, "~user/x", ExpandPath("~user/x"))
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	original, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(original) })
}

// TestLoad_LoadWithMissingConfig tests loading with no config file
func TestLoad_LoadWithMissingConfig(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, v, err := LoadWithViper()
	require.NoError(t, err)
	assert.NotNil(t, v)
	assert.Equal(t, DefaultWorkers, cfg.Concurrency.Workers)
	assert.Equal(t, DefaultCacheTTL, cfg.Cache.TTL)
}

// TestLoad_WithInvalidConfigFile tests loading with invalid config file
func TestLoad_WithInvalidConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("invalid: yaml: content: ["), 0644))
	chdir(t, dir)

	cfg, _, err := LoadWithViper()
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

// TestLoad_WithValidConfigFile tests loading with valid config file
func TestLoad_WithValidConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
cache:
  ttl: 2m
  max_entries: 500
concurrency:
  workers: 8
  max_hops: 3
  require_partial_content: true
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644))
	chdir(t, dir)

	cfg, _, err := LoadWithViper()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 500, cfg.Cache.MaxEntries)
	assert.Equal(t, 8, cfg.Concurrency.Workers)
	assert.Equal(t, 3, cfg.Concurrency.MaxHops)
	assert.True(t, cfg.Concurrency.RequirePartialContent)
	assert.Equal(t, DefaultValidateTimeout, cfg.Concurrency.ValidateTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

// TestLoadWithEnvironmentVariable tests loading with environment variable
func TestLoadWithEnvironmentVariable(t *testing.T) {
	t.Setenv("SOOTIO_CONCURRENCY_WORKERS", "12")
	t.Setenv("SOOTIO_CATALOG_SITE_URL", "https://site.example")
	chdir(t, t.TempDir())

	cfg, _, err := LoadWithViper()
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Concurrency.Workers)
	assert.Equal(t, "https://site.example", cfg.Catalog.SiteURL)
}
