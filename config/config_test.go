package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the search paths at an empty directory
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

// TestLoad_Defaults verifies the built-in settings apply without a file
func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 10*time.Second, cfg.Fetcher.Timeout)
	assert.Equal(t, 2*time.Second, cfg.Fetcher.RateInterval)
	assert.NotEmpty(t, cfg.Fetcher.UserAgent)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, ":8080", cfg.API.Addr)
	assert.Equal(t, filepath.Join("data", "articles_cache.json"), cfg.CachePath())
	assert.Equal(t, filepath.Join("data", "daily_selection.json"), cfg.SelectionPath())
	assert.Equal(t, filepath.Join("data", "runlog.db"), cfg.RunLogPath())
}

// TestLoad_File verifies an explicit file overrides defaults
func TestLoad_File(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	content := `data_dir: /var/lib/dailyarticle
cache:
  ttl: 12h
fetcher:
  rate_interval: 500ms
  timeout: 5s
logging:
  level: debug
  development: true
api:
  addr: 127.0.0.1:9000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/dailyarticle", cfg.DataDir)
	assert.Equal(t, 12*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 500*time.Millisecond, cfg.Fetcher.RateInterval)
	assert.Equal(t, 5*time.Second, cfg.Fetcher.Timeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, "127.0.0.1:9000", cfg.API.Addr)
	assert.Equal(t, int64(10<<20), cfg.Fetcher.MaxBodySize, "unset keys keep defaults")
}

// TestLoad_SearchPath verifies dailyarticle.yaml in the working directory is
// picked up
func TestLoad_SearchPath(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dailyarticle.yaml"), []byte("data_dir: found\n"), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "found", cfg.DataDir)
}

// TestLoad_Env verifies environment variables win over the file
func TestLoad_Env(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  ttl: 12h\n"), 0o600))
	t.Setenv("DAILYARTICLE_CACHE_TTL", "6h")
	t.Setenv("DAILYARTICLE_DATA_DIR", "/tmp/elsewhere")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 6*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "/tmp/elsewhere", cfg.DataDir)
}

// TestLoad_MissingExplicitFile verifies a named file must exist
func TestLoad_MissingExplicitFile(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "nope.yaml"))
	assert.Error(t, err)
}

// TestLoad_Invalid verifies validation runs after loading
func TestLoad_Invalid(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0o600))

	_, err := Load(path)
	assert.ErrorContains(t, err, "logging.level")
}

// TestValidate verifies each rejected setting
func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty data dir", func(c *Config) { c.DataDir = " " }, "data_dir"},
		{"zero ttl", func(c *Config) { c.Cache.TTL = 0 }, "cache.ttl"},
		{"zero timeout", func(c *Config) { c.Fetcher.Timeout = 0 }, "fetcher.timeout"},
		{"negative rate", func(c *Config) { c.Fetcher.RateInterval = -time.Second }, "fetcher.rate_interval"},
		{"zero body size", func(c *Config) { c.Fetcher.MaxBodySize = 0 }, "fetcher.max_body_size"},
		{"unknown level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"empty addr", func(c *Config) { c.API.Addr = "" }, "api.addr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}

	assert.NoError(t, Default().Validate())
}

// TestFetcherOptions verifies the conversion keeps every field
func TestFetcherOptions(t *testing.T) {
	cfg := Default()
	cfg.Fetcher.RateInterval = 0

	opts := cfg.FetcherOptions()
	assert.Equal(t, time.Duration(0), opts.RateInterval)
	assert.Equal(t, cfg.Fetcher.Timeout, opts.Timeout)
	assert.Equal(t, cfg.Fetcher.UserAgent, opts.UserAgent)
	assert.Equal(t, cfg.Fetcher.MaxBodySize, opts.MaxBodySize)
}
