// Package config loads application settings from a YAML file, environment
// variables, and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pevans/dailyarticle/cache"
	"github.com/pevans/dailyarticle/fetcher"
	"github.com/pevans/dailyarticle/runlog"
	"github.com/pevans/dailyarticle/selection"
)

// Config holds every setting of the application.
type Config struct {
	// DataDir holds the article cache, the daily selection, and the run log.
	DataDir string `mapstructure:"data_dir" json:"data_dir"`
	// TopicsFile overrides the built-in topic table when set.
	TopicsFile string `mapstructure:"topics_file" json:"topics_file,omitempty"`
	// SourcesFile overrides the built-in source table when set.
	SourcesFile string `mapstructure:"sources_file" json:"sources_file,omitempty"`

	Cache   CacheConfig   `mapstructure:"cache" json:"cache"`
	Fetcher FetcherConfig `mapstructure:"fetcher" json:"fetcher"`
	Logging LoggingConfig `mapstructure:"logging" json:"logging"`
	API     APIConfig     `mapstructure:"api" json:"api"`
}

// CacheConfig controls the article cache.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl" json:"ttl"`
}

// FetcherConfig controls HTTP retrieval. Each source gets its own fetcher
// with these settings.
type FetcherConfig struct {
	RateInterval time.Duration `mapstructure:"rate_interval" json:"rate_interval"`
	Timeout      time.Duration `mapstructure:"timeout" json:"timeout"`
	UserAgent    string        `mapstructure:"user_agent" json:"user_agent"`
	MaxBodySize  int64         `mapstructure:"max_body_size" json:"max_body_size"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level       string `mapstructure:"level" json:"level"`
	Development bool   `mapstructure:"development" json:"development"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Addr string `mapstructure:"addr" json:"addr"`
}

// Default returns the built-in settings.
func Default() *Config {
	fo := fetcher.DefaultOptions()
	return &Config{
		DataDir: "data",
		Cache: CacheConfig{
			TTL: cache.DefaultTTL,
		},
		Fetcher: FetcherConfig{
			RateInterval: fo.RateInterval,
			Timeout:      fo.Timeout,
			UserAgent:    fo.UserAgent,
			MaxBodySize:  fo.MaxBodySize,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		API: APIConfig{
			Addr: ":8080",
		},
	}
}

var validLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the settings for values the application cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.DataDir) == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL))
	}
	if c.Fetcher.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("fetcher.timeout must be positive, got %s", c.Fetcher.Timeout))
	}
	if c.Fetcher.RateInterval < 0 {
		errs = append(errs, fmt.Errorf("fetcher.rate_interval must not be negative, got %s", c.Fetcher.RateInterval))
	}
	if c.Fetcher.MaxBodySize <= 0 {
		errs = append(errs, fmt.Errorf("fetcher.max_body_size must be positive, got %d", c.Fetcher.MaxBodySize))
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level))
	}
	if strings.TrimSpace(c.API.Addr) == "" {
		errs = append(errs, errors.New("api.addr is required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// FetcherOptions converts the fetcher settings.
func (c *Config) FetcherOptions() fetcher.Options {
	return fetcher.Options{
		Timeout:      c.Fetcher.Timeout,
		RateInterval: c.Fetcher.RateInterval,
		UserAgent:    c.Fetcher.UserAgent,
		MaxBodySize:  c.Fetcher.MaxBodySize,
	}
}

// CachePath is the article cache file.
func (c *Config) CachePath() string {
	return filepath.Join(c.DataDir, cache.DefaultFilename)
}

// SelectionPath is the daily selection file.
func (c *Config) SelectionPath() string {
	return filepath.Join(c.DataDir, selection.DefaultFilename)
}

// RunLogPath is the run log database.
func (c *Config) RunLogPath() string {
	return filepath.Join(c.DataDir, runlog.DefaultFilename)
}
