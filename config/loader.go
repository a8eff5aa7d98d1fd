package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. DAILYARTICLE_CACHE_TTL.
const EnvPrefix = "DAILYARTICLE"

// Load reads configuration from file, environment, and defaults.
// Priority (highest to lowest): env vars > config file > defaults.
//
// With an empty configPath, dailyarticle.yaml is looked up in the working
// directory and in ~/.dailyarticle; not finding it is not an error.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("dailyarticle")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".dailyarticle"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("topics_file", cfg.TopicsFile)
	v.SetDefault("sources_file", cfg.SourcesFile)

	v.SetDefault("cache.ttl", cfg.Cache.TTL)

	v.SetDefault("fetcher.rate_interval", cfg.Fetcher.RateInterval)
	v.SetDefault("fetcher.timeout", cfg.Fetcher.Timeout)
	v.SetDefault("fetcher.user_agent", cfg.Fetcher.UserAgent)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.development", cfg.Logging.Development)

	v.SetDefault("api.addr", cfg.API.Addr)
}
