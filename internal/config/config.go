// Package config loads application configuration from an optional YAML file
// plus POIFETCH_* environment variables, and owns global logger setup.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Overpass OverpassConfig `yaml:"overpass" mapstructure:"overpass"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Fetch    FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
	Regions  RegionsConfig  `yaml:"regions" mapstructure:"regions"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// OverpassConfig configures the Overpass API client.
type OverpassConfig struct {
	Endpoint         string  `yaml:"endpoint" mapstructure:"endpoint"`
	UserAgent        string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs      int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	QueryTimeoutSecs int     `yaml:"query_timeout_secs" mapstructure:"query_timeout_secs"`
	MaxRetries       int     `yaml:"max_retries" mapstructure:"max_retries"`
	RetryDelaySecs   int     `yaml:"retry_delay_secs" mapstructure:"retry_delay_secs"`
	RateLimit        float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst        int     `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// Timeout returns the HTTP client timeout.
func (c OverpassConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// QueryTimeout returns the server-side query execution budget.
func (c OverpassConfig) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutSecs) * time.Second
}

// RetryDelay returns the pause between retry attempts.
func (c OverpassConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySecs) * time.Second
}

// CacheConfig configures the day-scoped result cache.
type CacheConfig struct {
	Dir         string `yaml:"dir" mapstructure:"dir"`
	FilteredDir string `yaml:"filtered_dir" mapstructure:"filtered_dir"`
}

// FetchConfig configures orchestration behavior.
type FetchConfig struct {
	Concurrency int  `yaml:"concurrency" mapstructure:"concurrency"`
	Dedupe      bool `yaml:"dedupe" mapstructure:"dedupe"`
}

// RegionsConfig points at an optional region definition file that extends
// the builtin catalog.
type RegionsConfig struct {
	File string `yaml:"file" mapstructure:"file"`
}

// StoreConfig configures the run history database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the read-only HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("POIFETCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("overpass.endpoint", "https://overpass-api.de/api/interpreter")
	v.SetDefault("overpass.user_agent", "poifetch/1.0")
	v.SetDefault("overpass.timeout_secs", 60)
	v.SetDefault("overpass.query_timeout_secs", 300)
	v.SetDefault("overpass.max_retries", 3)
	v.SetDefault("overpass.retry_delay_secs", 5)
	v.SetDefault("overpass.rate_limit", 1.0)
	v.SetDefault("overpass.rate_burst", 1)
	v.SetDefault("cache.dir", "data_cache")
	v.SetDefault("cache.filtered_dir", "filtered_data")
	v.SetDefault("fetch.concurrency", 1)
	v.SetDefault("fetch.dedupe", true)
	v.SetDefault("store.path", "poifetch.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
