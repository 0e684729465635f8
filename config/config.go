// Package config loads runtime settings from the environment, after an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "CATALOG"

	EnvAppEnv          = "CATALOG_APP_ENV"
	EnvLogLevel        = "CATALOG_LOG_LEVEL"
	EnvLogFormat       = "CATALOG_LOG_FORMAT"
	EnvStoreURL        = "CATALOG_STORE_URL"
	EnvStoreTimeout    = "CATALOG_STORE_TIMEOUT"
	EnvStoreRetries    = "CATALOG_STORE_RETRIES"
	EnvCallTimeout     = "CATALOG_CALL_TIMEOUT"
	EnvBulkConcurrency = "CATALOG_BULK_CONCURRENCY"
	EnvPageSize        = "CATALOG_PAGE_SIZE"
	EnvSeed            = "CATALOG_SEED"

	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App    AppConfig
	Store  StoreConfig
	Engine EngineConfig
}

type AppConfig struct {
	Env       string `envconfig:"CATALOG_APP_ENV" default:"development"`
	LogLevel  string `envconfig:"CATALOG_LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"CATALOG_LOG_FORMAT" default:"json"`
	// Seed inserts reference price data into an empty collection on start.
	Seed bool `envconfig:"CATALOG_SEED" default:"true"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// StoreConfig locates the remote price store for the CLI.
type StoreConfig struct {
	URL     string        `envconfig:"CATALOG_STORE_URL" default:"http://127.0.0.1:8090"`
	Timeout time.Duration `envconfig:"CATALOG_STORE_TIMEOUT" default:"10s"`
	Retries int           `envconfig:"CATALOG_STORE_RETRIES" default:"3"`
}

// EngineConfig tunes catalog sessions.
type EngineConfig struct {
	CallTimeout     time.Duration `envconfig:"CATALOG_CALL_TIMEOUT" default:"15s"`
	BulkConcurrency int           `envconfig:"CATALOG_BULK_CONCURRENCY" default:"8"`
	PageSize        int           `envconfig:"CATALOG_PAGE_SIZE" default:"10"`
}

// Load reads .env when present and then the environment. Variables already
// set in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv parses the environment only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(c.App.LogFormat) {
	case "json", "console":
	default:
		return fmt.Errorf("%s must be json or console, got %q", EnvLogFormat, c.App.LogFormat)
	}
	if strings.TrimSpace(c.Store.URL) == "" {
		return fmt.Errorf("%s is required", EnvStoreURL)
	}
	if c.Store.Timeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvStoreTimeout)
	}
	if c.Store.Retries < 1 {
		return fmt.Errorf("%s must be at least 1", EnvStoreRetries)
	}
	if c.Engine.CallTimeout < 0 {
		return fmt.Errorf("%s must not be negative", EnvCallTimeout)
	}
	if c.Engine.BulkConcurrency < 1 {
		return fmt.Errorf("%s must be at least 1", EnvBulkConcurrency)
	}
	if c.Engine.PageSize < 1 {
		return fmt.Errorf("%s must be at least 1", EnvPageSize)
	}
	return nil
}
