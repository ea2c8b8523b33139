// Package config loads churn pipeline configuration from an optional TOML file,
// an environment-specific overlay, a .env file, and CHURN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/churn/pkg/database"
	"github.com/JaimeStill/churn/pkg/pagination"
	"github.com/JaimeStill/churn/pkg/storage"
)

const (
	BaseConfigFile       = "churn.toml"
	OverlayConfigPattern = "churn.%s.toml"
	DotEnvFile           = ".env"

	EnvChurnEnv             = "CHURN_ENV"
	EnvChurnShutdownTimeout = "CHURN_SHUTDOWN_TIMEOUT"
)

var databaseEnv = &database.Env{
	Driver:          "CHURN_DB_DRIVER",
	URL:             "CHURN_DB_URL",
	Host:            "CHURN_DB_HOST",
	Port:            "CHURN_DB_PORT",
	Name:            "CHURN_DB_NAME",
	User:            "CHURN_DB_USER",
	Password:        "CHURN_DB_PASSWORD",
	SSLMode:         "CHURN_DB_SSL_MODE",
	MaxOpenConns:    "CHURN_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "CHURN_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "CHURN_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "CHURN_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "CHURN_STORAGE_CONTAINER_NAME",
	ConnectionString: "CHURN_STORAGE_CONNECTION_STRING",
	Prefix:           "CHURN_STORAGE_PREFIX",
}

var historyEnv = &pagination.Env{
	DefaultPageSize: "CHURN_HISTORY_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "CHURN_HISTORY_MAX_PAGE_SIZE",
}

// Config is the root configuration for a churn pipeline run.
type Config struct {
	Pipeline        PipelineConfig    `toml:"pipeline"`
	Source          SourceConfig      `toml:"source"`
	Database        database.Config   `toml:"database"`
	Storage         storage.Config    `toml:"storage"`
	Artifacts       ArtifactsConfig   `toml:"artifacts"`
	Logging         LoggingConfig     `toml:"logging"`
	History         pagination.Config `toml:"history"`
	ShutdownTimeout string            `toml:"shutdown_timeout"`
}

// Env returns the CHURN_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvChurnEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads .env (if present) into the process environment, then the base
// config (if present), applies any environment overlay, and finalizes all values.
// Without a churn.toml, defaults and environment variables provide everything.
func Load() (*Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", DotEnvFile, err)
	}

	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	c.Pipeline.Merge(&overlay.Pipeline)
	c.Source.Merge(&overlay.Source)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Artifacts.Merge(&overlay.Artifacts)
	c.Logging.Merge(&overlay.Logging)
	c.History.Merge(&overlay.History)
}

// Finalize applies defaults, environment overrides, and validation to every
// section. Command-line flags applied afterwards are checked with
// PipelineConfig.Validate.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Pipeline.Finalize(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if err := c.Source.Finalize(); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("%w: database: %w", ErrInvalidConfiguration, err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("%w: storage: %w", ErrInvalidConfiguration, err)
	}
	if err := c.Artifacts.Finalize(); err != nil {
		return fmt.Errorf("artifacts: %w", err)
	}
	if err := c.Logging.Finalize(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.History.Finalize(historyEnv); err != nil {
		return fmt.Errorf("%w: history: %w", ErrInvalidConfiguration, err)
	}

	if c.Source.Kind == SourceDatabase && !c.Database.Configured() {
		return fmt.Errorf("%w: source kind %q requires a configured database", ErrInvalidConfiguration, c.Source.Kind)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "10s"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvChurnShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("%w: shutdown_timeout: %w", ErrInvalidConfiguration, err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvChurnEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
