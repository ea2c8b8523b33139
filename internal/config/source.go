package config

import (
	"fmt"
	"os"
	"regexp"
)

// Order source kinds.
const (
	SourceCSV      = "csv"
	SourceDatabase = "database"
)

const (
	EnvSourceKind  = "CHURN_SOURCE_KIND"
	EnvSourcePath  = "CHURN_SOURCE_PATH"
	EnvSourceTable = "CHURN_SOURCE_TABLE"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// SourceConfig selects where the flat order table is read from.
// Table is interpolated into SQL, so it must be a plain (optionally schema-qualified) identifier.
type SourceConfig struct {
	Kind  string `toml:"kind"`
	Path  string `toml:"path"`
	Table string `toml:"table"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *SourceConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *SourceConfig) Merge(overlay *SourceConfig) {
	if overlay.Kind != "" {
		c.Kind = overlay.Kind
	}
	if overlay.Path != "" {
		c.Path = overlay.Path
	}
	if overlay.Table != "" {
		c.Table = overlay.Table
	}
}

func (c *SourceConfig) loadDefaults() {
	if c.Kind == "" {
		c.Kind = SourceCSV
	}
	if c.Path == "" {
		c.Path = "data/orders.csv"
	}
	if c.Table == "" {
		c.Table = "orders"
	}
}

func (c *SourceConfig) loadEnv() {
	if v := os.Getenv(EnvSourceKind); v != "" {
		c.Kind = v
	}
	if v := os.Getenv(EnvSourcePath); v != "" {
		c.Path = v
	}
	if v := os.Getenv(EnvSourceTable); v != "" {
		c.Table = v
	}
}

func (c *SourceConfig) validate() error {
	switch c.Kind {
	case SourceCSV, SourceDatabase:
	default:
		return fmt.Errorf("%w: unsupported source kind %q", ErrInvalidConfiguration, c.Kind)
	}
	if !identifier.MatchString(c.Table) {
		return fmt.Errorf("%w: invalid table name %q", ErrInvalidConfiguration, c.Table)
	}
	return nil
}
