package config

import (
	"fmt"
	"os"
	"time"

	"github.com/JaimeStill/churn/pkg/formatting"
)

const (
	EnvArtifactsDir           = "CHURN_ARTIFACTS_DIR"
	EnvArtifactsRemoteURL     = "CHURN_ARTIFACTS_REMOTE_URL"
	EnvArtifactsFetchTimeout  = "CHURN_ARTIFACTS_FETCH_TIMEOUT"
	EnvArtifactsMaxBundleSize = "CHURN_ARTIFACTS_MAX_BUNDLE_SIZE"
	EnvArtifactsPlotsDir      = "CHURN_ARTIFACTS_PLOTS_DIR"
)

const defaultMaxBundleSize = 50 * 1024 * 1024

// ArtifactsConfig locates the model artifact bundle.
// RemoteURL, when set, is an HTTP base URL serving the four bundle files.
// PlotsDir, when set, receives evaluation charts after each training run.
type ArtifactsConfig struct {
	Dir           string `toml:"dir"`
	RemoteURL     string `toml:"remote_url"`
	FetchTimeout  string `toml:"fetch_timeout"`
	MaxBundleSize string `toml:"max_bundle_size"`
	PlotsDir      string `toml:"plots_dir"`
}

// FetchTimeoutDuration returns FetchTimeout as a time.Duration.
func (c *ArtifactsConfig) FetchTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.FetchTimeout)
	return d
}

// MaxBundleBytes returns the per-file download limit in bytes.
func (c *ArtifactsConfig) MaxBundleBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxBundleSize)
	if err != nil || size <= 0 {
		return defaultMaxBundleSize
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ArtifactsConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ArtifactsConfig) Merge(overlay *ArtifactsConfig) {
	if overlay.Dir != "" {
		c.Dir = overlay.Dir
	}
	if overlay.RemoteURL != "" {
		c.RemoteURL = overlay.RemoteURL
	}
	if overlay.FetchTimeout != "" {
		c.FetchTimeout = overlay.FetchTimeout
	}
	if overlay.MaxBundleSize != "" {
		c.MaxBundleSize = overlay.MaxBundleSize
	}
	if overlay.PlotsDir != "" {
		c.PlotsDir = overlay.PlotsDir
	}
}

func (c *ArtifactsConfig) loadDefaults() {
	if c.Dir == "" {
		c.Dir = "models"
	}
	if c.FetchTimeout == "" {
		c.FetchTimeout = "30s"
	}
	if c.MaxBundleSize == "" {
		c.MaxBundleSize = "50MB"
	}
}

func (c *ArtifactsConfig) loadEnv() {
	if v := os.Getenv(EnvArtifactsDir); v != "" {
		c.Dir = v
	}
	if v := os.Getenv(EnvArtifactsRemoteURL); v != "" {
		c.RemoteURL = v
	}
	if v := os.Getenv(EnvArtifactsFetchTimeout); v != "" {
		c.FetchTimeout = v
	}
	if v := os.Getenv(EnvArtifactsMaxBundleSize); v != "" {
		c.MaxBundleSize = v
	}
	if v := os.Getenv(EnvArtifactsPlotsDir); v != "" {
		c.PlotsDir = v
	}
}

func (c *ArtifactsConfig) validate() error {
	d, err := time.ParseDuration(c.FetchTimeout)
	if err != nil {
		return fmt.Errorf("%w: fetch_timeout: %w", ErrInvalidConfiguration, err)
	}
	if d <= 0 {
		return fmt.Errorf("%w: fetch_timeout must be positive", ErrInvalidConfiguration)
	}
	if _, err := formatting.ParseBytes(c.MaxBundleSize); err != nil {
		return fmt.Errorf("%w: max_bundle_size: %w", ErrInvalidConfiguration, err)
	}
	return nil
}
