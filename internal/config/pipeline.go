package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/JaimeStill/churn/pkg/classifier"
	"github.com/JaimeStill/churn/pkg/resample"
)

// CutoffLayout is the date layout accepted for the churn cutoff.
const CutoffLayout = "2006-01-02"

const (
	EnvPipelineCutoffDate  = "CHURN_PIPELINE_CUTOFF_DATE"
	EnvPipelineRebalance   = "CHURN_PIPELINE_REBALANCE"
	EnvPipelineModel       = "CHURN_PIPELINE_MODEL"
	EnvPipelineClassWeight = "CHURN_PIPELINE_CLASS_WEIGHT"
	EnvPipelineCV          = "CHURN_PIPELINE_CV"
	EnvPipelineGridSearch  = "CHURN_PIPELINE_GRID_SEARCH"
	EnvPipelineTestSize    = "CHURN_PIPELINE_TEST_SIZE"
	EnvPipelineSeed        = "CHURN_PIPELINE_SEED"
	EnvPipelineSmoteK      = "CHURN_PIPELINE_SMOTE_K"
	EnvPipelineWorkers     = "CHURN_PIPELINE_WORKERS"
)

// PipelineConfig holds the training run options.
// CV is a pointer because 0 is a meaningful value (cross-validation disabled).
type PipelineConfig struct {
	CutoffDate  string  `toml:"cutoff_date"`
	Rebalance   string  `toml:"rebalance"`
	Model       string  `toml:"model"`
	ClassWeight string  `toml:"class_weight"`
	CV          *int    `toml:"cv"`
	GridSearch  bool    `toml:"grid_search"`
	TestSize    float64 `toml:"test_size"`
	Seed        uint64  `toml:"seed"`
	SmoteK      int     `toml:"smote_k"`
	Workers     int     `toml:"workers"`
}

// Cutoff returns CutoffDate as a UTC midnight timestamp.
func (c *PipelineConfig) Cutoff() time.Time {
	t, _ := time.Parse(CutoffLayout, c.CutoffDate)
	return t
}

// Folds returns the cross-validation fold count, 0 when disabled.
func (c *PipelineConfig) Folds() int {
	if c.CV == nil {
		return 0
	}
	return *c.CV
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *PipelineConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.Validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *PipelineConfig) Merge(overlay *PipelineConfig) {
	if overlay.CutoffDate != "" {
		c.CutoffDate = overlay.CutoffDate
	}
	if overlay.Rebalance != "" {
		c.Rebalance = overlay.Rebalance
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.ClassWeight != "" {
		c.ClassWeight = overlay.ClassWeight
	}
	if overlay.CV != nil {
		cv := *overlay.CV
		c.CV = &cv
	}
	if overlay.GridSearch {
		c.GridSearch = true
	}
	if overlay.TestSize != 0 {
		c.TestSize = overlay.TestSize
	}
	if overlay.Seed != 0 {
		c.Seed = overlay.Seed
	}
	if overlay.SmoteK != 0 {
		c.SmoteK = overlay.SmoteK
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
}

// Validate checks option values. It is exported so command-line overrides
// can be checked after Finalize has run.
func (c *PipelineConfig) Validate() error {
	if _, err := time.Parse(CutoffLayout, c.CutoffDate); err != nil {
		return fmt.Errorf("%w: cutoff_date %q: expected YYYY-MM-DD", ErrInvalidConfiguration, c.CutoffDate)
	}
	if _, err := resample.ParseMethod(c.Rebalance); err != nil {
		return fmt.Errorf("%w: rebalance: %w", ErrInvalidConfiguration, err)
	}
	if _, err := classifier.ParseFamily(c.Model); err != nil {
		return fmt.Errorf("%w: model: %w", ErrInvalidConfiguration, err)
	}
	if _, err := classifier.ParseClassWeight(c.ClassWeight); err != nil {
		return fmt.Errorf("%w: class_weight: %w", ErrInvalidConfiguration, err)
	}
	folds := c.Folds()
	if folds < 0 || folds == 1 {
		return fmt.Errorf("%w: cv must be 0 or at least 2, got %d", ErrInvalidConfiguration, folds)
	}
	if c.GridSearch && folds == 0 {
		return fmt.Errorf("%w: grid_search requires cv > 0", ErrInvalidConfiguration)
	}
	if c.TestSize <= 0 || c.TestSize >= 1 {
		return fmt.Errorf("%w: test_size must be in (0, 1), got %v", ErrInvalidConfiguration, c.TestSize)
	}
	if c.SmoteK < 1 {
		return fmt.Errorf("%w: smote_k must be positive, got %d", ErrInvalidConfiguration, c.SmoteK)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfiguration, c.Workers)
	}
	return nil
}

func (c *PipelineConfig) loadDefaults() {
	if c.CutoffDate == "" {
		c.CutoffDate = "2018-04-17"
	}
	if c.Rebalance == "" {
		c.Rebalance = string(resample.SMOTE)
	}
	if c.Model == "" {
		c.Model = string(classifier.RandomForest)
	}
	if c.ClassWeight == "" {
		c.ClassWeight = string(classifier.Balanced)
	}
	if c.CV == nil {
		cv := 5
		c.CV = &cv
	}
	if c.TestSize == 0 {
		c.TestSize = 0.3
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
	if c.SmoteK == 0 {
		c.SmoteK = 5
	}
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
}

func (c *PipelineConfig) loadEnv() {
	if v := os.Getenv(EnvPipelineCutoffDate); v != "" {
		c.CutoffDate = v
	}
	if v := os.Getenv(EnvPipelineRebalance); v != "" {
		c.Rebalance = v
	}
	if v := os.Getenv(EnvPipelineModel); v != "" {
		c.Model = v
	}
	if v := os.Getenv(EnvPipelineClassWeight); v != "" {
		c.ClassWeight = v
	}
	if v := os.Getenv(EnvPipelineCV); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.CV = &n
		}
	}
	if v := os.Getenv(EnvPipelineGridSearch); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.GridSearch = b
		}
	}
	if v := os.Getenv(EnvPipelineTestSize); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.TestSize = f
		}
	}
	if v := os.Getenv(EnvPipelineSeed); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Seed = n
		}
	}
	if v := os.Getenv(EnvPipelineSmoteK); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SmoteK = n
		}
	}
	if v := os.Getenv(EnvPipelineWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
}
