package pipeline

import (
	"time"

	"github.com/JaimeStill/churn/internal/config"
	"github.com/JaimeStill/churn/pkg/classifier"
	"github.com/JaimeStill/churn/pkg/resample"
)

// Options configures a training run.
type Options struct {
	Cutoff      time.Time              `json:"cutoff"`
	Rebalance   resample.Method        `json:"rebalance"`
	Family      classifier.Family      `json:"model"`
	ClassWeight classifier.ClassWeight `json:"class_weight"`
	CV          int                    `json:"cv"`
	GridSearch  bool                   `json:"grid_search"`
	TestSize    float64                `json:"test_size"`
	Seed        uint64                 `json:"seed"`
	SmoteK      int                    `json:"smote_k"`
	Workers     int                    `json:"workers"`
	// PlotsDir, when set, receives evaluation charts.
	PlotsDir    string                 `json:"plots_dir,omitempty"`
	// Progress reports cross-validation fits; see training.Options.
	Progress    func(done, total int)  `json:"-"`
}

// OptionsFrom converts validated configuration into run options.
func OptionsFrom(cfg *config.Config) Options {
	p := &cfg.Pipeline
	return Options{
		Cutoff:      p.Cutoff(),
		Rebalance:   resample.Method(p.Rebalance),
		Family:      classifier.Family(p.Model),
		ClassWeight: classifier.ClassWeight(p.ClassWeight),
		CV:          p.Folds(),
		GridSearch:  p.GridSearch,
		TestSize:    p.TestSize,
		Seed:        p.Seed,
		SmoteK:      p.SmoteK,
		Workers:     p.Workers,
		PlotsDir:    cfg.Artifacts.PlotsDir,
	}
}
