// Package training fits churn classifiers with optional stratified
// cross-validation diagnostics or an exhaustive grid search scored by macro F1.
package training

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/JaimeStill/churn/pkg/classifier"
	"github.com/JaimeStill/churn/pkg/metrics"
	"github.com/JaimeStill/churn/pkg/validation"
)

// Options selects the model family and how it is fitted.
// CV is the number of stratified folds, 0 to skip cross-validation.
type Options struct {
	Family      classifier.Family
	ClassWeight classifier.ClassWeight
	CV          int
	GridSearch  bool
	Seed        uint64
	Workers     int
	// Progress, when set, is called after every completed fold fit with the
	// number of finished and total fits. Calls may come from any goroutine.
	Progress func(done, total int)
}

// Stat is the mean and population standard deviation of a metric over folds.
type Stat struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// CVSummary aggregates fold metrics of a cross-validated configuration.
type CVSummary struct {
	Folds      int  `json:"folds"`
	Accuracy   Stat `json:"accuracy"`
	Precision  Stat `json:"precision"`
	Recall     Stat `json:"recall"`
	F1Macro    Stat `json:"f1_macro"`
	F1Weighted Stat `json:"f1_weighted"`
}

// Lines renders one "metric: média=..., std=..." line per metric.
func (s *CVSummary) Lines() []string {
	rows := []struct {
		name string
		stat Stat
	}{
		{"accuracy", s.Accuracy},
		{"precision", s.Precision},
		{"recall", s.Recall},
		{"f1_macro", s.F1Macro},
		{"f1_weighted", s.F1Weighted},
	}

	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = fmt.Sprintf("%s: média=%.4f, std=%.4f", r.name, r.stat.Mean, r.stat.Std)
	}
	return lines
}

// Candidate is one grid configuration with its mean cross-validated macro F1.
type Candidate struct {
	Params classifier.Params
	Score  float64
}

// Result is a classifier refit on the full training set with the diagnostics
// that selected it.
type Result struct {
	Model  classifier.Classifier
	Params classifier.Params
	// CV is set when cross-validation ran, describing the chosen configuration.
	CV *CVSummary
	// Candidates is set by grid search, in grid order.
	Candidates []Candidate
}

// Trainer fits classifiers according to its options.
type Trainer struct {
	opts   Options
	logger *slog.Logger
}

// New creates a trainer. Options are validated by Fit.
func New(opts Options, logger *slog.Logger) *Trainer {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Trainer{
		opts:   opts,
		logger: logger.With("system", "training"),
	}
}

// Fit trains on x and y. With grid search, every grid configuration is
// cross-validated and the best mean macro F1 (first in grid order on ties)
// is refit. With CV alone, the default configuration is cross-validated for
// diagnostics and refit. Otherwise the default configuration is fit directly.
func (t *Trainer) Fit(ctx context.Context, x *mat.Dense, y []int) (*Result, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	candidates := []classifier.Params{classifier.DefaultParams(t.opts.Family)}
	if t.opts.GridSearch {
		candidates = Grid(t.opts.Family)
	}

	result := &Result{Params: candidates[0]}

	if t.opts.CV > 0 {
		t.logger.InfoContext(ctx, "cross-validating",
			"family", t.opts.Family,
			"folds", t.opts.CV,
			"candidates", len(candidates),
			"workers", t.opts.Workers,
		)

		summaries, err := t.crossValidate(ctx, candidates, x, y)
		if err != nil {
			return nil, err
		}

		best := 0
		for i, s := range summaries {
			if s.F1Macro.Mean > summaries[best].F1Macro.Mean {
				best = i
			}
		}

		result.Params = candidates[best]
		result.CV = summaries[best]

		if t.opts.GridSearch {
			result.Candidates = make([]Candidate, len(candidates))
			for i, p := range candidates {
				result.Candidates[i] = Candidate{Params: p, Score: summaries[i].F1Macro.Mean}
			}
			t.logger.InfoContext(ctx, "grid search complete",
				"best_params", result.Params.Describe(t.opts.Family),
				"best_f1_macro", summaries[best].F1Macro.Mean,
			)
		}

		for _, line := range result.CV.Lines() {
			t.logger.InfoContext(ctx, "cross-validation", "result", line)
		}
	}

	model, err := t.fitOne(result.Params, x, y)
	if err != nil {
		return nil, err
	}
	result.Model = model

	t.logger.InfoContext(ctx, "model trained",
		"family", t.opts.Family,
		"params", result.Params.Describe(t.opts.Family),
		"rows", len(y),
	)
	return result, nil
}

func (t *Trainer) validate() error {
	if _, err := classifier.ParseFamily(string(t.opts.Family)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	if _, err := classifier.ParseClassWeight(string(t.opts.ClassWeight)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	if t.opts.CV < 0 || t.opts.CV == 1 {
		return fmt.Errorf("%w: cv must be 0 or at least 2, got %d", ErrInvalidConfiguration, t.opts.CV)
	}
	if t.opts.GridSearch && t.opts.CV == 0 {
		return fmt.Errorf("%w: grid search requires cv > 0", ErrInvalidConfiguration)
	}
	return nil
}

// crossValidate scores every candidate on the same stratified folds. Each
// (candidate, fold) fit writes to its own slot so results do not depend on
// scheduling.
func (t *Trainer) crossValidate(ctx context.Context, candidates []classifier.Params, x *mat.Dense, y []int) ([]*CVSummary, error) {
	folds, err := validation.StratifiedKFold(y, t.opts.CV, t.opts.Seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTrainingFailed, err)
	}

	trainX := make([]*mat.Dense, len(folds))
	testX := make([]*mat.Dense, len(folds))
	for i, f := range folds {
		trainX[i] = validation.Rows(x, f.Train)
		testX[i] = validation.Rows(x, f.Test)
	}

	scores := make([][]metrics.Summary, len(candidates))
	for i := range scores {
		scores[i] = make([]metrics.Summary, len(folds))
	}

	total := len(candidates) * len(folds)
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.opts.Workers)

	for c, params := range candidates {
		for k, fold := range folds {
			g.Go(func() error {
				if gctx.Err() != nil {
					return gctx.Err()
				}

				model, err := t.fitOne(params, trainX[k], validation.Labels(y, fold.Train))
				if err != nil {
					return err
				}

				pred := model.Predict(testX[k])
				scores[c][k] = metrics.Summarize(validation.Labels(y, fold.Test), pred)

				n := done.Add(1)
				if t.opts.Progress != nil {
					t.opts.Progress(int(n), total)
				}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	summaries := make([]*CVSummary, len(candidates))
	for c := range candidates {
		summaries[c] = summarize(scores[c])
	}
	return summaries, nil
}

func (t *Trainer) fitOne(p classifier.Params, x *mat.Dense, y []int) (classifier.Classifier, error) {
	model, err := classifier.New(t.opts.Family, p, t.opts.ClassWeight, t.opts.Seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	if err := model.Fit(x, y); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTrainingFailed, err)
	}
	return model, nil
}

func summarize(folds []metrics.Summary) *CVSummary {
	column := func(get func(metrics.Summary) float64) Stat {
		values := make([]float64, len(folds))
		for i, f := range folds {
			values[i] = get(f)
		}
		mean, std := stat.PopMeanStdDev(values, nil)
		return Stat{Mean: mean, Std: std}
	}

	return &CVSummary{
		Folds:      len(folds),
		Accuracy:   column(func(s metrics.Summary) float64 { return s.Accuracy }),
		Precision:  column(func(s metrics.Summary) float64 { return s.PrecisionWeighted }),
		Recall:     column(func(s metrics.Summary) float64 { return s.RecallWeighted }),
		F1Macro:    column(func(s metrics.Summary) float64 { return s.F1Macro }),
		F1Weighted: column(func(s metrics.Summary) float64 { return s.F1Weighted }),
	}
}
