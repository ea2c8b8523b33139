// Package pipeline runs the churn training pipeline end to end: load orders,
// label and featurize customers, split, scale, rebalance, train, evaluate,
// report, and persist the model bundle.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/churn/internal/artifacts"
	"github.com/JaimeStill/churn/internal/churn"
	"github.com/JaimeStill/churn/internal/evaluation"
	"github.com/JaimeStill/churn/internal/orders"
	"github.com/JaimeStill/churn/internal/plots"
	"github.com/JaimeStill/churn/internal/report"
	"github.com/JaimeStill/churn/internal/training"
	"github.com/JaimeStill/churn/pkg/preprocessing"
	"github.com/JaimeStill/churn/pkg/resample"
	"github.com/JaimeStill/churn/pkg/validation"
)

// Result describes a completed run.
type Result struct {
	RunID        uuid.UUID
	StartedAt    time.Time
	FinishedAt   time.Time
	Dataset      *churn.Dataset
	Correlations []churn.Correlation
	Training     *training.Result
	Metrics      *evaluation.Metrics
	Report       string
	Plots        []string
}

// Pipeline wires an order source to an artifact store. Registry is optional.
type Pipeline struct {
	source   orders.Source
	store    artifacts.Store
	registry Registry
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a pipeline. A nil registry skips run recording.
func New(source orders.Source, store artifacts.Store, registry Registry, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		source:   source,
		store:    store,
		registry: registry,
		logger:   logger.With("system", "pipeline"),
		now:      time.Now,
	}
}

// Run executes one training run. The bundle is saved only after every step
// succeeded; any failure leaves the previously stored bundle in place. A
// replica that misses the new bundle is logged, not returned.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	res := &Result{RunID: uuid.New(), StartedAt: p.now()}
	logger := p.logger.With("run_id", res.RunID)

	rows, err := p.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	logger.InfoContext(ctx, "orders loaded", "rows", len(rows), "cutoff", opts.Cutoff.Format(time.DateOnly))

	labels := churn.DefineLabels(rows, opts.Cutoff)
	features := churn.BuildFeatures(rows, opts.Cutoff)

	ds, err := churn.Assemble(features, labels)
	if err != nil {
		return nil, fmt.Errorf("assemble dataset: %w", err)
	}
	res.Dataset = ds

	retained, churned := ds.ClassCounts()
	logger.InfoContext(ctx, "dataset assembled",
		"customers", ds.Len(),
		"retained", retained,
		"churned", churned,
		"churn_rate", ds.ChurnRate(),
	)
	for col, n := range ds.Filled {
		if n > 0 {
			logger.InfoContext(ctx, "missing values filled", "column", col, "count", n)
		}
	}

	res.Correlations = churn.Correlations(ds)

	trainIdx, testIdx, err := validation.StratifiedSplit(ds.Y, opts.TestSize, opts.Seed)
	if err != nil {
		return nil, fmt.Errorf("split dataset: %w", err)
	}

	var scaler preprocessing.StandardScaler
	trainX, err := scaler.FitTransform(validation.Rows(ds.X, trainIdx))
	if err != nil {
		return nil, fmt.Errorf("scale training set: %w", err)
	}
	testX, err := scaler.Transform(validation.Rows(ds.X, testIdx))
	if err != nil {
		return nil, fmt.Errorf("scale test set: %w", err)
	}
	trainY := validation.Labels(ds.Y, trainIdx)
	testY := validation.Labels(ds.Y, testIdx)

	trainX, trainY, err = resample.Apply(opts.Rebalance, trainX, trainY, resample.Options{
		K:      opts.SmoteK,
		Seed:   opts.Seed,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("rebalance training set: %w", err)
	}

	trainer := training.New(training.Options{
		Family:      opts.Family,
		ClassWeight: opts.ClassWeight,
		CV:          opts.CV,
		GridSearch:  opts.GridSearch,
		Seed:        opts.Seed,
		Workers:     opts.Workers,
		Progress:    opts.Progress,
	}, logger)

	trained, err := trainer.Fit(ctx, trainX, trainY)
	if err != nil {
		return nil, fmt.Errorf("train model: %w", err)
	}
	res.Training = trained

	res.Metrics = evaluation.Evaluate(trained.Model, testX, testY, ds.FeatureNames)
	logger.InfoContext(ctx, "model evaluated",
		"accuracy", res.Metrics.Accuracy,
		"f1_macro", res.Metrics.F1Macro,
		"auc_roc", res.Metrics.AUCROC,
	)

	res.Report = report.Render(report.Input{
		ExecutedAt:   p.now(),
		Cutoff:       opts.Cutoff,
		Rebalance:    string(opts.Rebalance),
		Model:        opts.Family,
		ClassWeight:  opts.ClassWeight,
		Retained:     retained,
		Churned:      churned,
		ChurnRate:    ds.ChurnRate(),
		Correlations: res.Correlations,
		Metrics:      res.Metrics,
	})

	bundle := &artifacts.Bundle{
		Model:          trained.Model,
		Scaler:         &scaler,
		FeatureColumns: ds.FeatureNames,
		Report:         res.Report,
	}
	if err := p.store.Save(ctx, bundle); err != nil {
		if !errors.Is(err, artifacts.ErrReplicaFailed) {
			return nil, fmt.Errorf("save artifacts: %w", err)
		}
		logger.WarnContext(ctx, "model bundle replica not updated", "error", err)
	}
	logger.InfoContext(ctx, "model bundle saved")

	if opts.PlotsDir != "" {
		written, err := plots.Write(opts.PlotsDir, res.Metrics)
		if err != nil {
			logger.WarnContext(ctx, "plot rendering failed", "error", err)
		}
		res.Plots = written
	}

	res.FinishedAt = p.now()

	if p.registry != nil {
		if err := p.registry.Record(ctx, newRun(res, opts)); err != nil {
			logger.WarnContext(ctx, "run registry write failed", "error", err)
		}
	}

	return res, nil
}
