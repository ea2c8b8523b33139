package pipeline

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/churn/pkg/database"
	"github.com/JaimeStill/churn/pkg/repository"
)

// Run is the registry record of a completed training run.
type Run struct {
	ID               uuid.UUID
	StartedAt        time.Time
	FinishedAt       time.Time
	Options          Options
	Params           string
	Customers        int
	ChurnRate        float64
	Accuracy         float64
	F1Macro          float64
	F1Weighted       float64
	AUCROC           float64
	AveragePrecision float64
}

func newRun(res *Result, opts Options) Run {
	return Run{
		ID:               res.RunID,
		StartedAt:        res.StartedAt,
		FinishedAt:       res.FinishedAt,
		Options:          opts,
		Params:           res.Training.Params.Describe(opts.Family),
		Customers:        res.Dataset.Len(),
		ChurnRate:        res.Dataset.ChurnRate(),
		Accuracy:         res.Metrics.Accuracy,
		F1Macro:          res.Metrics.F1Macro,
		F1Weighted:       res.Metrics.F1Weighted,
		AUCROC:           res.Metrics.AUCROC,
		AveragePrecision: res.Metrics.AveragePrecision,
	}
}

// Registry records completed runs.
type Registry interface {
	Record(ctx context.Context, run Run) error
}

type sqlRegistry struct {
	db database.System
}

// NewRegistry records runs in the churn_runs table of db.
func NewRegistry(db database.System) Registry {
	return &sqlRegistry{db: db}
}

const insertRun = `INSERT INTO churn_runs (
	id, started_at, finished_at, model, rebalance, class_weight, cutoff_date,
	cv, grid_search, options, params, customers, churn_rate,
	accuracy, f1_macro, f1_weighted, auc_roc, average_precision
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

func (r *sqlRegistry) Record(ctx context.Context, run Run) error {
	options, err := json.Marshal(run.Options)
	if err != nil {
		return fmt.Errorf("encode run options: %w", err)
	}

	query := repository.Rebind(r.db.Driver(), insertRun)
	err = repository.ExecExpectOne(ctx, r.db.Connection(), query,
		run.ID.String(),
		run.StartedAt.UTC(),
		run.FinishedAt.UTC(),
		string(run.Options.Family),
		string(run.Options.Rebalance),
		string(run.Options.ClassWeight),
		run.Options.Cutoff.Format(time.DateOnly),
		run.Options.CV,
		run.Options.GridSearch,
		string(options),
		run.Params,
		run.Customers,
		nullable(run.ChurnRate),
		nullable(run.Accuracy),
		nullable(run.F1Macro),
		nullable(run.F1Weighted),
		nullable(run.AUCROC),
		nullable(run.AveragePrecision),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, repository.MapError(err, ErrRunNotRecorded, ErrDuplicateRun))
	}
	return nil
}

// nullable stores undefined metrics as NULL.
func nullable(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: !math.IsNaN(v) && !math.IsInf(v, 0)}
}
