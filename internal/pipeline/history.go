package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/churn/pkg/database"
	"github.com/JaimeStill/churn/pkg/pagination"
	"github.com/JaimeStill/churn/pkg/query"
	"github.com/JaimeStill/churn/pkg/repository"
)

// RunSummary is one row of the training run history. Undefined metrics are NaN.
type RunSummary struct {
	ID               uuid.UUID `json:"id"`
	StartedAt        time.Time `json:"started_at"`
	Model            string    `json:"model"`
	Rebalance        string    `json:"rebalance"`
	ClassWeight      string    `json:"class_weight"`
	Cutoff           time.Time `json:"cutoff_date"`
	CV               int       `json:"cv"`
	GridSearch       bool      `json:"grid_search"`
	Customers        int       `json:"customers"`
	ChurnRate        float64   `json:"churn_rate"`
	Accuracy         float64   `json:"accuracy"`
	F1Macro          float64   `json:"f1_macro"`
	F1Weighted       float64   `json:"f1_weighted"`
	AUCROC           float64   `json:"auc_roc"`
	AveragePrecision float64   `json:"average_precision"`
}

// RunFilter narrows the history listing. Nil fields are ignored.
type RunFilter struct {
	Model     *string
	Rebalance *string
	Since     *time.Time
}

var runProjection = query.NewProjectionMap("churn_runs", "r").
	Project("id", "id").
	Project("started_at", "started_at").
	Project("model", "model").
	Project("rebalance", "rebalance").
	Project("class_weight", "class_weight").
	Project("cutoff_date", "cutoff_date").
	Project("cv", "cv").
	Project("grid_search", "grid_search").
	Project("customers", "customers").
	Project("churn_rate", "churn_rate").
	Project("accuracy", "accuracy").
	Project("f1_macro", "f1_macro").
	Project("f1_weighted", "f1_weighted").
	Project("auc_roc", "auc_roc").
	Project("average_precision", "average_precision")

var defaultRunSort = query.SortField{Field: "started_at", Descending: true}

// History lists recorded training runs.
type History struct {
	db database.System
}

// NewHistory reads runs from the churn_runs table of db.
func NewHistory(db database.System) *History {
	return &History{db: db}
}

// List returns one page of runs matching filter, newest first unless
// page.Sort names other projected fields. Unknown sort fields are
// query.ErrUnknownField.
func (h *History) List(ctx context.Context, filter RunFilter, page pagination.PageRequest) (pagination.PageResult[RunSummary], error) {
	countSQL, pageSQL, args, err := listQueries(h.db.Driver(), filter, page)
	if err != nil {
		return pagination.PageResult[RunSummary]{}, err
	}

	conn := h.db.Connection()

	total, err := repository.QueryOne(ctx, conn, countSQL, args, scanCount)
	if err != nil {
		return pagination.PageResult[RunSummary]{}, fmt.Errorf("count runs: %w", err)
	}

	runs, err := repository.QueryMany(ctx, conn, pageSQL, args, scanRunSummary)
	if err != nil {
		return pagination.PageResult[RunSummary]{}, fmt.Errorf("list runs: %w", err)
	}

	return pagination.NewPageResult(runs, total, page.Page, page.PageSize), nil
}

func listQueries(driver string, filter RunFilter, page pagination.PageRequest) (count, list string, args []any, err error) {
	b := query.NewBuilder(runProjection, defaultRunSort).
		WhereEquals("model", filter.Model).
		WhereEquals("rebalance", filter.Rebalance).
		WhereAtLeast("started_at", filter.Since).
		OrderByFields(page.Sort)

	count, args, err = b.BuildCount()
	if err != nil {
		return "", "", nil, err
	}
	list, _, err = b.BuildPage(page.Page, page.PageSize)
	if err != nil {
		return "", "", nil, err
	}

	return repository.Rebind(driver, count), repository.Rebind(driver, list), args, nil
}

func scanRunSummary(sc repository.Scanner) (RunSummary, error) {
	var (
		r       RunSummary
		id      string
		metrics [6]sql.NullFloat64
	)

	err := sc.Scan(
		&id, &r.StartedAt, &r.Model, &r.Rebalance, &r.ClassWeight, &r.Cutoff,
		&r.CV, &r.GridSearch, &r.Customers,
		&metrics[0], &metrics[1], &metrics[2], &metrics[3], &metrics[4], &metrics[5],
	)
	if err != nil {
		return RunSummary{}, err
	}

	if r.ID, err = uuid.Parse(id); err != nil {
		return RunSummary{}, fmt.Errorf("parse run id %q: %w", id, err)
	}

	r.ChurnRate = orUndefined(metrics[0])
	r.Accuracy = orUndefined(metrics[1])
	r.F1Macro = orUndefined(metrics[2])
	r.F1Weighted = orUndefined(metrics[3])
	r.AUCROC = orUndefined(metrics[4])
	r.AveragePrecision = orUndefined(metrics[5])

	return r, nil
}

func scanCount(sc repository.Scanner) (int, error) {
	var n int
	err := sc.Scan(&n)
	return n, err
}

// orUndefined is the inverse of nullable.
func orUndefined(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
