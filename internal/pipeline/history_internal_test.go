package pipeline

import (
	"database/sql"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/churn/pkg/pagination"
	"github.com/JaimeStill/churn/pkg/query"
)

func TestListQueries(t *testing.T) {
	model := "xgboost"
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	page := pagination.PageRequest{Page: 3, PageSize: 10}

	tests := []struct {
		name      string
		driver    string
		filter    RunFilter
		wantWhere string
		wantArgs  int
	}{
		{"no filter", "pgx", RunFilter{}, "", 0},
		{"model", "pgx", RunFilter{Model: &model}, " WHERE r.model = $1", 1},
		{"model and since", "pgx", RunFilter{Model: &model, Since: &since}, " WHERE r.model = $1 AND r.started_at >= $2", 2},
		{"mysql rebinds", "mysql", RunFilter{Model: &model, Since: &since}, " WHERE r.model = ? AND r.started_at >= ?", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, list, args, err := listQueries(tt.driver, tt.filter, page)
			if err != nil {
				t.Fatalf("listQueries: %v", err)
			}

			if want := "SELECT COUNT(*) FROM churn_runs r" + tt.wantWhere; count != want {
				t.Errorf("count = %q, want %q", count, want)
			}
			if !strings.Contains(list, tt.wantWhere+" ORDER BY r.started_at DESC LIMIT 10 OFFSET 20") {
				t.Errorf("list = %q", list)
			}
			if len(args) != tt.wantArgs {
				t.Errorf("args = %v, want %d", args, tt.wantArgs)
			}
		})
	}
}

func TestListQueriesSort(t *testing.T) {
	page := pagination.NewPageRequest(1, 5, "-accuracy,model", pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})

	_, list, _, err := listQueries("pgx", RunFilter{}, page)
	if err != nil {
		t.Fatalf("listQueries: %v", err)
	}
	if !strings.HasSuffix(list, " ORDER BY r.accuracy DESC, r.model ASC LIMIT 5 OFFSET 0") {
		t.Errorf("list = %q", list)
	}

	page.Sort = pagination.SortFields{{Field: "options"}}
	if _, _, _, err := listQueries("pgx", RunFilter{}, page); !errors.Is(err, query.ErrUnknownField) {
		t.Errorf("err = %v, want ErrUnknownField", err)
	}
}

type summaryRow []any

func (r summaryRow) Scan(dest ...any) error {
	for i, v := range r {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *time.Time:
			*d = v.(time.Time)
		case *int:
			*d = v.(int)
		case *bool:
			*d = v.(bool)
		case *sql.NullFloat64:
			if v != nil {
				*d = sql.NullFloat64{Float64: v.(float64), Valid: true}
			}
		}
	}
	return nil
}

func TestScanRunSummary(t *testing.T) {
	id := uuid.New()
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cutoff := time.Date(2018, 4, 17, 0, 0, 0, 0, time.UTC)

	row := summaryRow{
		id.String(), started, "random_forest", "smote", "balanced", cutoff,
		5, false, 1000,
		0.8, 0.91, 0.85, 0.9, nil, 0.7,
	}

	got, err := scanRunSummary(row)
	if err != nil {
		t.Fatalf("scanRunSummary: %v", err)
	}

	if got.ID != id || !got.StartedAt.Equal(started) || got.Model != "random_forest" {
		t.Errorf("identity = %v %v %q", got.ID, got.StartedAt, got.Model)
	}
	if got.CV != 5 || got.Customers != 1000 {
		t.Errorf("cv = %d customers = %d", got.CV, got.Customers)
	}
	if got.Accuracy != 0.91 || got.AveragePrecision != 0.7 {
		t.Errorf("accuracy = %v average precision = %v", got.Accuracy, got.AveragePrecision)
	}
	if !math.IsNaN(got.AUCROC) {
		t.Errorf("AUCROC = %v, want NaN for NULL", got.AUCROC)
	}
}

func TestScanRunSummaryBadID(t *testing.T) {
	row := summaryRow{
		"not-a-uuid", time.Now(), "xgboost", "none", "none", time.Now(),
		0, false, 10,
		nil, nil, nil, nil, nil, nil,
	}

	if _, err := scanRunSummary(row); err == nil {
		t.Error("expected error for malformed id")
	}
}
