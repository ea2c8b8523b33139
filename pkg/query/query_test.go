package query_test

import (
	"errors"
	"testing"

	"github.com/JaimeStill/churn/pkg/query"
)

const selectRuns = "SELECT r.id, r.model, r.started_at FROM churn_runs r"

func testProjection() *query.ProjectionMap {
	return query.NewProjectionMap("churn_runs", "r").
		Project("id", "id").
		Project("model", "model").
		Project("started_at", "started_at")
}

func ptr(s string) *string { return &s }

func TestProjectionMap(t *testing.T) {
	p := testProjection()

	if got := p.From(); got != "churn_runs r" {
		t.Errorf("From() = %q, want %q", got, "churn_runs r")
	}
	if got := p.Alias(); got != "r" {
		t.Errorf("Alias() = %q, want %q", got, "r")
	}
	if got := p.Columns(); got != "r.id, r.model, r.started_at" {
		t.Errorf("Columns() = %q", got)
	}
	if got := len(p.ColumnList()); got != 3 {
		t.Errorf("ColumnList() length = %d, want 3", got)
	}
}

func TestProjectionMapColumnLookup(t *testing.T) {
	p := testProjection()

	tests := []struct {
		name     string
		viewName string
		want     string
		ok       bool
	}{
		{"mapped field", "model", "r.model", true},
		{"mapped timestamp", "started_at", "r.started_at", true},
		{"unmapped", "unknown", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.Column(tt.viewName)
			if got != tt.want || ok != tt.ok {
				t.Errorf("Column(%q) = (%q, %v), want (%q, %v)", tt.viewName, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParseSortFields(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []query.SortField
	}{
		{"empty string", "", nil},
		{"single ascending", "model", []query.SortField{{Field: "model"}}},
		{"single descending", "-started_at", []query.SortField{{Field: "started_at", Descending: true}}},
		{
			"multiple mixed",
			"model,-started_at",
			[]query.SortField{{Field: "model"}, {Field: "started_at", Descending: true}},
		},
		{
			"with spaces",
			" model , -started_at ",
			[]query.SortField{{Field: "model"}, {Field: "started_at", Descending: true}},
		},
		{
			"empty parts skipped",
			"model,,id",
			[]query.SortField{{Field: "model"}, {Field: "id"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := query.ParseSortFields(tt.input)
			if tt.want == nil {
				if got != nil {
					t.Errorf("ParseSortFields(%q) = %v, want nil", tt.input, got)
				}
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseSortFields(%q) length = %d, want %d", tt.input, len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseSortFields(%q)[%d] = %v, want %v", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBuilderBuild(t *testing.T) {
	sql, args, err := query.NewBuilder(testProjection()).Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if sql != selectRuns {
		t.Errorf("Build() sql = %q, want %q", sql, selectRuns)
	}
	if len(args) != 0 {
		t.Errorf("Build() args = %v, want empty", args)
	}
}

func TestBuilderBuildCount(t *testing.T) {
	b := query.NewBuilder(testProjection())
	b.WhereEquals("model", "xgboost")

	sql, args, err := b.BuildCount()
	if err != nil {
		t.Fatalf("BuildCount() error: %v", err)
	}

	want := "SELECT COUNT(*) FROM churn_runs r WHERE r.model = $1"
	if sql != want {
		t.Errorf("BuildCount() sql = %q, want %q", sql, want)
	}
	if len(args) != 1 || args[0] != "xgboost" {
		t.Errorf("BuildCount() args = %v, want [xgboost]", args)
	}
}

func TestBuilderBuildPage(t *testing.T) {
	b := query.NewBuilder(testProjection(), query.SortField{Field: "started_at", Descending: true})

	sql, _, err := b.BuildPage(2, 10)
	if err != nil {
		t.Fatalf("BuildPage() error: %v", err)
	}

	want := selectRuns + " ORDER BY r.started_at DESC LIMIT 10 OFFSET 10"
	if sql != want {
		t.Errorf("BuildPage() sql = %q, want %q", sql, want)
	}
}

func TestBuilderConditions(t *testing.T) {
	tests := []struct {
		name  string
		apply func(*query.Builder)
		where string
		args  []any
	}{
		{
			name:  "equals",
			apply: func(b *query.Builder) { b.WhereEquals("model", "random_forest") },
			where: " WHERE r.model = $1",
			args:  []any{"random_forest"},
		},
		{
			name:  "nil skipped",
			apply: func(b *query.Builder) { b.WhereEquals("model", nil) },
		},
		{
			name:  "nil pointer skipped",
			apply: func(b *query.Builder) { b.WhereEquals("model", (*string)(nil)) },
		},
		{
			name:  "pointer dereferenced",
			apply: func(b *query.Builder) { b.WhereEquals("model", ptr("xgboost")) },
			where: " WHERE r.model = $1",
			args:  []any{"xgboost"},
		},
		{
			name:  "at least",
			apply: func(b *query.Builder) { b.WhereAtLeast("started_at", "2018-01-01") },
			where: " WHERE r.started_at >= $1",
			args:  []any{"2018-01-01"},
		},
		{
			name:  "in",
			apply: func(b *query.Builder) { b.WhereIn("id", []any{"a", "b", "c"}) },
			where: " WHERE r.id IN ($1, $2, $3)",
			args:  []any{"a", "b", "c"},
		},
		{
			name:  "empty in skipped",
			apply: func(b *query.Builder) { b.WhereIn("id", nil) },
		},
		{
			name: "numbered in order",
			apply: func(b *query.Builder) {
				b.WhereEquals("model", "xgboost").WhereAtLeast("started_at", "2018-01-01")
			},
			where: " WHERE r.model = $1 AND r.started_at >= $2",
			args:  []any{"xgboost", "2018-01-01"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := query.NewBuilder(testProjection())
			tt.apply(b)

			sql, args, err := b.Build()
			if err != nil {
				t.Fatalf("Build() error: %v", err)
			}
			if want := selectRuns + tt.where; sql != want {
				t.Errorf("sql = %q, want %q", sql, want)
			}
			if len(args) != len(tt.args) {
				t.Fatalf("args = %v, want %v", args, tt.args)
			}
			for i := range args {
				if args[i] != tt.args[i] {
					t.Errorf("args[%d] = %v, want %v", i, args[i], tt.args[i])
				}
			}
		})
	}
}

func TestBuilderOrderByFields(t *testing.T) {
	b := query.NewBuilder(testProjection(), query.SortField{Field: "id"})
	b.OrderByFields([]query.SortField{
		{Field: "started_at", Descending: true},
		{Field: "model"},
	})

	sql, _, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	want := selectRuns + " ORDER BY r.started_at DESC, r.model ASC"
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
}

func TestBuilderUnknownField(t *testing.T) {
	tests := []struct {
		name  string
		apply func(*query.Builder)
	}{
		{"filter", func(b *query.Builder) { b.WhereEquals("password", "x") }},
		{"sort", func(b *query.Builder) {
			b.OrderByFields([]query.SortField{{Field: "model; DROP TABLE churn_runs"}})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := query.NewBuilder(testProjection())
			tt.apply(b)

			if _, _, err := b.Build(); !errors.Is(err, query.ErrUnknownField) {
				t.Errorf("Build() error = %v, want ErrUnknownField", err)
			}
			if _, _, err := b.BuildPage(1, 10); !errors.Is(err, query.ErrUnknownField) {
				t.Errorf("BuildPage() error = %v, want ErrUnknownField", err)
			}
		})
	}
}
