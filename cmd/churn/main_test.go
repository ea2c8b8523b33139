package main

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/JaimeStill/churn/internal/config"
	"github.com/JaimeStill/churn/internal/report"
)

func TestReadInput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "customer.json")
	if err := os.WriteFile(path, []byte(`{"recency": 10}`), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		input string
		stdin string
		want  string
	}{
		{"inline json", ` {"recency": 10}`, "", `{"recency": 10}`},
		{"fenced", "```json\n{\"recency\": 10}\n```", "", "```json\n{\"recency\": 10}\n```"},
		{"file", path, "", `{"recency": 10}`},
		{"stdin", "-", `{"recency": 3}`, `{"recency": 3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readInput(tt.input, strings.NewReader(tt.stdin))
			if err != nil {
				t.Fatalf("readInput: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadInputMissingFile(t *testing.T) {
	if _, err := readInput(filepath.Join(t.TempDir(), "absent.json"), nil); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestTrainFlagsApply(t *testing.T) {
	cmd := trainCmd()
	if err := cmd.Flags().Parse([]string{"--model", "xgboost", "--cv", "0"}); err != nil {
		t.Fatal(err)
	}

	f := trainFlags{model: "xgboost", cv: 0, rebalance: "ignored"}
	cfg := loadDefaults(t)
	if err := f.apply(cmd, cfg); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if cfg.Pipeline.Model != "xgboost" || cfg.Pipeline.Folds() != 0 {
		t.Errorf("model/cv = %s/%d, want xgboost/0", cfg.Pipeline.Model, cfg.Pipeline.Folds())
	}
	if cfg.Pipeline.Rebalance != "smote" {
		t.Errorf("rebalance = %s, unchanged flag must not override", cfg.Pipeline.Rebalance)
	}
}

func TestTrainFlagsApplyInvalid(t *testing.T) {
	cmd := trainCmd()
	if err := cmd.Flags().Parse([]string{"--cv", "0", "--grid_search"}); err != nil {
		t.Fatal(err)
	}

	f := trainFlags{cv: 0, gridSearch: true}
	if err := f.apply(cmd, loadDefaults(t)); err == nil {
		t.Error("expected grid search without cv to be rejected")
	}
}

func TestTrainFlagsApplyWorkers(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"explicit", []string{"--workers", "3"}, 3},
		{"zero means cpu count", []string{"--workers", "0"}, runtime.NumCPU()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := trainCmd()
			if err := cmd.Flags().Parse(tt.args); err != nil {
				t.Fatal(err)
			}
			workers, err := cmd.Flags().GetInt("workers")
			if err != nil {
				t.Fatal(err)
			}

			f := trainFlags{workers: workers}
			cfg := loadDefaults(t)
			if err := f.apply(cmd, cfg); err != nil {
				t.Fatalf("apply: %v", err)
			}
			if cfg.Pipeline.Workers != tt.want {
				t.Errorf("workers = %d, want %d", cfg.Pipeline.Workers, tt.want)
			}
		})
	}
}

func TestDecodeRow(t *testing.T) {
	row, err := decodeRow(`{"recency": null, "num_orders": 2}`)
	if err != nil {
		t.Fatalf("decodeRow: %v", err)
	}
	if !math.IsNaN(row["recency"]) {
		t.Errorf("recency = %v, want NaN for null", row["recency"])
	}
	if row["num_orders"] != 2 {
		t.Errorf("num_orders = %v, want 2", row["num_orders"])
	}
	if _, ok := row["total_spent"]; ok {
		t.Error("absent key must stay absent")
	}

	if _, err := decodeRow(`{"recency": "soon"}`); err == nil {
		t.Error("expected error for non-numeric value")
	}
}

func TestWriteHeadline(t *testing.T) {
	var buf bytes.Buffer
	writeHeadline(&buf, &report.Headline{
		Accuracy:  0.9,
		AUCROC:    math.NaN(),
		Retained:  20,
		Churned:   80,
		ChurnRate: "80.00%",
	})

	out := buf.String()
	for _, want := range []string{"Clientes churn: 80", "Taxa de churn: 80.00%", "0.9000", "indefinido"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func loadDefaults(t *testing.T) *config.Config {
	t.Helper()
	t.Chdir(t.TempDir())
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}
