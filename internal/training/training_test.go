package training_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/JaimeStill/churn/internal/training"
	"github.com/JaimeStill/churn/pkg/classifier"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func separable(n int) (*mat.Dense, []int) {
	rng := rand.New(rand.NewPCG(11, 13))
	x := mat.NewDense(n, 2, nil)
	y := make([]int, n)
	for i := range n {
		center := -1.5
		if i%4 == 0 {
			y[i] = 1
			center = 1.5
		}
		x.Set(i, 0, center+rng.NormFloat64()*0.5)
		x.Set(i, 1, rng.NormFloat64())
	}
	return x, y
}

func TestGridSizes(t *testing.T) {
	tests := []struct {
		family classifier.Family
		size   int
	}{
		{classifier.RandomForest, 108},
		{classifier.GradientBoosting, 108},
		{classifier.LogisticRegression, 12},
	}

	for _, tt := range tests {
		t.Run(string(tt.family), func(t *testing.T) {
			grid := training.Grid(tt.family)
			if len(grid) != tt.size {
				t.Errorf("len = %d, want %d", len(grid), tt.size)
			}
			for _, p := range grid {
				if _, err := classifier.New(tt.family, p, classifier.Balanced, 1); err != nil {
					t.Fatalf("grid entry %+v rejected: %v", p, err)
				}
			}
		})
	}
}

func TestFitInvalidConfiguration(t *testing.T) {
	x, y := separable(40)

	tests := []struct {
		name string
		opts training.Options
	}{
		{"unknown family", training.Options{Family: "svm", ClassWeight: classifier.Balanced}},
		{"unknown weight", training.Options{Family: classifier.RandomForest, ClassWeight: "auto"}},
		{"grid without cv", training.Options{Family: classifier.LogisticRegression, ClassWeight: classifier.Balanced, GridSearch: true}},
		{"single fold", training.Options{Family: classifier.LogisticRegression, ClassWeight: classifier.Balanced, CV: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := training.New(tt.opts, discardLogger()).Fit(context.Background(), x, y)
			if !errors.Is(err, training.ErrInvalidConfiguration) {
				t.Errorf("error = %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}

func TestFitDirect(t *testing.T) {
	x, y := separable(60)

	opts := training.Options{
		Family:      classifier.LogisticRegression,
		ClassWeight: classifier.Balanced,
		Seed:        42,
	}

	result, err := training.New(opts, discardLogger()).Fit(context.Background(), x, y)
	if err != nil {
		t.Fatalf("Fit error: %v", err)
	}
	if result.CV != nil || result.Candidates != nil {
		t.Errorf("direct fit produced diagnostics: %+v", result)
	}
	if result.Model.Family() != classifier.LogisticRegression {
		t.Errorf("Family = %s", result.Model.Family())
	}
}

func TestFitCrossValidation(t *testing.T) {
	x, y := separable(80)

	var mu sync.Mutex
	var calls, lastTotal int

	opts := training.Options{
		Family:      classifier.LogisticRegression,
		ClassWeight: classifier.Balanced,
		CV:          4,
		Seed:        42,
		Workers:     3,
		Progress: func(done, total int) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			lastTotal = total
		},
	}

	result, err := training.New(opts, discardLogger()).Fit(context.Background(), x, y)
	if err != nil {
		t.Fatalf("Fit error: %v", err)
	}
	if result.CV == nil || result.CV.Folds != 4 {
		t.Fatalf("CV = %+v, want 4 folds", result.CV)
	}
	if result.CV.Accuracy.Mean < 0.9 {
		t.Errorf("mean accuracy = %v, want >= 0.9", result.CV.Accuracy.Mean)
	}
	if result.CV.Accuracy.Std < 0 {
		t.Errorf("std = %v, want >= 0", result.CV.Accuracy.Std)
	}
	if calls != 4 || lastTotal != 4 {
		t.Errorf("progress calls = %d total = %d, want 4 and 4", calls, lastTotal)
	}
	if len(result.CV.Lines()) != 5 {
		t.Errorf("Lines = %v", result.CV.Lines())
	}
}

func TestGridSearchIndependentOfWorkers(t *testing.T) {
	x, y := separable(60)

	run := func(workers int) *training.Result {
		opts := training.Options{
			Family:      classifier.LogisticRegression,
			ClassWeight: classifier.Balanced,
			CV:          3,
			GridSearch:  true,
			Seed:        42,
			Workers:     workers,
		}
		result, err := training.New(opts, discardLogger()).Fit(context.Background(), x, y)
		if err != nil {
			t.Fatalf("Fit(workers=%d) error: %v", workers, err)
		}
		return result
	}

	serial := run(1)
	parallel := run(8)

	if len(serial.Candidates) != 12 {
		t.Fatalf("candidates = %d, want 12", len(serial.Candidates))
	}
	if serial.Params != parallel.Params {
		t.Errorf("best params differ: %+v vs %+v", serial.Params, parallel.Params)
	}
	for i := range serial.Candidates {
		if serial.Candidates[i].Score != parallel.Candidates[i].Score {
			t.Errorf("candidate %d score differs: %v vs %v", i, serial.Candidates[i].Score, parallel.Candidates[i].Score)
		}
	}

	// The winner is the first configuration reaching the best score.
	best := serial.Candidates[0]
	for _, c := range serial.Candidates {
		if c.Score > best.Score {
			best = c
		}
	}
	if best.Params != serial.Params {
		t.Errorf("Params = %+v, want first best %+v", serial.Params, best.Params)
	}
}

func TestFitCanceled(t *testing.T) {
	x, y := separable(60)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := training.Options{
		Family:      classifier.LogisticRegression,
		ClassWeight: classifier.Balanced,
		CV:          3,
		Seed:        42,
	}
	if _, err := training.New(opts, discardLogger()).Fit(ctx, x, y); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
