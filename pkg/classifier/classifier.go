// Package classifier provides the binary classifiers used to score churn risk:
// a random forest of CART trees, gradient-boosted trees with a logistic loss,
// and L2-penalised logistic regression. Models serialize to JSON.
package classifier

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Family names a model family.
type Family string

const (
	RandomForest       Family = "random_forest"
	GradientBoosting   Family = "xgboost"
	LogisticRegression Family = "logistic_regression"
)

// ClassWeight selects how training rows are weighted by class.
type ClassWeight string

const (
	// Balanced weights each class by n / (2 * n_class).
	Balanced   ClassWeight = "balanced"
	Unweighted ClassWeight = "none"
)

var (
	ErrUnknownFamily      = errors.New("unknown model family")
	ErrUnknownClassWeight = errors.New("unknown class weight")
	ErrInvalidParams      = errors.New("invalid model parameters")
	ErrEmptyTrainingSet   = errors.New("empty training set")
)

// ParseFamily validates a family name.
func ParseFamily(s string) (Family, error) {
	switch f := Family(s); f {
	case RandomForest, GradientBoosting, LogisticRegression:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFamily, s)
}

// ParseClassWeight validates a class weight name.
func ParseClassWeight(s string) (ClassWeight, error) {
	switch w := ClassWeight(s); w {
	case Balanced, Unweighted:
		return w, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownClassWeight, s)
}

// SampleWeights returns one weight per label.
func (w ClassWeight) SampleWeights(y []int) []float64 {
	weights := make([]float64, len(y))
	var counts [2]float64
	for _, v := range y {
		counts[v]++
	}

	for i, v := range y {
		if w == Balanced && counts[v] > 0 {
			weights[i] = float64(len(y)) / (2 * counts[v])
		} else {
			weights[i] = 1
		}
	}
	return weights
}

// Classifier is a fitted or unfitted binary model over numeric features.
type Classifier interface {
	Family() Family
	// Fit trains on x with labels y in {0, 1}.
	Fit(x mat.Matrix, y []int) error
	// PredictProba returns P(y=1) for every row of x.
	PredictProba(x mat.Matrix) []float64
	// Predict returns the 0/1 class of every row at a 0.5 threshold.
	Predict(x mat.Matrix) []int
}

// Importancer is implemented by classifiers that expose normalized
// per-feature importances.
type Importancer interface {
	FeatureImportances() []float64
}

// Params holds the hyperparameters of every family; each family reads the
// fields it uses. MaxDepth 0 means unlimited for random forests.
type Params struct {
	NEstimators     int     `json:"n_estimators,omitempty"`
	MaxDepth        int     `json:"max_depth,omitempty"`
	MinSamplesSplit int     `json:"min_samples_split,omitempty"`
	MinSamplesLeaf  int     `json:"min_samples_leaf,omitempty"`
	LearningRate    float64 `json:"learning_rate,omitempty"`
	Subsample       float64 `json:"subsample,omitempty"`
	C               float64 `json:"C,omitempty"`
	Penalty         string  `json:"penalty,omitempty"`
	MaxIter         int     `json:"max_iter,omitempty"`
}

// DefaultParams returns the untuned configuration of a family.
func DefaultParams(f Family) Params {
	switch f {
	case RandomForest:
		return Params{NEstimators: 100, MinSamplesSplit: 2, MinSamplesLeaf: 1}
	case GradientBoosting:
		return Params{NEstimators: 100, MaxDepth: 6, LearningRate: 0.3, Subsample: 1}
	case LogisticRegression:
		return Params{C: 1, Penalty: PenaltyL2, MaxIter: 1000}
	}
	return Params{}
}

// Describe renders the parameters a family uses, for logs and reports.
func (p Params) Describe(f Family) string {
	depth := func(d int) string {
		if d == 0 {
			return "None"
		}
		return strconv.Itoa(d)
	}
	num := func(v float64) string {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}

	var parts []string
	switch f {
	case RandomForest:
		parts = []string{
			"n_estimators=" + strconv.Itoa(p.NEstimators),
			"max_depth=" + depth(p.MaxDepth),
			"min_samples_split=" + strconv.Itoa(p.MinSamplesSplit),
			"min_samples_leaf=" + strconv.Itoa(p.MinSamplesLeaf),
		}
	case GradientBoosting:
		parts = []string{
			"n_estimators=" + strconv.Itoa(p.NEstimators),
			"max_depth=" + depth(p.MaxDepth),
			"learning_rate=" + num(p.LearningRate),
			"subsample=" + num(p.Subsample),
		}
	case LogisticRegression:
		parts = []string{"C=" + num(p.C), "penalty=" + p.Penalty}
	}
	return strings.Join(parts, " ")
}

// New creates an unfitted classifier. seed drives every random choice the
// model makes while fitting.
func New(f Family, p Params, w ClassWeight, seed uint64) (Classifier, error) {
	if _, err := ParseClassWeight(string(w)); err != nil {
		return nil, err
	}

	switch f {
	case RandomForest:
		if p.NEstimators < 1 || p.MinSamplesSplit < 2 || p.MinSamplesLeaf < 1 || p.MaxDepth < 0 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidParams, p.Describe(f))
		}
		return &Forest{Params: p, ClassWeight: w, Seed: seed}, nil
	case GradientBoosting:
		if p.NEstimators < 1 || p.MaxDepth < 1 || p.LearningRate <= 0 || p.Subsample <= 0 || p.Subsample > 1 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidParams, p.Describe(f))
		}
		return &Boosting{Params: p, ClassWeight: w, Seed: seed}, nil
	case LogisticRegression:
		if p.C <= 0 || (p.Penalty != PenaltyL2 && p.Penalty != PenaltyNone) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidParams, p.Describe(f))
		}
		if p.MaxIter == 0 {
			p.MaxIter = 1000
		}
		return &Logistic{Params: p, ClassWeight: w}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, f)
}

func threshold(proba []float64) []int {
	out := make([]int, len(proba))
	for i, p := range proba {
		if p >= 0.5 {
			out[i] = 1
		}
	}
	return out
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// rowsOf copies x into row-major and column-major slices for tree building.
func rowsOf(x mat.Matrix) (rows, cols [][]float64) {
	r, c := x.Dims()
	rows = make([][]float64, r)
	cols = make([][]float64, c)
	for j := range c {
		cols[j] = make([]float64, r)
	}
	for i := range r {
		rows[i] = make([]float64, c)
		for j := range c {
			v := x.At(i, j)
			rows[i][j] = v
			cols[j][i] = v
		}
	}
	return rows, cols
}

func checkTraining(x mat.Matrix, y []int) error {
	r, _ := x.Dims()
	if r == 0 || len(y) == 0 {
		return ErrEmptyTrainingSet
	}
	if r != len(y) {
		return fmt.Errorf("%w: %d rows but %d labels", ErrInvalidParams, r, len(y))
	}
	for i, v := range y {
		if v != 0 && v != 1 {
			return fmt.Errorf("%w: label %d at row %d", ErrInvalidParams, v, i)
		}
	}
	return nil
}

func normalize(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x
	}
	out := make([]float64, len(v))
	if sum == 0 {
		return out
	}
	for i, x := range v {
		out[i] = x / sum
	}
	return out
}
