package classifier

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

const (
	boostLambda         = 1.0
	boostMinChildWeight = 1.0
)

// Boosting is a gradient-boosted tree ensemble on the logistic loss, grown with
// second-order (Newton) leaf values, L2 leaf regularization, and row subsampling
// without replacement per round. Importances are the total split gain per feature.
type Boosting struct {
	Params      Params      `json:"params"`
	ClassWeight ClassWeight `json:"class_weight"`
	Seed        uint64      `json:"seed"`
	BaseMargin  float64     `json:"base_margin"`
	Trees       []Tree      `json:"trees"`
	Importances []float64   `json:"importances"`
}

func (b *Boosting) Family() Family { return GradientBoosting }

func (b *Boosting) Fit(x mat.Matrix, y []int) error {
	if err := checkTraining(x, y); err != nil {
		return err
	}

	rows, cols := rowsOf(x)
	n := len(y)
	w := b.ClassWeight.SampleWeights(y)
	rng := rand.New(rand.NewPCG(b.Seed, 0x6a09e667f3bcc908))

	margin := make([]float64, n)
	grad := make([]float64, n)
	hess := make([]float64, n)
	importance := make([]float64, len(cols))
	trees := make([]Tree, 0, b.Params.NEstimators)

	sampleSize := max(1, int(math.Round(b.Params.Subsample*float64(n))))
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}

	for range b.Params.NEstimators {
		for i := range n {
			p := sigmoid(b.BaseMargin + margin[i])
			grad[i] = (p - float64(y[i])) * w[i]
			hess[i] = math.Max(p*(1-p), 1e-16) * w[i]
		}

		idx := all
		if sampleSize < n {
			perm := rng.Perm(n)
			idx = perm[:sampleSize]
		}

		builder := &gradientTree{
			splitter: splitter{
				cols:       cols,
				maxDepth:   b.Params.MaxDepth,
				importance: importance,
			},
			grad:           grad,
			hess:           hess,
			lambda:         boostLambda,
			minChildWeight: boostMinChildWeight,
			learningRate:   b.Params.LearningRate,
		}
		tree := builder.grow(idx)
		trees = append(trees, tree)

		for i, row := range rows {
			margin[i] += tree.Eval(row)
		}
	}

	b.Trees = trees
	b.Importances = normalize(importance)
	return nil
}

func (b *Boosting) PredictProba(x mat.Matrix) []float64 {
	rows, _ := rowsOf(x)
	out := make([]float64, len(rows))
	for i, row := range rows {
		m := b.BaseMargin
		for t := range b.Trees {
			m += b.Trees[t].Eval(row)
		}
		out[i] = sigmoid(m)
	}
	return out
}

func (b *Boosting) Predict(x mat.Matrix) []int {
	return threshold(b.PredictProba(x))
}

func (b *Boosting) FeatureImportances() []float64 {
	return append([]float64(nil), b.Importances...)
}
