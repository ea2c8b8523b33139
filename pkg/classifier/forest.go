package classifier

import (
	"math"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Forest is a random forest of bootstrap CART trees split on Gini impurity,
// considering sqrt(features) candidates per split. Probabilities are the mean
// of the trees' leaf probabilities.
type Forest struct {
	Params      Params      `json:"params"`
	ClassWeight ClassWeight `json:"class_weight"`
	Seed        uint64      `json:"seed"`
	Trees       []Tree      `json:"trees"`
	Importances []float64   `json:"importances"`
}

func (f *Forest) Family() Family { return RandomForest }

func (f *Forest) Fit(x mat.Matrix, y []int) error {
	if err := checkTraining(x, y); err != nil {
		return err
	}

	_, cols := rowsOf(x)
	n, nFeatures := len(y), len(cols)
	classWeights := f.ClassWeight.SampleWeights(y)
	maxFeatures := max(1, int(math.Sqrt(float64(nFeatures))))

	trees := make([]Tree, f.Params.NEstimators)
	importances := make([][]float64, f.Params.NEstimators)

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))

	for t := range trees {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(f.Seed, uint64(t)))

			count := make([]int, n)
			for range n {
				count[rng.IntN(n)]++
			}

			idx := make([]int, 0, n)
			w := make([]float64, n)
			for i, c := range count {
				if c > 0 {
					idx = append(idx, i)
					w[i] = float64(c) * classWeights[i]
				}
			}

			builder := &giniTree{
				splitter: splitter{
					cols:       cols,
					maxDepth:   f.Params.MaxDepth,
					importance: make([]float64, nFeatures),
				},
				y:               y,
				w:               w,
				count:           count,
				maxFeatures:     maxFeatures,
				minSamplesSplit: max(f.Params.MinSamplesSplit, 2*f.Params.MinSamplesLeaf),
				minSamplesLeaf:  f.Params.MinSamplesLeaf,
				rng:             rng,
			}

			trees[t] = builder.grow(idx)
			importances[t] = normalize(builder.importance)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	mean := make([]float64, nFeatures)
	for _, imp := range importances {
		for j, v := range imp {
			mean[j] += v / float64(len(importances))
		}
	}

	f.Trees = trees
	f.Importances = normalize(mean)
	return nil
}

func (f *Forest) PredictProba(x mat.Matrix) []float64 {
	rows, _ := rowsOf(x)
	out := make([]float64, len(rows))
	for i, row := range rows {
		var sum float64
		for t := range f.Trees {
			sum += f.Trees[t].Eval(row)
		}
		out[i] = sum / float64(len(f.Trees))
	}
	return out
}

func (f *Forest) Predict(x mat.Matrix) []int {
	return threshold(f.PredictProba(x))
}

func (f *Forest) FeatureImportances() []float64 {
	return append([]float64(nil), f.Importances...)
}
