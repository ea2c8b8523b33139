package training

import "github.com/JaimeStill/churn/pkg/classifier"

// Grid returns the hyperparameter combinations searched for a family, in the
// order used to break score ties.
func Grid(f classifier.Family) []classifier.Params {
	var grid []classifier.Params

	switch f {
	case classifier.RandomForest:
		for _, n := range []int{50, 100, 200} {
			for _, depth := range []int{0, 10, 20, 30} {
				for _, split := range []int{2, 5, 10} {
					for _, leaf := range []int{1, 2, 4} {
						grid = append(grid, classifier.Params{
							NEstimators:     n,
							MaxDepth:        depth,
							MinSamplesSplit: split,
							MinSamplesLeaf:  leaf,
						})
					}
				}
			}
		}
	case classifier.GradientBoosting:
		for _, n := range []int{50, 100, 200} {
			for _, depth := range []int{3, 5, 7, 10} {
				for _, lr := range []float64{0.01, 0.05, 0.1} {
					for _, sub := range []float64{0.7, 0.8, 0.9} {
						grid = append(grid, classifier.Params{
							NEstimators:  n,
							MaxDepth:     depth,
							LearningRate: lr,
							Subsample:    sub,
						})
					}
				}
			}
		}
	case classifier.LogisticRegression:
		for _, c := range []float64{0.001, 0.01, 0.1, 1, 10, 100} {
			for _, penalty := range []string{classifier.PenaltyL2, classifier.PenaltyNone} {
				grid = append(grid, classifier.Params{
					C:       c,
					Penalty: penalty,
					MaxIter: 1000,
				})
			}
		}
	}

	return grid
}
