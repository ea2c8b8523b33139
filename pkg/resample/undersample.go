package resample

import (
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// undersample drops majority rows at random, without replacement, until both
// classes have equal counts. Surviving rows keep their original order.
func undersample(x *mat.Dense, y []int, rng *rand.Rand) (*mat.Dense, []int, error) {
	minority, majority, _, err := split(y)
	if err != nil {
		return nil, nil, err
	}

	shuffled := slices.Clone(majority)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	keep := append(slices.Clone(minority), shuffled[:len(minority)]...)
	slices.Sort(keep)

	_, cols := x.Dims()
	out := mat.NewDense(len(keep), cols, nil)
	outY := make([]int, len(keep))
	for i, row := range keep {
		out.SetRow(i, x.RawRowView(row))
		outY[i] = y[row]
	}

	return out, outY, nil
}
