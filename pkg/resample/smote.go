package resample

import (
	"cmp"
	"fmt"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// smote appends synthetic minority rows until both classes have equal counts.
// Each synthetic row lies on the segment between a random minority row and one
// of its k nearest minority neighbours (Euclidean).
func smote(x *mat.Dense, y []int, k int, rng *rand.Rand) (*mat.Dense, []int, error) {
	if k < 1 {
		k = 5
	}

	minority, majority, minLabel, err := split(y)
	if err != nil {
		return nil, nil, err
	}
	if len(minority) < k+1 {
		return nil, nil, fmt.Errorf("%w: smote with k=%d needs at least %d minority samples, got %d",
			ErrInsufficientSamples, k, k+1, len(minority))
	}

	rows, cols := x.Dims()
	need := len(majority) - len(minority)

	out := mat.NewDense(rows+need, cols, nil)
	out.Slice(0, rows, 0, cols).(*mat.Dense).Copy(x)
	outY := make([]int, rows+need)
	copy(outY, y)

	if need == 0 {
		return out, outY, nil
	}

	neighbours := nearest(x, minority, k)

	synthetic := make([]float64, cols)
	for n := range need {
		i := rng.IntN(len(minority))
		nb := neighbours[i][rng.IntN(k)]
		gap := rng.Float64()

		base := x.RawRowView(minority[i])
		other := x.RawRowView(nb)
		for j := range cols {
			synthetic[j] = base[j] + gap*(other[j]-base[j])
		}

		out.SetRow(rows+n, synthetic)
		outY[rows+n] = minLabel
	}

	return out, outY, nil
}

// nearest returns, for each index in members, the k closest other members.
// Ties are broken by row index.
func nearest(x *mat.Dense, members []int, k int) [][]int {
	type candidate struct {
		row  int
		dist float64
	}

	result := make([][]int, len(members))
	candidates := make([]candidate, 0, len(members)-1)

	for i, a := range members {
		candidates = candidates[:0]
		ra := x.RawRowView(a)
		for _, b := range members {
			if a == b {
				continue
			}
			candidates = append(candidates, candidate{row: b, dist: floats.Distance(ra, x.RawRowView(b), 2)})
		}

		slices.SortFunc(candidates, func(p, q candidate) int {
			if c := cmp.Compare(p.dist, q.dist); c != 0 {
				return c
			}
			return cmp.Compare(p.row, q.row)
		})

		nbs := make([]int, k)
		for j := range k {
			nbs[j] = candidates[j].row
		}
		result[i] = nbs
	}

	return result
}
