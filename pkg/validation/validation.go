// Package validation splits labeled data into stratified train/test partitions
// and cross-validation folds.
package validation

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/mat"
)

var ErrTooFewSamples = errors.New("too few samples")

// Fold is one cross-validation partition of row indices.
type Fold struct {
	Train []int
	Test  []int
}

// StratifiedSplit partitions row indices into train and test sets, keeping the
// class proportions of y in both. Each class contributes round(testSize*n)
// rows to the test set, clamped so that both sides keep at least one row of
// every class with two or more members. A split that leaves either side empty
// is ErrTooFewSamples.
func StratifiedSplit(y []int, testSize float64, seed uint64) (train, test []int, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size must be in (0, 1), got %v", testSize)
	}
	if len(y) < 2 {
		return nil, nil, fmt.Errorf("%w: cannot split %d rows", ErrTooFewSamples, len(y))
	}

	rng := newRand(seed)
	classes := byClass(y)
	for _, members := range classes {
		rng.Shuffle(len(members), func(i, j int) {
			members[i], members[j] = members[j], members[i]
		})

		n := len(members)
		nTest := int(math.Round(testSize * float64(n)))
		if n >= 2 {
			nTest = max(1, min(nTest, n-1))
		} else {
			nTest = 0
		}

		test = append(test, members[:nTest]...)
		train = append(train, members[nTest:]...)
	}

	if len(train) == 0 || len(test) == 0 {
		sizes := make([]int, len(classes))
		for i, members := range classes {
			sizes[i] = len(members)
		}
		return nil, nil, fmt.Errorf("%w: class sizes %v leave an empty train or test set", ErrTooFewSamples, sizes)
	}

	slices.Sort(train)
	slices.Sort(test)
	return train, test, nil
}

// StratifiedKFold deals the rows of each class, shuffled, round-robin into k
// folds so every fold keeps roughly the class proportions of y.
func StratifiedKFold(y []int, k int, seed uint64) ([]Fold, error) {
	if k < 2 {
		return nil, fmt.Errorf("k must be at least 2, got %d", k)
	}
	if len(y) < k {
		return nil, fmt.Errorf("%w: %d rows for %d folds", ErrTooFewSamples, len(y), k)
	}

	assignment := make([]int, len(y))
	rng := newRand(seed)
	offset := 0
	for _, members := range byClass(y) {
		rng.Shuffle(len(members), func(i, j int) {
			members[i], members[j] = members[j], members[i]
		})
		for i, row := range members {
			assignment[row] = (offset + i) % k
		}
		offset += len(members)
	}

	folds := make([]Fold, k)
	for row, f := range assignment {
		for i := range folds {
			if i == f {
				folds[i].Test = append(folds[i].Test, row)
			} else {
				folds[i].Train = append(folds[i].Train, row)
			}
		}
	}
	return folds, nil
}

// Rows returns a new matrix holding the given rows of x, in order.
func Rows(x mat.Matrix, idx []int) *mat.Dense {
	_, cols := x.Dims()
	out := mat.NewDense(len(idx), cols, nil)
	for i, r := range idx {
		for j := range cols {
			out.Set(i, j, x.At(r, j))
		}
	}
	return out
}

// Labels returns the labels at idx, in order.
func Labels(y []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, r := range idx {
		out[i] = y[r]
	}
	return out
}

// byClass groups row indices by label, in ascending label order.
func byClass(y []int) [][]int {
	groups := make(map[int][]int)
	for i, v := range y {
		groups[v] = append(groups[v], i)
	}

	labels := make([]int, 0, len(groups))
	for l := range groups {
		labels = append(labels, l)
	}
	slices.Sort(labels)

	result := make([][]int, len(labels))
	for i, l := range labels {
		result[i] = groups[l]
	}
	return result
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
