// Package resample rebalances a binary training set before fitting, either by
// synthesizing minority samples (SMOTE) or by dropping majority samples.
package resample

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Method selects a rebalancing strategy.
type Method string

const (
	SMOTE       Method = "smote"
	Undersample Method = "undersample"
	None        Method = "none"
)

var (
	// ErrInsufficientSamples is returned when the minority class is too small for
	// the requested neighbourhood, or when only one class is present.
	ErrInsufficientSamples = errors.New("insufficient samples")
	ErrUnknownMethod       = errors.New("unknown rebalance method")
)

// ParseMethod validates a method name.
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case SMOTE, Undersample, None:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// Options configures a rebalance. K is the SMOTE neighbourhood size and Seed
// drives every random choice, so equal inputs and seeds give equal outputs.
type Options struct {
	K      int
	Seed   uint64
	Logger *slog.Logger
}

// Apply rebalances (x, y) with method and returns new values; the inputs are
// never modified. Labels must be 0 or 1.
func Apply(method Method, x *mat.Dense, y []int, opts Options) (*mat.Dense, []int, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With("system", "resample", "method", string(method))

	var (
		outX *mat.Dense
		outY []int
		err  error
	)

	switch method {
	case None:
		outX, outY = mat.DenseCopyOf(x), append([]int(nil), y...)
	case SMOTE:
		outX, outY, err = smote(x, y, opts.K, newRand(opts.Seed))
	case Undersample:
		outX, outY, err = undersample(x, y, newRand(opts.Seed))
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	if err != nil {
		return nil, nil, err
	}

	counts := Counts(outY)
	logger.Info("training set rebalanced", "class_0", counts[0], "class_1", counts[1])
	return outX, outY, nil
}

// Counts returns the number of 0 and 1 labels in y.
func Counts(y []int) [2]int {
	var c [2]int
	for _, v := range y {
		c[v]++
	}
	return c
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// split returns the row indices of the minority and majority classes and their labels.
func split(y []int) (minority, majority []int, minLabel int, err error) {
	var byClass [2][]int
	for i, v := range y {
		byClass[v] = append(byClass[v], i)
	}
	if len(byClass[0]) == 0 || len(byClass[1]) == 0 {
		return nil, nil, 0, fmt.Errorf("%w: both classes are required, got counts %d/%d",
			ErrInsufficientSamples, len(byClass[0]), len(byClass[1]))
	}
	if len(byClass[1]) < len(byClass[0]) {
		return byClass[1], byClass[0], 1, nil
	}
	return byClass[0], byClass[1], 0, nil
}
