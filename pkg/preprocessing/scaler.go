// Package preprocessing provides feature scaling fitted on training data and
// persisted alongside the model.
package preprocessing

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrNotFitted         = errors.New("scaler not fitted")
	ErrDimensionMismatch = errors.New("feature dimension mismatch")
)

// StandardScaler standardizes each column to zero mean and unit variance using
// the population standard deviation. Constant columns get a scale of 1 so they
// map to zero instead of dividing by zero.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Fit learns the per-column mean and scale of x.
func (s *StandardScaler) Fit(x mat.Matrix) error {
	rows, cols := x.Dims()
	if rows == 0 {
		return fmt.Errorf("fit scaler: empty matrix")
	}

	s.Mean = make([]float64, cols)
	s.Scale = make([]float64, cols)

	col := make([]float64, rows)
	for j := range cols {
		mat.Col(col, j, x)
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		s.Mean[j] = mean
		s.Scale[j] = std
	}
	return nil
}

// Transform returns a standardized copy of x.
func (s *StandardScaler) Transform(x mat.Matrix) (*mat.Dense, error) {
	if s.Mean == nil {
		return nil, ErrNotFitted
	}

	rows, cols := x.Dims()
	if rows == 0 {
		return nil, fmt.Errorf("transform: empty matrix")
	}
	if cols != len(s.Mean) {
		return nil, fmt.Errorf("%w: got %d columns, want %d", ErrDimensionMismatch, cols, len(s.Mean))
	}

	out := mat.NewDense(rows, cols, nil)
	out.Apply(func(i, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	}, x)
	return out, nil
}

// FitTransform fits on x and returns its standardized copy.
func (s *StandardScaler) FitTransform(x mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(x); err != nil {
		return nil, err
	}
	return s.Transform(x)
}

// TransformRow standardizes a single feature vector.
func (s *StandardScaler) TransformRow(row []float64) ([]float64, error) {
	if s.Mean == nil {
		return nil, ErrNotFitted
	}
	if len(row) != len(s.Mean) {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrDimensionMismatch, len(row), len(s.Mean))
	}
	out, err := s.Transform(mat.NewDense(1, len(row), append([]float64(nil), row...)))
	if err != nil {
		return nil, err
	}
	return out.RawRowView(0), nil
}
