package predictor

import (
	"errors"
	"strings"
)

var (
	ErrMissingFeature = errors.New("missing feature")
	ErrInvalidBundle  = errors.New("invalid model bundle")
)

// MissingFeatureError lists every persisted feature absent from an input row.
type MissingFeatureError struct {
	Columns []string
}

func (e *MissingFeatureError) Error() string {
	return ErrMissingFeature.Error() + ": " + strings.Join(e.Columns, ", ")
}

func (e *MissingFeatureError) Unwrap() error {
	return ErrMissingFeature
}
