package churn

import "errors"

var (
	// ErrIncompleteDataset is returned when a feature value is still missing
	// after every fill rule has been applied.
	ErrIncompleteDataset = errors.New("incomplete dataset")
	// ErrEmptyDataset is returned when no customer has both features and a label.
	ErrEmptyDataset = errors.New("empty dataset")
)
