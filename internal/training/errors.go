package training

import "errors"

var (
	ErrInvalidConfiguration = errors.New("invalid training configuration")
	ErrTrainingFailed       = errors.New("training failed")
)
