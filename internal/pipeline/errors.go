package pipeline

import "errors"

var (
	ErrRunNotRecorded = errors.New("run not recorded")
	ErrDuplicateRun   = errors.New("run already recorded")
)
