package config

import "errors"

// ErrInvalidConfiguration is returned when a configuration value is out of range
// or names an unsupported option. It is raised before any computation starts.
var ErrInvalidConfiguration = errors.New("invalid configuration")
