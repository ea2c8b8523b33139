package database

import "errors"

// ErrNotConfigured indicates a database-backed component was requested without
// connection settings.
var ErrNotConfigured = errors.New("database not configured")
