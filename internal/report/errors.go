package report

import "errors"

var ErrMalformedReport = errors.New("malformed analysis report")
