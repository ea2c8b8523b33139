package orders

import (
	"errors"
	"fmt"
)

// ErrDataContract is returned when the order table is missing a required column
// or a row carries a null customer id or purchase timestamp.
var ErrDataContract = errors.New("data contract violation")

func contractError(row int, column, reason string) error {
	if row == 0 {
		return fmt.Errorf("%w: column %s: %s", ErrDataContract, column, reason)
	}
	return fmt.Errorf("%w: row %d: column %s: %s", ErrDataContract, row, column, reason)
}
