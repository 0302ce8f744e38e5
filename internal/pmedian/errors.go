package pmedian

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when the matrix, facility count or initial
// facility set cannot be solved. Nothing is computed when it is returned.
var ErrInvalidInput = errors.New("invalid input")

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
