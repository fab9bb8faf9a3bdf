package availability

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEntry is returned for malformed or overlapping windows
	ErrInvalidEntry = errors.New("invalid availability entry")
)

func errInvalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidEntry, reason)
}
