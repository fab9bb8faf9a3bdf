package appointments

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the appointment does not exist.
	ErrNotFound = errors.New("appointment not found")

	// ErrSlotTaken means another live appointment already holds the
	// provider's slot.
	ErrSlotTaken = errors.New("slot already booked")

	// ErrInvalidRequest covers malformed or unbookable booking input.
	ErrInvalidRequest = errors.New("invalid booking request")

	// ErrForbidden means the actor may not perform this change.
	ErrForbidden = errors.New("not allowed to modify this appointment")

	// ErrInvalidTransition means the status change is not permitted from
	// the appointment's current state.
	ErrInvalidTransition = errors.New("status transition not allowed")
)

func errInvalidRequest(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, reason)
}
