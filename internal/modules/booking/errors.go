package booking

import (
	"errors"
	"fmt"

	"pinjamin/internal/domain"
)

var (
	ErrValidation            = errors.New("validation error")
	ErrNotFound              = errors.New("booking not found")
	ErrForbidden             = errors.New("forbidden")
	ErrMissingReason         = errors.New("rejection reason is required")
	ErrAlreadyDecided        = errors.New("booking already decided")
	ErrInvalidTransition     = errors.New("invalid booking status transition")
	ErrSlotNoLongerAvailable = errors.New("slot no longer available")
	ErrNotElapsed            = errors.New("booking has not ended yet")
)

// ConflictError carries the bookings the candidate range collided with,
// sorted by start time.
type ConflictError struct {
	Conflicts []domain.Booking
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("room is not available: %d conflicting booking(s)", len(e.Conflicts))
}
