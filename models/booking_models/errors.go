package booking_models

import "errors"

var (
	// ErrValidation marks missing or malformed caller input. Never retried.
	ErrValidation = errors.New("invalid booking input")

	// ErrSlotConflict means an active booking already occupies the
	// requested (date, slot) pair. The caller should offer another slot.
	ErrSlotConflict = errors.New("time slot already booked")

	// ErrBookingNotFound means no booking exists for the given id.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrInvalidState means the operation is not legal in the booking's
	// current status, e.g. adding a service to a cancelled booking.
	ErrInvalidState = errors.New("operation not allowed in current booking status")

	// ErrAlreadyFined means a fine was already applied; at most one fine
	// per booking.
	ErrAlreadyFined = errors.New("booking already has a fine")

	// ErrInvalidAmount marks a non-positive amount where money must move.
	ErrInvalidAmount = errors.New("payment amount must be positive")

	// ErrVersionConflict is returned internally when an optimistic write
	// lost the race; Update retries on it.
	ErrVersionConflict = errors.New("booking was modified concurrently")
)
