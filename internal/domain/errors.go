package domain

import "errors"

var (
	// ErrNotFound signals a missing record.
	ErrNotFound = errors.New("not found")
	// ErrValidation signals malformed input.
	ErrValidation = errors.New("validation error")
	// ErrConflict signals a state transition rejected by a conditional update.
	ErrConflict = errors.New("conflict")
	// ErrInvalidCapsule marks capsules with unrecoverably bad data; they are
	// failed immediately without retrying.
	ErrInvalidCapsule = errors.New("invalid capsule")
)
