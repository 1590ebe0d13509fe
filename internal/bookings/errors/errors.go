package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrStatusChanged is returned when a compare-and-set update matches no
	// document: the stored status was not the one the caller read.
	ErrStatusChanged = errors.New("booking status changed concurrently")

	ErrSlotLocked = errors.New("slot lock already held")

	ErrSequenceConflict = errors.New("sequence counter advanced concurrently")

	ErrAlreadyReminded = errors.New("reminder already sent")
)
