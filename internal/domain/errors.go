package domain

import "errors"

// Normalization failures. All of them reject the submission before
// anything is persisted.
var (
	ErrUnknownSource        = errors.New("unknown order source")
	ErrInvalidSourceBinding = errors.New("invalid source binding")
	ErrMalformedItems       = errors.New("malformed items")
	ErrEmptyOrder           = errors.New("order has no items")
)

// Transition failures.
var (
	ErrNotFound          = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrPersistence means the record state is uncertain; callers must
	// re-read before retrying.
	ErrPersistence = errors.New("persistence failure")
)
