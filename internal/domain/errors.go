package domain

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("not found")
	ErrAlreadyCompleted = errors.New("session already finalized")
	ErrForbidden        = errors.New("forbidden")

	// ErrDuplicate is returned by storage when a unique constraint is hit.
	// Callers translate it into their own vocabulary.
	ErrDuplicate = errors.New("duplicate value")
)
