package retry

import "errors"

var (
	// ErrDeadLetterNil is returned when a controller is created without a
	// dead-letter store.
	ErrDeadLetterNil = errors.New("retry: dead-letter store cannot be nil")

	// ErrEntryNotFound is returned when a dead-letter entry does not exist.
	ErrEntryNotFound = errors.New("retry: dead-letter entry not found")
)
