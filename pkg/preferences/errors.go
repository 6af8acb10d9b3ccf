package preferences

import "errors"

var (
	// ErrNotFound is returned by stores when a user has no preference record.
	ErrNotFound = errors.New("preferences: not found")

	// ErrStoreNil is returned when a resolver is created without a store.
	ErrStoreNil = errors.New("preferences: store cannot be nil")

	// ErrInvalidQuietHours is returned for a quiet-hours window with
	// out-of-range minutes or an unknown timezone.
	ErrInvalidQuietHours = errors.New("preferences: invalid quiet hours window")
)
