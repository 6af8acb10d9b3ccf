package template

import "errors"

var (
	// ErrNotFound is returned when no active template exists for a
	// (type, channel) pair.
	ErrNotFound = errors.New("template: not found")

	// ErrMalformedTemplate is returned for structurally invalid templates,
	// such as an opening placeholder with no closing braces.
	ErrMalformedTemplate = errors.New("template: malformed template")

	// ErrStoreNil is returned when a renderer is created without a store.
	ErrStoreNil = errors.New("template: store cannot be nil")

	// ErrVersionNotFound is returned when activating a version that does
	// not exist.
	ErrVersionNotFound = errors.New("template: version not found")

	// ErrInvalidTemplate is returned when saving a template with missing
	// identity fields.
	ErrInvalidTemplate = errors.New("template: type and channel are required")
)
