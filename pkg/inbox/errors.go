package inbox

import "errors"

var (
	// ErrMessageNotFound is returned when a message does not exist for
	// the user.
	ErrMessageNotFound = errors.New("inbox: message not found")

	// ErrStoreNil is returned when an inbox is created without a store.
	ErrStoreNil = errors.New("inbox: store cannot be nil")

	// ErrInvalidMessage is returned when a message is missing required
	// fields.
	ErrInvalidMessage = errors.New("inbox: invalid message")
)
