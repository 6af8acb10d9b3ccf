package notification

import "errors"

var (
	// ErrInvalidUserID is returned when a notification has no target user.
	ErrInvalidUserID = errors.New("notification: user id is required")

	// ErrInvalidType is returned for a type outside the closed enumeration.
	ErrInvalidType = errors.New("notification: unknown notification type")

	// ErrInvalidChannel is returned for an unsupported delivery channel.
	ErrInvalidChannel = errors.New("notification: unknown channel")

	// ErrNoChannels is returned when a notification requests no channels.
	ErrNoChannels = errors.New("notification: at least one channel is required")

	// ErrInvalidPriority is returned for a priority outside the known range.
	ErrInvalidPriority = errors.New("notification: invalid priority")

	// ErrEmptyTitle is returned when a notification has no title. The
	// message is optional; every channel can fall back to the title.
	ErrEmptyTitle = errors.New("notification: title is required")

	// ErrInvalidTransition is returned when a delivery unit status change
	// violates the state machine.
	ErrInvalidTransition = errors.New("notification: illegal status transition")
)
