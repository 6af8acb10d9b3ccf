package sender

import "errors"

var (
	// ErrNoSender is returned when a registry has no sender for a
	// channel.
	ErrNoSender = errors.New("sender: no sender registered for channel")

	// ErrDuplicateSender is returned when two senders claim the same
	// channel.
	ErrDuplicateSender = errors.New("sender: duplicate sender for channel")

	// ErrWrongChannel is returned when a unit reaches a sender for a
	// different channel.
	ErrWrongChannel = errors.New("sender: unit routed to wrong channel")

	// ErrContactNotFound is returned by contact resolvers when the user
	// has no address for the channel.
	ErrContactNotFound = errors.New("sender: contact not found")

	// ErrInvalidSignatureConfig is returned when signing input is
	// incomplete.
	ErrInvalidSignatureConfig = errors.New("sender: invalid signature config")

	// ErrSignatureMismatch is returned when webhook signature
	// verification fails.
	ErrSignatureMismatch = errors.New("sender: signature mismatch")
)
