// Package notification defines the core domain model shared by every part of
// the dispatch engine: notification types, channels, priorities, the
// Notification entity itself, and the per-channel DeliveryUnit that the
// dispatcher actually queues and tracks.
//
// The package is intentionally free of I/O and third-party transports so that
// resolvers, renderers, senders and stores can all depend on it without
// dragging in each other.
//
// # Notification vs DeliveryUnit
//
// A Notification is the caller-facing request: one user, one business event,
// a requested channel set. The dispatcher expands it into one DeliveryUnit
// per enabled channel. DeliveryUnits carry their own status, attempt counter
// and retry schedule; the Notification itself is immutable once created.
//
// # Status model
//
// DeliveryUnits move through a small monotonic state machine:
//
//	PENDING → SENDING → DELIVERED
//	                  → RETRY_WAIT → PENDING (after backoff)
//	                  → FAILED
//	any non-terminal  → CANCELLED | EXPIRED
//
// CanTransition encodes the allowed edges; everything else is rejected so a
// buggy worker cannot resurrect a finalized delivery.
package notification
