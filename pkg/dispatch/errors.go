package dispatch

import "errors"

var (
	// ErrStoreNil is returned when a dispatcher or worker is created
	// without a store.
	ErrStoreNil = errors.New("dispatch: store cannot be nil")

	// ErrUnitNotFound is returned when a delivery unit does not exist.
	ErrUnitNotFound = errors.New("dispatch: delivery unit not found")

	// ErrUnitExists is returned when creating a unit with a taken ID.
	ErrUnitExists = errors.New("dispatch: delivery unit already exists")

	// ErrNothingDue is returned by ClaimDue when no unit is ready.
	ErrNothingDue = errors.New("dispatch: no delivery unit due")

	// ErrQueueSaturated is returned when a channel queue is at its
	// depth bound.
	ErrQueueSaturated = errors.New("dispatch: channel queue saturated")

	// ErrTooManyItems is returned when a bulk enqueue exceeds the batch
	// cap.
	ErrTooManyItems = errors.New("dispatch: too many items in batch")

	// ErrWorkerStarted is returned when Start is called twice.
	ErrWorkerStarted = errors.New("dispatch: worker already started")

	// ErrWorkerNotStarted is returned when Stop is called before Start.
	ErrWorkerNotStarted = errors.New("dispatch: worker not started")
)
