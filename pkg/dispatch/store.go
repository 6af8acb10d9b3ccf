package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// Store persists delivery units and implements claim-on-dequeue
// semantics: ClaimDue hands each due unit to exactly one worker.
type Store interface {
	// CreateUnit stores a new delivery unit.
	CreateUnit(ctx context.Context, unit notification.DeliveryUnit) error

	// GetUnit returns a unit by ID. ErrUnitNotFound when absent.
	GetUnit(ctx context.Context, id uuid.UUID) (notification.DeliveryUnit, error)

	// ClaimDue atomically claims the next due unit for a channel,
	// moving it PENDING to SENDING under a worker lock and bumping its
	// attempt counter. Selection is priority first, due time second.
	// ErrNothingDue when the channel has no claimable unit.
	ClaimDue(ctx context.Context, workerID uuid.UUID, ch notification.Channel, lockFor time.Duration) (notification.DeliveryUnit, error)

	// MarkDelivered finalizes a unit as delivered.
	MarkDelivered(ctx context.Context, id uuid.UUID) error

	// MarkRetryWait parks a unit until its next attempt is due.
	MarkRetryWait(ctx context.Context, id uuid.UUID, nextRetryAt time.Time, lastError string) error

	// MarkFailed finalizes a unit as failed.
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error

	// MarkCancelled finalizes a non-terminal unit as cancelled.
	MarkCancelled(ctx context.Context, id uuid.UUID) error

	// MarkExpired finalizes a non-terminal unit as expired.
	MarkExpired(ctx context.Context, id uuid.UUID) error

	// CountPending returns the number of units waiting on a channel,
	// including those parked in RETRY_WAIT. Used for backpressure.
	CountPending(ctx context.Context, ch notification.Channel) (int, error)

	// CancelByNotification cancels every non-terminal, unclaimed unit
	// of a notification and returns the cancelled units. Units
	// currently SENDING finish their attempt.
	CancelByNotification(ctx context.Context, notificationID uuid.UUID) ([]notification.DeliveryUnit, error)
}
