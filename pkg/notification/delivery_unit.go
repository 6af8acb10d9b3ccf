package notification

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryUnit is the per-channel expansion of a Notification and the unit
// the dispatcher actually queues. A notification requesting three channels
// yields three independent units; a failure of one never affects its
// siblings.
type DeliveryUnit struct {
	ID             uuid.UUID       `json:"id"`
	NotificationID uuid.UUID       `json:"notification_id"`
	UserID         string          `json:"user_id"`
	Type           Type            `json:"type"`
	Channel        Channel         `json:"channel"`
	Priority       Priority        `json:"priority"`
	Status         DeliveryStatus  `json:"status"`
	Attempts       int             `json:"attempts"`
	MaxRetries     int             `json:"max_retries"`
	Rendered       RenderedContent `json:"rendered"`
	ScheduledAt    time.Time       `json:"scheduled_at"`
	NextRetryAt    *time.Time      `json:"next_retry_at,omitempty"`
	ExpiresAt      *time.Time      `json:"expires_at,omitempty"`
	LockedUntil    *time.Time      `json:"locked_until,omitempty"`
	LockedBy       *uuid.UUID      `json:"locked_by,omitempty"`
	LastError      string          `json:"last_error,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	FinalizedAt    *time.Time      `json:"finalized_at,omitempty"`
}

// DueAt returns the moment the unit becomes eligible for dequeue: the later
// of its scheduled time and any pending retry backoff.
func (u *DeliveryUnit) DueAt() time.Time {
	due := u.ScheduledAt
	if u.NextRetryAt != nil && u.NextRetryAt.After(due) {
		due = *u.NextRetryAt
	}
	return due
}

// Due reports whether the unit is eligible for dequeue at t.
func (u *DeliveryUnit) Due(t time.Time) bool {
	return !u.DueAt().After(t)
}

// IsExpired reports whether the unit's expiry has passed at t.
func (u *DeliveryUnit) IsExpired(t time.Time) bool {
	return u.ExpiresAt != nil && u.ExpiresAt.Before(t)
}

// Transition moves the unit to a new status, enforcing the state machine.
// Terminal statuses also stamp FinalizedAt so exactly one finalization is
// ever recorded.
func (u *DeliveryUnit) Transition(to DeliveryStatus, now time.Time) error {
	if !CanTransition(u.Status, to) {
		return ErrInvalidTransition
	}
	u.Status = to
	if to.Terminal() {
		t := now
		u.FinalizedAt = &t
	}
	return nil
}
