package notification

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Notification is a caller-facing delivery request for one user and one
// business event. It is immutable once created; only the DeliveryUnits
// derived from it carry mutable lifecycle state.
type Notification struct {
	ID          uuid.UUID      `json:"id"`
	UserID      string         `json:"user_id"`
	Type        Type           `json:"type"`
	Title       string         `json:"title"`
	Message     string         `json:"message"`
	Data        map[string]any `json:"data,omitempty"`
	Channels    []Channel      `json:"channels"`
	Priority    Priority       `json:"priority"`
	ScheduledAt *time.Time     `json:"scheduled_at,omitempty"`
	ExpiresAt   *time.Time     `json:"expires_at,omitempty"`
	Category    string         `json:"category,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	BatchID     string         `json:"batch_id,omitempty"`
	CampaignID  string         `json:"campaign_id,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Validate checks the request before it is accepted for dispatch.
// Validation failures are the only errors a caller ever sees synchronously;
// everything after enqueue is reported through delivery history.
func (n *Notification) Validate() error {
	if n.UserID == "" {
		return ErrInvalidUserID
	}
	if !n.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, n.Type)
	}
	if len(n.Channels) == 0 {
		return ErrNoChannels
	}
	for _, ch := range n.Channels {
		if !ch.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidChannel, ch)
		}
	}
	if !n.Priority.Valid() {
		return ErrInvalidPriority
	}
	if n.Title == "" {
		return ErrEmptyTitle
	}
	return nil
}

// IsExpired reports whether the notification's expiry has passed at t.
func (n *Notification) IsExpired(t time.Time) bool {
	return n.ExpiresAt != nil && n.ExpiresAt.Before(t)
}

// DueAt returns the earliest time the notification may be dispatched.
func (n *Notification) DueAt(now time.Time) time.Time {
	if n.ScheduledAt != nil && n.ScheduledAt.After(now) {
		return *n.ScheduledAt
	}
	return now
}
