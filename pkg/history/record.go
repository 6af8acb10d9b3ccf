package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// Record is one immutable delivery history entry. Non-final records capture
// failed attempts that will be retried; the single final record per unit
// captures its terminal outcome.
type Record struct {
	ID             uuid.UUID                   `json:"id"`
	UnitID         uuid.UUID                   `json:"unit_id"`
	NotificationID uuid.UUID                   `json:"notification_id"`
	UserID         string                      `json:"user_id"`
	Type           notification.Type           `json:"type"`
	Channel        notification.Channel        `json:"channel"`
	Attempt        int                         `json:"attempt"`
	Status         notification.DeliveryStatus `json:"status"`
	Final          bool                        `json:"final"`
	Retryable      bool                        `json:"retryable,omitempty"`
	Detail         string                      `json:"detail,omitempty"`
	Latency        time.Duration               `json:"latency,omitempty"`
	CreatedAt      time.Time                   `json:"created_at"`
}

// Filter narrows a history listing. Zero fields match everything.
type Filter struct {
	UserID    string
	UnitID    uuid.UUID
	Channel   notification.Channel
	Type      notification.Type
	From      time.Time
	To        time.Time
	FinalOnly bool
}

func (f Filter) matches(r Record) bool {
	if f.UserID != "" && r.UserID != f.UserID {
		return false
	}
	if f.UnitID != uuid.Nil && r.UnitID != f.UnitID {
		return false
	}
	if f.Channel != "" && r.Channel != f.Channel {
		return false
	}
	if f.Type != "" && r.Type != f.Type {
		return false
	}
	if !f.From.IsZero() && r.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !r.CreatedAt.Before(f.To) {
		return false
	}
	if f.FinalOnly && !r.Final {
		return false
	}
	return true
}
