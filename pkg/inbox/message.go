package inbox

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// Message is one item in a user's in-app inbox.
type Message struct {
	ID        uuid.UUID         `json:"id"`
	UnitID    uuid.UUID         `json:"unit_id,omitempty"`
	UserID    string            `json:"user_id"`
	Type      notification.Type `json:"type"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]any    `json:"data,omitempty"`
	Read      bool              `json:"read"`
	ReadAt    *time.Time        `json:"read_at,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	ExpiresAt *time.Time        `json:"expires_at,omitempty"`
}

// IsExpired reports whether the message has passed its expiry.
func (m *Message) IsExpired(now time.Time) bool {
	return m.ExpiresAt != nil && now.After(*m.ExpiresAt)
}

// MarkRead stamps the message as read at the given time.
func (m *Message) MarkRead(now time.Time) {
	if m.Read {
		return
	}
	m.Read = true
	m.ReadAt = &now
}
