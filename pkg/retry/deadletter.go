package retry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// DeadLetterEntry is a delivery unit that exhausted its retry budget or
// failed permanently, kept aside for inspection and manual requeue.
type DeadLetterEntry struct {
	Unit     notification.DeliveryUnit `json:"unit"`
	Reason   string                    `json:"reason"`
	MovedAt  time.Time                 `json:"moved_at"`
	Requeued bool                      `json:"requeued"`
}

// DeadLetterStore holds exhausted delivery units per channel.
type DeadLetterStore interface {
	// Add stores an exhausted unit under its channel.
	Add(ctx context.Context, entry DeadLetterEntry) error

	// List returns entries for a channel, oldest first. A zero limit
	// returns everything.
	List(ctx context.Context, channel notification.Channel, limit int) ([]DeadLetterEntry, error)

	// Take removes and returns an entry by unit ID so it can be
	// requeued. Returns ErrEntryNotFound when absent.
	Take(ctx context.Context, channel notification.Channel, unitID uuid.UUID) (DeadLetterEntry, error)
}

// MemoryDeadLetter is an in-memory DeadLetterStore for tests and local
// development.
type MemoryDeadLetter struct {
	mu      sync.Mutex
	entries map[notification.Channel][]DeadLetterEntry
}

// NewMemoryDeadLetter creates an empty in-memory dead-letter store.
func NewMemoryDeadLetter() *MemoryDeadLetter {
	return &MemoryDeadLetter{entries: make(map[notification.Channel][]DeadLetterEntry)}
}

func (s *MemoryDeadLetter) Add(ctx context.Context, entry DeadLetterEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[entry.Unit.Channel] = append(s.entries[entry.Unit.Channel], entry)
	return nil
}

func (s *MemoryDeadLetter) List(ctx context.Context, channel notification.Channel, limit int) ([]DeadLetterEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.entries[channel]
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}

	out := make([]DeadLetterEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (s *MemoryDeadLetter) Take(ctx context.Context, channel notification.Channel, unitID uuid.UUID) (DeadLetterEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.entries[channel]
	for i, e := range entries {
		if e.Unit.ID == unitID {
			s.entries[channel] = append(entries[:i], entries[i+1:]...)
			return e, nil
		}
	}
	return DeadLetterEntry{}, ErrEntryNotFound
}

// Len returns the total number of entries across all channels.
func (s *MemoryDeadLetter) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, entries := range s.entries {
		n += len(entries)
	}
	return n
}
