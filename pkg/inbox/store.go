package inbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ListOptions filters and paginates an inbox listing.
type ListOptions struct {
	Limit      int
	Offset     int
	OnlyUnread bool
	Since      *time.Time
}

// Store persists inbox messages per user.
type Store interface {
	Create(ctx context.Context, msg Message) error
	Get(ctx context.Context, userID string, msgID uuid.UUID) (Message, error)
	List(ctx context.Context, userID string, opts ListOptions) ([]Message, error)
	MarkRead(ctx context.Context, userID string, msgIDs ...uuid.UUID) error
	Delete(ctx context.Context, userID string, msgIDs ...uuid.UUID) error
	CountUnread(ctx context.Context, userID string) (int, error)
}

// MemoryStore is an in-memory Store for tests and local development.
// Expired messages are filtered out of reads lazily.
type MemoryStore struct {
	mu       sync.RWMutex
	messages map[string][]Message
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory inbox store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		messages: make(map[string][]Message),
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context, msg Message) error {
	if msg.ID == uuid.Nil {
		return fmt.Errorf("%w: message ID is required", ErrInvalidMessage)
	}
	if msg.UserID == "" {
		return fmt.Errorf("%w: user ID is required", ErrInvalidMessage)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}
	s.messages[msg.UserID] = append(s.messages[msg.UserID], msg)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, userID string, msgID uuid.UUID) (Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.messages[userID] {
		if m.ID == msgID && !m.IsExpired(s.now()) {
			return m, nil
		}
	}
	return Message{}, ErrMessageNotFound
}

func (s *MemoryStore) List(ctx context.Context, userID string, opts ListOptions) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	filtered := make([]Message, 0, len(s.messages[userID]))
	for _, m := range s.messages[userID] {
		if m.IsExpired(now) {
			continue
		}
		if opts.OnlyUnread && m.Read {
			continue
		}
		if opts.Since != nil && !m.CreatedAt.After(*opts.Since) {
			continue
		}
		filtered = append(filtered, m)
	}

	// Newest first.
	for i, j := 0, len(filtered)-1; i < j; i, j = i+1, j-1 {
		filtered[i], filtered[j] = filtered[j], filtered[i]
	}

	if opts.Offset > 0 {
		if opts.Offset >= len(filtered) {
			return []Message{}, nil
		}
		filtered = filtered[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(filtered) {
		filtered = filtered[:opts.Limit]
	}
	return filtered, nil
}

func (s *MemoryStore) MarkRead(ctx context.Context, userID string, msgIDs ...uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make(map[uuid.UUID]struct{}, len(msgIDs))
	for _, id := range msgIDs {
		ids[id] = struct{}{}
	}

	now := s.now()
	msgs := s.messages[userID]
	for i := range msgs {
		if _, ok := ids[msgs[i].ID]; ok {
			msgs[i].MarkRead(now)
		}
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, userID string, msgIDs ...uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make(map[uuid.UUID]struct{}, len(msgIDs))
	for _, id := range msgIDs {
		ids[id] = struct{}{}
	}

	msgs := s.messages[userID]
	kept := msgs[:0]
	for _, m := range msgs {
		if _, ok := ids[m.ID]; !ok {
			kept = append(kept, m)
		}
	}
	s.messages[userID] = kept
	return nil
}

func (s *MemoryStore) CountUnread(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	count := 0
	for _, m := range s.messages[userID] {
		if !m.Read && !m.IsExpired(now) {
			count++
		}
	}
	return count, nil
}
