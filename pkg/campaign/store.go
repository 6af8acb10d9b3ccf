package campaign

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Store persists campaigns.
type Store interface {
	// Save stores or replaces a campaign.
	Save(ctx context.Context, c Campaign) error

	// Get returns a campaign by ID. ErrNotFound when absent.
	Get(ctx context.Context, id uuid.UUID) (Campaign, error)

	// ListActive returns every campaign in active status.
	ListActive(ctx context.Context) ([]Campaign, error)
}

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu        sync.RWMutex
	campaigns map[uuid.UUID]Campaign
}

// NewMemoryStore creates an empty in-memory campaign store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{campaigns: make(map[uuid.UUID]Campaign)}
}

func (s *MemoryStore) Save(ctx context.Context, c Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.campaigns[c.ID] = c
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.campaigns[id]
	if !ok {
		return Campaign{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) ListActive(ctx context.Context) ([]Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var active []Campaign
	for _, c := range s.campaigns {
		if c.Status == StatusActive {
			active = append(active, c)
		}
	}
	return active, nil
}
