package preferences

import (
	"context"
	"sync"

	"github.com/dmitrymomot/notifykit/pkg/cache"
)

// Store handles preference document persistence.
type Store interface {
	// Get retrieves a user's preference document.
	// Returns ErrNotFound when the user never saved preferences.
	Get(ctx context.Context, userID string) (Preferences, error)

	// Save stores the full document, replacing any prior version.
	Save(ctx context.Context, prefs Preferences) error
}

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu    sync.RWMutex
	prefs map[string]Preferences
}

// NewMemoryStore creates an empty in-memory preference store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{prefs: make(map[string]Preferences)}
}

func (s *MemoryStore) Get(ctx context.Context, userID string) (Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.prefs[userID]
	if !ok {
		return Preferences{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) Save(ctx context.Context, prefs Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prefs[prefs.UserID] = prefs
	return nil
}

// CachedStore decorates a Store with an LRU cache. Preference documents are
// read on every enqueue but written rarely, so caching keeps the dispatch
// hot path off the backing store. Saves write through and invalidate.
type CachedStore struct {
	next  Store
	cache *cache.LRU[string, Preferences]
}

// NewCachedStore wraps a store with an LRU of the given capacity.
func NewCachedStore(next Store, capacity int) *CachedStore {
	return &CachedStore{
		next:  next,
		cache: cache.NewLRU[string, Preferences](capacity),
	}
}

func (s *CachedStore) Get(ctx context.Context, userID string) (Preferences, error) {
	if p, ok := s.cache.Get(userID); ok {
		return p, nil
	}

	p, err := s.next.Get(ctx, userID)
	if err != nil {
		return Preferences{}, err
	}

	s.cache.Put(userID, p)
	return p, nil
}

func (s *CachedStore) Save(ctx context.Context, prefs Preferences) error {
	if err := s.next.Save(ctx, prefs); err != nil {
		return err
	}
	s.cache.Remove(prefs.UserID)
	return nil
}

// Invalidate drops a user's cached document, forcing the next read through.
func (s *CachedStore) Invalidate(userID string) {
	s.cache.Remove(userID)
}
