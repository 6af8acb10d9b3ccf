package template

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/cache"
	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// Template is one version of the content for a (type, channel) pair.
// Exactly one version per pair is active at a time; the renderer only ever
// reads the active one.
type Template struct {
	ID        uuid.UUID                `json:"id"`
	Type      notification.Type        `json:"type"`
	Channel   notification.Channel     `json:"channel"`
	Version   int                      `json:"version"`
	Active    bool                     `json:"active"`
	Subject   string                   `json:"subject,omitempty"`
	Body      string                   `json:"body"`
	Variables []string                 `json:"variables,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
}

type key struct {
	typ notification.Type
	ch  notification.Channel
}

// Store handles template persistence.
type Store interface {
	// GetActive returns the active version for a (type, channel) pair.
	// Returns ErrNotFound when no template was ever saved for the pair.
	GetActive(ctx context.Context, typ notification.Type, ch notification.Channel) (Template, error)

	// Save stores a new template version. The first version saved for a
	// pair becomes active automatically.
	Save(ctx context.Context, tmpl Template) (Template, error)

	// Activate switches the active version for a pair.
	Activate(ctx context.Context, typ notification.Type, ch notification.Channel, version int) error

	// Versions lists all versions for a pair, newest first.
	Versions(ctx context.Context, typ notification.Type, ch notification.Channel) ([]Template, error)
}

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu        sync.RWMutex
	templates map[key][]Template
}

// NewMemoryStore creates an empty in-memory template store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{templates: make(map[key][]Template)}
}

func (s *MemoryStore) GetActive(ctx context.Context, typ notification.Type, ch notification.Channel) (Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.templates[key{typ, ch}] {
		if t.Active {
			return t, nil
		}
	}
	return Template{}, ErrNotFound
}

func (s *MemoryStore) Save(ctx context.Context, tmpl Template) (Template, error) {
	if tmpl.Type == "" || tmpl.Channel == "" {
		return Template{}, ErrInvalidTemplate
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{tmpl.Type, tmpl.Channel}
	versions := s.templates[k]

	if tmpl.ID == uuid.Nil {
		tmpl.ID = uuid.New()
	}
	if tmpl.CreatedAt.IsZero() {
		tmpl.CreatedAt = time.Now()
	}
	tmpl.Version = len(versions) + 1
	tmpl.Active = len(versions) == 0

	s.templates[k] = append(versions, tmpl)
	return tmpl, nil
}

func (s *MemoryStore) Activate(ctx context.Context, typ notification.Type, ch notification.Channel, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{typ, ch}
	versions := s.templates[k]

	found := false
	for i := range versions {
		if versions[i].Version == version {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s/%s v%d", ErrVersionNotFound, typ, ch, version)
	}

	for i := range versions {
		versions[i].Active = versions[i].Version == version
	}
	return nil
}

func (s *MemoryStore) Versions(ctx context.Context, typ notification.Type, ch notification.Channel) ([]Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := s.templates[key{typ, ch}]
	out := make([]Template, len(versions))
	for i, t := range versions {
		out[len(versions)-1-i] = t
	}
	return out, nil
}

// CachedStore decorates a Store with an LRU over active-template lookups.
// Templates are read on every render and change rarely; writes and
// activations invalidate the affected pair.
type CachedStore struct {
	next  Store
	cache *cache.LRU[key, Template]
}

// NewCachedStore wraps a store with an LRU of the given capacity.
func NewCachedStore(next Store, capacity int) *CachedStore {
	return &CachedStore{
		next:  next,
		cache: cache.NewLRU[key, Template](capacity),
	}
}

func (s *CachedStore) GetActive(ctx context.Context, typ notification.Type, ch notification.Channel) (Template, error) {
	k := key{typ, ch}
	if t, ok := s.cache.Get(k); ok {
		return t, nil
	}

	t, err := s.next.GetActive(ctx, typ, ch)
	if err != nil {
		return Template{}, err
	}

	s.cache.Put(k, t)
	return t, nil
}

func (s *CachedStore) Save(ctx context.Context, tmpl Template) (Template, error) {
	saved, err := s.next.Save(ctx, tmpl)
	if err != nil {
		return Template{}, err
	}
	s.cache.Remove(key{saved.Type, saved.Channel})
	return saved, nil
}

func (s *CachedStore) Activate(ctx context.Context, typ notification.Type, ch notification.Channel, version int) error {
	if err := s.next.Activate(ctx, typ, ch, version); err != nil {
		return err
	}
	s.cache.Remove(key{typ, ch})
	return nil
}

func (s *CachedStore) Versions(ctx context.Context, typ notification.Type, ch notification.Channel) ([]Template, error) {
	return s.next.Versions(ctx, typ, ch)
}
