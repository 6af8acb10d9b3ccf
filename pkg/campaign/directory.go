package campaign

import (
	"context"
	"slices"
	"sync"
)

// UserIterator streams resolved audience members one at a time.
type UserIterator interface {
	// Next returns the next user ID. ok is false when the audience is
	// exhausted.
	Next(ctx context.Context) (userID string, ok bool, err error)
}

// UserDirectory resolves an audience description into concrete users.
// Implementations should stream rather than materialize large
// audiences.
type UserDirectory interface {
	ResolveAudience(ctx context.Context, audience Audience) (UserIterator, error)
}

// Member is one user record in the in-memory directory.
type Member struct {
	ID       string
	Role     string
	Segments []string
	Location string
}

// MemoryDirectory is an in-memory UserDirectory for tests and local
// development.
type MemoryDirectory struct {
	mu      sync.RWMutex
	members []Member
}

// NewMemoryDirectory creates a directory over the given members.
func NewMemoryDirectory(members ...Member) *MemoryDirectory {
	return &MemoryDirectory{members: members}
}

// Add registers another member.
func (d *MemoryDirectory) Add(m Member) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.members = append(d.members, m)
}

func (d *MemoryDirectory) ResolveAudience(ctx context.Context, audience Audience) (UserIterator, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	excluded := make(map[string]struct{}, len(audience.ExcludeIDs))
	for _, id := range audience.ExcludeIDs {
		excluded[id] = struct{}{}
	}

	seen := make(map[string]struct{})
	var ids []string
	include := func(id string) {
		if _, dup := seen[id]; dup {
			return
		}
		if _, skip := excluded[id]; skip {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	for _, id := range audience.UserIDs {
		include(id)
	}
	for _, m := range d.members {
		if matches(m, audience) {
			include(m.ID)
		}
	}

	return &sliceIterator{ids: ids}, nil
}

func matches(m Member, audience Audience) bool {
	if len(audience.Roles) > 0 && slices.Contains(audience.Roles, m.Role) {
		return true
	}
	if len(audience.Locations) > 0 && slices.Contains(audience.Locations, m.Location) {
		return true
	}
	for _, seg := range audience.Segments {
		if slices.Contains(m.Segments, seg) {
			return true
		}
	}
	return false
}

type sliceIterator struct {
	ids []string
	pos int
}

func (it *sliceIterator) Next(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if it.pos >= len(it.ids) {
		return "", false, nil
	}
	id := it.ids[it.pos]
	it.pos++
	return id, true, nil
}
