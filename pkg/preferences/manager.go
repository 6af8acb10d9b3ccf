package preferences

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Manager exposes the preference read/update API. Updates use partial
// semantics: fields absent from the Update keep their prior values, and a
// user without a saved document starts from the fail-open defaults.
type Manager struct {
	store Store
}

// NewManager creates a preference manager backed by the given store.
func NewManager(store Store) (*Manager, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	return &Manager{store: store}, nil
}

// Get returns the user's preference document, falling back to the default
// (everything enabled) document when none was ever saved.
func (m *Manager) Get(ctx context.Context, userID string) (Preferences, error) {
	prefs, err := m.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Default(userID), nil
		}
		return Preferences{}, fmt.Errorf("preferences: get %s: %w", userID, err)
	}
	return prefs, nil
}

// Patch applies a partial update and persists the merged document.
func (m *Manager) Patch(ctx context.Context, userID string, update Update) (Preferences, error) {
	if update.QuietHours != nil {
		if err := update.QuietHours.Validate(); err != nil {
			return Preferences{}, err
		}
	}

	prefs, err := m.Get(ctx, userID)
	if err != nil {
		return Preferences{}, err
	}

	prefs.Apply(update, time.Now())

	if err := m.store.Save(ctx, prefs); err != nil {
		return Preferences{}, fmt.Errorf("preferences: save %s: %w", userID, err)
	}
	return prefs, nil
}

// Replace stores a complete document, discarding the previous one.
func (m *Manager) Replace(ctx context.Context, prefs Preferences) error {
	if prefs.UserID == "" {
		return fmt.Errorf("preferences: user id is required")
	}
	if prefs.QuietHours != nil {
		if err := prefs.QuietHours.Validate(); err != nil {
			return err
		}
	}
	prefs.UpdatedAt = time.Now()
	return m.store.Save(ctx, prefs)
}
