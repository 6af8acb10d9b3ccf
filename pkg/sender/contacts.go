package sender

import (
	"context"
	"sync"
)

// Contact holds one user's delivery addresses.
type Contact struct {
	Email         string
	Phone         string
	PushTokens    []string
	WebhookURL    string
	WebhookSecret string
}

// MemoryContacts is an in-memory ContactResolver for tests and local
// development.
type MemoryContacts struct {
	mu       sync.RWMutex
	contacts map[string]Contact
}

// NewMemoryContacts creates an empty in-memory contact directory.
func NewMemoryContacts() *MemoryContacts {
	return &MemoryContacts{contacts: make(map[string]Contact)}
}

// Set stores or replaces a user's contact record.
func (m *MemoryContacts) Set(userID string, c Contact) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contacts[userID] = c
}

func (m *MemoryContacts) EmailAddress(ctx context.Context, userID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.contacts[userID]
	if !ok || c.Email == "" {
		return "", ErrContactNotFound
	}
	return c.Email, nil
}

func (m *MemoryContacts) PhoneNumber(ctx context.Context, userID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.contacts[userID]
	if !ok || c.Phone == "" {
		return "", ErrContactNotFound
	}
	return c.Phone, nil
}

func (m *MemoryContacts) PushTokens(ctx context.Context, userID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.contacts[userID]
	if !ok {
		return nil, ErrContactNotFound
	}
	tokens := make([]string, len(c.PushTokens))
	copy(tokens, c.PushTokens)
	return tokens, nil
}

func (m *MemoryContacts) WebhookEndpoint(ctx context.Context, userID string) (string, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.contacts[userID]
	if !ok || c.WebhookURL == "" {
		return "", "", ErrContactNotFound
	}
	return c.WebhookURL, c.WebhookSecret, nil
}
