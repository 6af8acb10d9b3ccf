package inbox

import (
	"context"
	"sync"
)

// Subscriber receives live inbox messages for one user.
type Subscriber interface {
	// Receive returns the channel live messages arrive on. The channel
	// is closed when the subscriber or the hub closes.
	Receive(ctx context.Context) <-chan Message

	// Close releases the subscription. Safe to call more than once.
	Close() error
}

type subscriber struct {
	ch     chan Message
	mu     sync.RWMutex
	closed bool
	drop   func(*subscriber)
}

func (s *subscriber) Receive(ctx context.Context) <-chan Message {
	return s.ch
}

func (s *subscriber) Close() error {
	if s.drop != nil {
		s.drop(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		close(s.ch)
		s.closed = true
	}
	return nil
}

// send is non-blocking; a full buffer drops the message so one stalled
// client cannot slow delivery for everyone else.
func (s *subscriber) send(msg Message) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- msg:
		return true
	default:
		return false
	}
}

// Hub fans live messages out to per-user subscribers. All methods are
// safe for concurrent use.
type Hub struct {
	mu         sync.RWMutex
	users      map[string]map[*subscriber]struct{}
	bufferSize int
	closed     bool
}

// NewHub creates a hub. Each subscriber gets a buffered channel of the
// given size; a minimum of 1 is enforced.
func NewHub(bufferSize int) *Hub {
	return &Hub{
		users:      make(map[string]map[*subscriber]struct{}),
		bufferSize: max(bufferSize, 1),
	}
}

// Subscribe registers a live subscriber for the user. The subscription
// ends when the context is cancelled or Close is called on it.
func (h *Hub) Subscribe(ctx context.Context, userID string) Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &subscriber{ch: make(chan Message, h.bufferSize)}
	sub.drop = func(s *subscriber) { h.unsubscribe(userID, s) }

	if h.closed {
		close(sub.ch)
		sub.closed = true
		sub.drop = nil
		return sub
	}

	subs, ok := h.users[userID]
	if !ok {
		subs = make(map[*subscriber]struct{})
		h.users[userID] = subs
	}
	subs[sub] = struct{}{}

	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			sub.Close()
		}()
	}
	return sub
}

// Publish delivers a message to all live subscribers of its user.
// Slow subscribers have the message dropped rather than blocking.
func (h *Hub) Publish(ctx context.Context, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}
	for sub := range h.users[msg.UserID] {
		sub.send(msg)
	}
}

// Subscribers returns the number of live subscribers for a user.
func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// Close shuts the hub down and closes every subscriber.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	for _, subs := range h.users {
		for sub := range subs {
			sub.mu.Lock()
			if !sub.closed {
				close(sub.ch)
				sub.closed = true
			}
			sub.mu.Unlock()
		}
	}
	clear(h.users)
	return nil
}

func (h *Hub) unsubscribe(userID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.users[userID]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.users, userID)
		}
	}
}
