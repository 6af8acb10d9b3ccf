package inbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// Inbox combines persistent storage with live fanout for the in-app
// channel.
type Inbox struct {
	store Store
	hub   *Hub
	log   *slog.Logger
	now   func() time.Time
}

// Option configures an Inbox.
type Option func(*Inbox)

// WithLogger sets the logger used for hub delivery warnings.
func WithLogger(log *slog.Logger) Option {
	return func(i *Inbox) {
		if log != nil {
			i.log = log
		}
	}
}

// WithHub overrides the default hub, mainly to tune buffer size.
func WithHub(hub *Hub) Option {
	return func(i *Inbox) {
		if hub != nil {
			i.hub = hub
		}
	}
}

// WithClock overrides the inbox time source for tests.
func WithClock(now func() time.Time) Option {
	return func(i *Inbox) {
		if now != nil {
			i.now = now
		}
	}
}

// New creates an inbox over the given store. Panics if store is nil so
// wiring mistakes surface at startup.
func New(store Store, opts ...Option) *Inbox {
	if store == nil {
		panic(ErrStoreNil)
	}

	i := &Inbox{
		store: store,
		hub:   NewHub(16),
		log:   slog.Default(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Deliver stores the message and pushes it to live subscribers. The
// store write is authoritative; fanout is best effort.
func (i *Inbox) Deliver(ctx context.Context, msg Message) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = i.now()
	}

	if err := i.store.Create(ctx, msg); err != nil {
		return fmt.Errorf("inbox: store message: %w", err)
	}

	i.hub.Publish(ctx, msg)
	i.log.DebugContext(ctx, "inbox message delivered",
		slog.String("message_id", msg.ID.String()),
		logger.UserID(msg.UserID),
		logger.NotificationType(string(msg.Type)),
	)
	return nil
}

// Subscribe returns a live feed of new messages for the user.
func (i *Inbox) Subscribe(ctx context.Context, userID string) Subscriber {
	return i.hub.Subscribe(ctx, userID)
}

// Get returns a single message.
func (i *Inbox) Get(ctx context.Context, userID string, msgID uuid.UUID) (Message, error) {
	return i.store.Get(ctx, userID, msgID)
}

// List returns the user's messages, newest first.
func (i *Inbox) List(ctx context.Context, userID string, opts ListOptions) ([]Message, error) {
	return i.store.List(ctx, userID, opts)
}

// MarkRead marks the given messages as read.
func (i *Inbox) MarkRead(ctx context.Context, userID string, msgIDs ...uuid.UUID) error {
	return i.store.MarkRead(ctx, userID, msgIDs...)
}

// MarkAllRead marks every unread message as read.
func (i *Inbox) MarkAllRead(ctx context.Context, userID string) error {
	unread, err := i.store.List(ctx, userID, ListOptions{OnlyUnread: true})
	if err != nil {
		return err
	}
	if len(unread) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(unread))
	for n, m := range unread {
		ids[n] = m.ID
	}
	return i.store.MarkRead(ctx, userID, ids...)
}

// Delete removes the given messages.
func (i *Inbox) Delete(ctx context.Context, userID string, msgIDs ...uuid.UUID) error {
	return i.store.Delete(ctx, userID, msgIDs...)
}

// CountUnread returns the user's unread badge count.
func (i *Inbox) CountUnread(ctx context.Context, userID string) (int, error) {
	return i.store.CountUnread(ctx, userID)
}

// Close shuts down live fanout. Stored messages remain readable.
func (i *Inbox) Close() error {
	return i.hub.Close()
}
