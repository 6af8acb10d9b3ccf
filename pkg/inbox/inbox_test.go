package inbox_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/inbox"
	"github.com/dmitrymomot/notifykit/pkg/notification"
)

func newMessage(userID string) inbox.Message {
	return inbox.Message{
		ID:     uuid.New(),
		UserID: userID,
		Type:   notification.TypeCommentReceived,
		Title:  "New comment",
		Body:   "Someone replied to your post",
	}
}

func TestInbox_DeliverAndList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ib := inbox.New(inbox.NewMemoryStore())
	t.Cleanup(func() { _ = ib.Close() })

	first := newMessage("user-1")
	second := newMessage("user-1")
	require.NoError(t, ib.Deliver(ctx, first))
	require.NoError(t, ib.Deliver(ctx, second))
	require.NoError(t, ib.Deliver(ctx, newMessage("user-2")))

	msgs, err := ib.List(ctx, "user-1", inbox.ListOptions{})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, second.ID, msgs[0].ID, "newest first")
	assert.Equal(t, first.ID, msgs[1].ID)

	count, err := ib.CountUnread(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestInbox_MarkRead(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ib := inbox.New(inbox.NewMemoryStore())
	t.Cleanup(func() { _ = ib.Close() })

	msg := newMessage("user-1")
	require.NoError(t, ib.Deliver(ctx, msg))
	require.NoError(t, ib.Deliver(ctx, newMessage("user-1")))

	require.NoError(t, ib.MarkRead(ctx, "user-1", msg.ID))

	count, err := ib.CountUnread(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := ib.Get(ctx, "user-1", msg.ID)
	require.NoError(t, err)
	assert.True(t, got.Read)
	require.NotNil(t, got.ReadAt)

	require.NoError(t, ib.MarkAllRead(ctx, "user-1"))
	count, err = ib.CountUnread(ctx, "user-1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestInbox_ExpiredHidden(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ib := inbox.New(inbox.NewMemoryStore())
	t.Cleanup(func() { _ = ib.Close() })

	expired := newMessage("user-1")
	past := time.Now().Add(-time.Minute)
	expired.ExpiresAt = &past
	require.NoError(t, ib.Deliver(ctx, expired))

	msgs, err := ib.List(ctx, "user-1", inbox.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, msgs)

	_, err = ib.Get(ctx, "user-1", expired.ID)
	assert.ErrorIs(t, err, inbox.ErrMessageNotFound)
}

func TestInbox_LiveSubscription(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ib := inbox.New(inbox.NewMemoryStore())
	t.Cleanup(func() { _ = ib.Close() })

	sub := ib.Subscribe(ctx, "user-1")
	defer sub.Close()

	other := ib.Subscribe(ctx, "user-2")
	defer other.Close()

	msg := newMessage("user-1")
	require.NoError(t, ib.Deliver(ctx, msg))

	select {
	case live := <-sub.Receive(ctx):
		assert.Equal(t, msg.ID, live.ID)
	case <-time.After(time.Second):
		t.Fatal("expected live message")
	}

	select {
	case got := <-other.Receive(ctx):
		t.Fatalf("unexpected message for other user: %v", got.ID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_SubscriberCleanup(t *testing.T) {
	t.Parallel()

	hub := inbox.NewHub(4)
	t.Cleanup(func() { _ = hub.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	hub.Subscribe(ctx, "user-1")
	require.Equal(t, 1, hub.Subscribers("user-1"))

	cancel()
	require.Eventually(t, func() bool {
		return hub.Subscribers("user-1") == 0
	}, time.Second, 10*time.Millisecond)
}

func TestHub_ClosedHubReturnsClosedSubscriber(t *testing.T) {
	t.Parallel()

	hub := inbox.NewHub(1)
	require.NoError(t, hub.Close())

	sub := hub.Subscribe(context.Background(), "user-1")
	_, open := <-sub.Receive(context.Background())
	assert.False(t, open)
}
