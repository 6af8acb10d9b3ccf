package notification_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

func validNotification() notification.Notification {
	return notification.Notification{
		UserID:   "user-1",
		Type:     notification.TypeSecurityAlert,
		Title:    "Unusual login",
		Message:  "We noticed a login from a new device.",
		Channels: []notification.Channel{notification.ChannelEmail},
		Priority: notification.PriorityHigh,
	}
}

func TestNotification_Validate(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		n := validNotification()
		require.NoError(t, n.Validate())
	})

	t.Run("missing user id", func(t *testing.T) {
		t.Parallel()

		n := validNotification()
		n.UserID = ""
		assert.ErrorIs(t, n.Validate(), notification.ErrInvalidUserID)
	})

	t.Run("unknown type", func(t *testing.T) {
		t.Parallel()

		n := validNotification()
		n.Type = "something.else"
		assert.ErrorIs(t, n.Validate(), notification.ErrInvalidType)
	})

	t.Run("no channels", func(t *testing.T) {
		t.Parallel()

		n := validNotification()
		n.Channels = nil
		assert.ErrorIs(t, n.Validate(), notification.ErrNoChannels)
	})

	t.Run("unknown channel", func(t *testing.T) {
		t.Parallel()

		n := validNotification()
		n.Channels = []notification.Channel{"pigeon"}
		assert.ErrorIs(t, n.Validate(), notification.ErrInvalidChannel)
	})

	t.Run("invalid priority", func(t *testing.T) {
		t.Parallel()

		n := validNotification()
		n.Priority = notification.Priority(42)
		assert.ErrorIs(t, n.Validate(), notification.ErrInvalidPriority)
	})

	t.Run("missing title", func(t *testing.T) {
		t.Parallel()

		n := validNotification()
		n.Title = ""
		assert.ErrorIs(t, n.Validate(), notification.ErrEmptyTitle, "message alone is not enough")
	})
}

func TestNotification_IsExpired(t *testing.T) {
	t.Parallel()

	now := time.Now()

	n := validNotification()
	assert.False(t, n.IsExpired(now), "no expiry set")

	past := now.Add(-time.Second)
	n.ExpiresAt = &past
	assert.True(t, n.IsExpired(now))

	future := now.Add(time.Hour)
	n.ExpiresAt = &future
	assert.False(t, n.IsExpired(now))
}

func TestNotification_DueAt(t *testing.T) {
	t.Parallel()

	now := time.Now()

	n := validNotification()
	assert.Equal(t, now, n.DueAt(now), "immediate when unscheduled")

	later := now.Add(time.Hour)
	n.ScheduledAt = &later
	assert.Equal(t, later, n.DueAt(now))

	earlier := now.Add(-time.Hour)
	n.ScheduledAt = &earlier
	assert.Equal(t, now, n.DueAt(now), "past schedule dispatches now")
}

func TestType_Enumeration(t *testing.T) {
	t.Parallel()

	types := notification.AllTypes()
	require.GreaterOrEqual(t, len(types), 40)

	seen := make(map[notification.Type]struct{}, len(types))
	for _, typ := range types {
		assert.True(t, typ.Valid(), "type %q must validate", typ)
		_, dup := seen[typ]
		assert.False(t, dup, "duplicate type %q", typ)
		seen[typ] = struct{}{}
	}

	assert.False(t, notification.Type("not.a.type").Valid())
	assert.True(t, notification.TypeNewsletter.Marketing())
	assert.False(t, notification.TypeSecurityAlert.Marketing())
}
