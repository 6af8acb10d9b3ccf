package dispatch_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/dispatch"
	"github.com/dmitrymomot/notifykit/pkg/history"
	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/preferences"
	"github.com/dmitrymomot/notifykit/pkg/template"
)

type dispatcherFixture struct {
	dispatcher *dispatch.Dispatcher
	store      *dispatch.MemoryStore
	prefs      *preferences.MemoryStore
	tracker    *history.Tracker
	log        *history.MemoryLog
}

func newFixture(t *testing.T, opts ...dispatch.DispatcherOption) *dispatcherFixture {
	t.Helper()

	store := dispatch.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	prefStore := preferences.NewMemoryStore()
	resolver, err := preferences.NewResolver(prefStore)
	require.NoError(t, err)

	renderer, err := template.NewRenderer(template.NewMemoryStore())
	require.NoError(t, err)

	hlog := history.NewMemoryLog()
	tracker, err := history.NewTracker(hlog)
	require.NoError(t, err)

	opts = append([]dispatch.DispatcherOption{dispatch.WithTracker(tracker)}, opts...)
	d, err := dispatch.NewDispatcher(store, resolver, renderer, opts...)
	require.NoError(t, err)

	return &dispatcherFixture{dispatcher: d, store: store, prefs: prefStore, tracker: tracker, log: hlog}
}

func validNotification(userID string, channels ...notification.Channel) notification.Notification {
	if len(channels) == 0 {
		channels = []notification.Channel{notification.ChannelEmail}
	}
	return notification.Notification{
		UserID:   userID,
		Type:     notification.TypeWelcome,
		Title:    "Welcome",
		Message:  "Thanks for joining",
		Channels: channels,
		Priority: notification.PriorityNormal,
	}
}

func TestDispatcher_Enqueue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("one unit per requested channel", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		units, err := f.dispatcher.Enqueue(ctx, validNotification("user-1",
			notification.ChannelEmail, notification.ChannelPush, notification.ChannelInApp))
		require.NoError(t, err)
		require.Len(t, units, 3)

		channels := make(map[notification.Channel]bool)
		for _, u := range units {
			channels[u.Channel] = true
			assert.Equal(t, notification.StatusPending, u.Status)
			assert.Equal(t, 3, u.MaxRetries)
		}
		assert.True(t, channels[notification.ChannelEmail])
		assert.True(t, channels[notification.ChannelPush])
		assert.True(t, channels[notification.ChannelInApp])
	})

	t.Run("disabled channel produces no unit", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		prefs := preferences.Default("user-1")
		prefs.Channels = map[notification.Channel]bool{notification.ChannelPush: false}
		require.NoError(t, f.prefs.Save(ctx, prefs))

		units, err := f.dispatcher.Enqueue(ctx, validNotification("user-1",
			notification.ChannelEmail, notification.ChannelPush))
		require.NoError(t, err)
		require.Len(t, units, 1)
		assert.Equal(t, notification.ChannelEmail, units[0].Channel)
	})

	t.Run("all channels disabled enqueues nothing", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		prefs := preferences.Default("user-1")
		prefs.Channels = map[notification.Channel]bool{notification.ChannelEmail: false}
		require.NoError(t, f.prefs.Save(ctx, prefs))

		units, err := f.dispatcher.Enqueue(ctx, validNotification("user-1", notification.ChannelEmail))
		require.NoError(t, err)
		assert.Empty(t, units)
	})

	t.Run("invalid notification rejected", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		n := validNotification("user-1")
		n.Title = ""
		_, err := f.dispatcher.Enqueue(ctx, n)
		assert.ErrorIs(t, err, notification.ErrEmptyTitle)
	})

	t.Run("expired notification finalizes as expired, no error", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		n := validNotification("user-1")
		past := time.Now().Add(-time.Minute)
		n.ExpiresAt = &past

		units, err := f.dispatcher.Enqueue(ctx, n)
		require.NoError(t, err, "expiry is a recorded outcome, not an enqueue error")
		require.Len(t, units, 1)
		assert.Equal(t, notification.StatusExpired, units[0].Status)
		require.NotNil(t, units[0].FinalizedAt)

		got, err := f.store.GetUnit(ctx, units[0].ID)
		require.NoError(t, err)
		assert.Equal(t, notification.StatusExpired, got.Status)

		depth, err := f.store.CountPending(ctx, notification.ChannelEmail)
		require.NoError(t, err)
		assert.Zero(t, depth, "expired units never wait for a worker")

		finals, err := f.log.List(ctx, history.Filter{UnitID: units[0].ID, FinalOnly: true})
		require.NoError(t, err)
		require.Len(t, finals, 1)
		assert.Equal(t, notification.StatusExpired, finals[0].Status)
	})

	t.Run("future schedule carries into the unit", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		n := validNotification("user-1")
		future := time.Now().Add(time.Hour)
		n.ScheduledAt = &future

		units, err := f.dispatcher.Enqueue(ctx, n)
		require.NoError(t, err)
		require.Len(t, units, 1)
		assert.Equal(t, future.Unix(), units[0].ScheduledAt.Unix())
	})

	t.Run("backpressure saturates a single channel", func(t *testing.T) {
		t.Parallel()

		configs := dispatch.Configs{
			notification.ChannelEmail: func() dispatch.QueueConfig {
				cfg := dispatch.DefaultQueueConfig()
				cfg.MaxQueueDepth = 1
				return cfg
			}(),
		}
		f := newFixture(t, dispatch.WithConfigs(configs))

		_, err := f.dispatcher.Enqueue(ctx, validNotification("user-1", notification.ChannelEmail))
		require.NoError(t, err)

		units, err := f.dispatcher.Enqueue(ctx, validNotification("user-2",
			notification.ChannelEmail, notification.ChannelSMS))
		assert.ErrorIs(t, err, dispatch.ErrQueueSaturated)
		require.Len(t, units, 1, "saturation of one channel must not block siblings")
		assert.Equal(t, notification.ChannelSMS, units[0].Channel)
	})
}

func TestDispatcher_QuietHours(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	// Tuesday 23:00 UTC, inside a 22:00-07:00 quiet window.
	now := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)

	newQuietFixture := func(t *testing.T) *dispatcherFixture {
		f := newFixture(t, dispatch.WithDispatcherClock(func() time.Time { return now }))
		prefs := preferences.Default("user-1")
		prefs.QuietHours = &preferences.QuietHours{
			Start:    22 * 60,
			End:      7 * 60,
			Timezone: "UTC",
		}
		require.NoError(t, f.prefs.Save(ctx, prefs))
		return f
	}

	t.Run("normal priority deferred to window end", func(t *testing.T) {
		t.Parallel()

		f := newQuietFixture(t)
		units, err := f.dispatcher.Enqueue(ctx, validNotification("user-1"))
		require.NoError(t, err)
		require.Len(t, units, 1)

		wantEnd := time.Date(2026, 3, 11, 7, 0, 0, 0, time.UTC)
		assert.Equal(t, wantEnd, units[0].ScheduledAt.UTC())
	})

	t.Run("urgent priority sends immediately", func(t *testing.T) {
		t.Parallel()

		f := newQuietFixture(t)
		n := validNotification("user-1")
		n.Priority = notification.PriorityUrgent

		units, err := f.dispatcher.Enqueue(ctx, n)
		require.NoError(t, err)
		require.Len(t, units, 1)
		assert.Equal(t, now, units[0].ScheduledAt)
	})
}

func TestDispatcher_FrequencyCap(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	f := newFixture(t)
	prefs := preferences.Default("user-1")
	prefs.Frequency.MarketingPerDay = 1
	require.NoError(t, f.prefs.Save(ctx, prefs))

	marketing := validNotification("user-1", notification.ChannelEmail)
	marketing.Type = notification.TypePromotion

	// Simulate one promotion already delivered today.
	require.NoError(t, f.tracker.Delivered(ctx, notification.DeliveryUnit{
		ID:             uuid.New(),
		NotificationID: uuid.New(),
		UserID:         "user-1",
		Type:           notification.TypePromotion,
		Channel:        notification.ChannelEmail,
		Attempts:       1,
	}, time.Millisecond))

	units, err := f.dispatcher.Enqueue(ctx, marketing)
	require.NoError(t, err)
	assert.Empty(t, units, "capped marketing notification is suppressed")

	// Transactional notifications ignore the cap.
	units, err = f.dispatcher.Enqueue(ctx, validNotification("user-1"))
	require.NoError(t, err)
	assert.Len(t, units, 1)
}

func TestDispatcher_EnqueueBatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("cap enforced", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		batch := make([]notification.Notification, 1001)
		for i := range batch {
			batch[i] = validNotification("user-1")
		}
		_, err := f.dispatcher.EnqueueBatch(ctx, batch)
		assert.ErrorIs(t, err, dispatch.ErrTooManyItems)
	})

	t.Run("per-item isolation", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		bad := validNotification("user-2")
		bad.Title = ""

		units, err := f.dispatcher.EnqueueBatch(ctx, []notification.Notification{
			validNotification("user-1"),
			bad,
			validNotification("user-3"),
		})
		assert.ErrorIs(t, err, notification.ErrEmptyTitle)
		assert.Len(t, units, 2)
	})
}

func TestDispatcher_Cancel(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)

	units, err := f.dispatcher.Enqueue(ctx, validNotification("user-1",
		notification.ChannelEmail, notification.ChannelSMS))
	require.NoError(t, err)
	require.Len(t, units, 2)

	cancelled, err := f.dispatcher.Cancel(ctx, units[0].NotificationID)
	require.NoError(t, err)
	assert.Equal(t, 2, cancelled)

	for _, u := range units {
		got, err := f.store.GetUnit(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, notification.StatusCancelled, got.Status)
	}
}
