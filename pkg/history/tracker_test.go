package history_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/history"
	"github.com/dmitrymomot/notifykit/pkg/notification"
)

func testUnit(ch notification.Channel) notification.DeliveryUnit {
	return notification.DeliveryUnit{
		ID:             uuid.New(),
		NotificationID: uuid.New(),
		UserID:         "user-1",
		Type:           notification.TypePaymentReceived,
		Channel:        ch,
		Attempts:       1,
	}
}

func TestTracker_AppendsRecords(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	log := history.NewMemoryLog()
	tracker, err := history.NewTracker(log)
	require.NoError(t, err)

	unit := testUnit(notification.ChannelEmail)
	require.NoError(t, tracker.FailedAttempt(ctx, unit, notification.RetryableFailure("timeout"), 200*time.Millisecond))

	unit.Attempts = 2
	require.NoError(t, tracker.Delivered(ctx, unit, 150*time.Millisecond))

	records, err := log.List(ctx, history.Filter{UnitID: unit.ID})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.False(t, records[0].Final)
	assert.True(t, records[0].Retryable)
	assert.Equal(t, "timeout", records[0].Detail)

	assert.True(t, records[1].Final)
	assert.Equal(t, notification.StatusDelivered, records[1].Status)

	finals, err := log.List(ctx, history.Filter{UnitID: unit.ID, FinalOnly: true})
	require.NoError(t, err)
	assert.Len(t, finals, 1, "exactly one final record per unit")
}

func TestTracker_FinalizedRejectsNonTerminal(t *testing.T) {
	t.Parallel()

	tracker, err := history.NewTracker(history.NewMemoryLog())
	require.NoError(t, err)

	err = tracker.Finalized(context.Background(), testUnit(notification.ChannelSMS), notification.StatusPending, "")
	assert.Error(t, err)
}

func TestTracker_Aggregate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	log := history.NewMemoryLog()
	tracker, err := history.NewTracker(log)
	require.NoError(t, err)

	email := testUnit(notification.ChannelEmail)
	require.NoError(t, tracker.Delivered(ctx, email, 100*time.Millisecond))

	sms := testUnit(notification.ChannelSMS)
	require.NoError(t, tracker.FailedAttempt(ctx, sms, notification.RetryableFailure("busy"), 50*time.Millisecond))
	sms.Attempts = 2
	require.NoError(t, tracker.Finalized(ctx, sms, notification.StatusFailed, "gave up"))

	expired := testUnit(notification.ChannelPush)
	require.NoError(t, tracker.Finalized(ctx, expired, notification.StatusExpired, ""))

	stats, err := tracker.Aggregate(ctx, history.AggregateQuery{GroupBy: history.GroupByChannel})
	require.NoError(t, err)

	emailStats := stats["email"]
	assert.Equal(t, 1, emailStats.Sent)
	assert.Equal(t, 1, emailStats.Delivered)
	assert.Equal(t, 0, emailStats.Failed)
	assert.InDelta(t, 1.0, emailStats.DeliveryRate, 0.001)
	assert.Equal(t, 100*time.Millisecond, emailStats.AvgLatency)

	smsStats := stats["sms"]
	assert.Equal(t, 2, smsStats.Sent, "every attempt counts as sent")
	assert.Equal(t, 1, smsStats.Failed)
	assert.Equal(t, 0, smsStats.Delivered)

	pushStats := stats["push"]
	assert.Equal(t, 0, pushStats.Sent, "expiry is not a send")

	t.Run("replay yields identical stats", func(t *testing.T) {
		again, err := tracker.Aggregate(ctx, history.AggregateQuery{GroupBy: history.GroupByChannel})
		require.NoError(t, err)
		assert.Equal(t, stats, again)
	})

	t.Run("unknown grouping rejected", func(t *testing.T) {
		_, err := tracker.Aggregate(ctx, history.AggregateQuery{GroupBy: "hour"})
		assert.ErrorIs(t, err, history.ErrInvalidGrouping)
	})

	t.Run("inverted period rejected", func(t *testing.T) {
		now := time.Now()
		_, err := tracker.Aggregate(ctx, history.AggregateQuery{From: now, To: now.Add(-time.Hour)})
		assert.ErrorIs(t, err, history.ErrInvalidPeriod)
	})
}

func TestTracker_AggregateByPeriod(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	log := history.NewMemoryLog()

	day1 := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	current := day1
	tracker, err := history.NewTracker(log, history.WithTrackerClock(func() time.Time { return current }))
	require.NoError(t, err)

	require.NoError(t, tracker.Delivered(ctx, testUnit(notification.ChannelEmail), time.Millisecond))
	current = day2
	require.NoError(t, tracker.Delivered(ctx, testUnit(notification.ChannelEmail), time.Millisecond))

	stats, err := tracker.Aggregate(ctx, history.AggregateQuery{GroupBy: history.GroupByDay})
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, 1, stats["2026-03-10"].Delivered)
	assert.Equal(t, 1, stats["2026-03-11"].Delivered)

	t.Run("user scope filters", func(t *testing.T) {
		stats, err := tracker.Aggregate(ctx, history.AggregateQuery{UserID: "nobody"})
		require.NoError(t, err)
		assert.Empty(t, stats)
	})
}

func TestTracker_CountFinalSince(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tracker, err := history.NewTracker(history.NewMemoryLog())
	require.NoError(t, err)

	unit := testUnit(notification.ChannelEmail)
	unit.Type = notification.TypeNewsletter
	require.NoError(t, tracker.Delivered(ctx, unit, time.Millisecond))

	count, err := tracker.CountFinalSince(ctx, "user-1",
		[]notification.Type{notification.TypeNewsletter, notification.TypePromotion},
		time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
