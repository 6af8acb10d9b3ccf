package notification_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()

	allowed := []struct {
		from, to notification.DeliveryStatus
	}{
		{notification.StatusPending, notification.StatusSending},
		{notification.StatusSending, notification.StatusDelivered},
		{notification.StatusSending, notification.StatusRetryWait},
		{notification.StatusSending, notification.StatusFailed},
		{notification.StatusRetryWait, notification.StatusPending},
		{notification.StatusPending, notification.StatusCancelled},
		{notification.StatusRetryWait, notification.StatusCancelled},
		{notification.StatusSending, notification.StatusCancelled},
		{notification.StatusPending, notification.StatusExpired},
		{notification.StatusRetryWait, notification.StatusExpired},
	}
	for _, tc := range allowed {
		assert.True(t, notification.CanTransition(tc.from, tc.to),
			"%s -> %s must be allowed", tc.from, tc.to)
	}

	denied := []struct {
		from, to notification.DeliveryStatus
	}{
		{notification.StatusPending, notification.StatusDelivered},
		{notification.StatusPending, notification.StatusRetryWait},
		{notification.StatusRetryWait, notification.StatusSending},
		{notification.StatusDelivered, notification.StatusSending},
		{notification.StatusDelivered, notification.StatusCancelled},
		{notification.StatusFailed, notification.StatusPending},
		{notification.StatusCancelled, notification.StatusPending},
		{notification.StatusExpired, notification.StatusSending},
		{notification.StatusSending, notification.StatusPending},
	}
	for _, tc := range denied {
		assert.False(t, notification.CanTransition(tc.from, tc.to),
			"%s -> %s must be rejected", tc.from, tc.to)
	}
}

func TestDeliveryStatus_Terminal(t *testing.T) {
	t.Parallel()

	terminal := []notification.DeliveryStatus{
		notification.StatusDelivered,
		notification.StatusFailed,
		notification.StatusCancelled,
		notification.StatusExpired,
	}
	for _, s := range terminal {
		assert.True(t, s.Terminal(), "%s", s)
	}

	nonTerminal := []notification.DeliveryStatus{
		notification.StatusPending,
		notification.StatusSending,
		notification.StatusRetryWait,
	}
	for _, s := range nonTerminal {
		assert.False(t, s.Terminal(), "%s", s)
	}
}

func TestDeliveryUnit_Transition(t *testing.T) {
	t.Parallel()

	now := time.Now()

	unit := notification.DeliveryUnit{
		ID:             uuid.New(),
		NotificationID: uuid.New(),
		Status:         notification.StatusPending,
	}

	require.NoError(t, unit.Transition(notification.StatusSending, now))
	require.NoError(t, unit.Transition(notification.StatusDelivered, now))
	require.NotNil(t, unit.FinalizedAt, "terminal transition must stamp finalization")

	err := unit.Transition(notification.StatusSending, now)
	assert.ErrorIs(t, err, notification.ErrInvalidTransition, "terminal units stay terminal")
}

func TestDeliveryUnit_DueAt(t *testing.T) {
	t.Parallel()

	now := time.Now()

	unit := notification.DeliveryUnit{ScheduledAt: now.Add(-time.Minute)}
	assert.True(t, unit.Due(now), "past schedule is due")

	retry := now.Add(10 * time.Minute)
	unit.NextRetryAt = &retry
	assert.False(t, unit.Due(now), "backoff postpones due time")
	assert.Equal(t, retry, unit.DueAt())

	past := now.Add(-time.Second)
	unit.ExpiresAt = &past
	assert.True(t, unit.IsExpired(now))
}
