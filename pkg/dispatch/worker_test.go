package dispatch_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/dispatch"
	"github.com/dmitrymomot/notifykit/pkg/history"
	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/retry"
)

// scriptedSender returns the queued outcomes in order, then delivers.
type scriptedSender struct {
	channel  notification.Channel
	mu       sync.Mutex
	script   []notification.Outcome
	calls    atomic.Int32
	panicked bool
}

func (s *scriptedSender) Channel() notification.Channel {
	return s.channel
}

func (s *scriptedSender) Send(ctx context.Context, unit notification.DeliveryUnit) (notification.Outcome, error) {
	s.calls.Add(1)
	if s.panicked {
		s.panicked = false
		panic("gateway blew up")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.script) == 0 {
		return notification.Delivered(), nil
	}
	next := s.script[0]
	s.script = s.script[1:]
	return next, nil
}

type workerFixture struct {
	store   *dispatch.MemoryStore
	log     *history.MemoryLog
	tracker *history.Tracker
	dlq     *retry.MemoryDeadLetter
	worker  *dispatch.Worker
	sender  *scriptedSender
}

func newWorkerFixture(t *testing.T, snd *scriptedSender) *workerFixture {
	t.Helper()

	store := dispatch.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	hlog := history.NewMemoryLog()
	tracker, err := history.NewTracker(hlog)
	require.NoError(t, err)

	dlq := retry.NewMemoryDeadLetter()
	ctrl, err := retry.NewController(dlq)
	require.NoError(t, err)

	cfg := dispatch.DefaultQueueConfig()
	cfg.PullInterval = 10 * time.Millisecond
	cfg.Retry.MaxRetries = 2
	// The worker retries under the channel policy, so the test keeps
	// its delays tiny.
	cfg.Retry.InitialDelay = time.Millisecond
	cfg.Retry.MaxDelay = 5 * time.Millisecond

	w, err := dispatch.NewWorker(store, snd, ctrl, tracker, cfg)
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(func() { _ = w.Stop() })

	return &workerFixture{store: store, log: hlog, tracker: tracker, dlq: dlq, worker: w, sender: snd}
}

func enqueue(t *testing.T, store *dispatch.MemoryStore, unit notification.DeliveryUnit) notification.DeliveryUnit {
	t.Helper()
	require.NoError(t, store.CreateUnit(context.Background(), unit))
	return unit
}

func waitForStatus(t *testing.T, store *dispatch.MemoryStore, unit notification.DeliveryUnit, want notification.DeliveryStatus) notification.DeliveryUnit {
	t.Helper()

	var got notification.DeliveryUnit
	require.Eventually(t, func() bool {
		u, err := store.GetUnit(context.Background(), unit.ID)
		if err != nil {
			return false
		}
		got = u
		return u.Status == want
	}, 10*time.Second, 10*time.Millisecond, "unit never reached %s", want)
	return got
}

func TestWorker_DeliversUnit(t *testing.T) {
	t.Parallel()

	snd := &scriptedSender{channel: notification.ChannelEmail}
	f := newWorkerFixture(t, snd)

	unit := enqueue(t, f.store, pendingUnit(notification.ChannelEmail, notification.PriorityNormal, time.Now().Add(-time.Second)))

	got := waitForStatus(t, f.store, unit, notification.StatusDelivered)
	assert.NotNil(t, got.FinalizedAt)
	assert.Equal(t, 1, got.Attempts)

	records, err := f.log.List(context.Background(), history.Filter{UnitID: unit.ID, FinalOnly: true})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, notification.StatusDelivered, records[0].Status)
}

func TestWorker_RetriesThenDelivers(t *testing.T) {
	t.Parallel()

	snd := &scriptedSender{
		channel: notification.ChannelEmail,
		script:  []notification.Outcome{notification.RetryableFailure("timeout")},
	}
	f := newWorkerFixture(t, snd)

	unit := enqueue(t, f.store, pendingUnit(notification.ChannelEmail, notification.PriorityNormal, time.Now().Add(-time.Second)))

	got := waitForStatus(t, f.store, unit, notification.StatusDelivered)
	assert.Equal(t, 2, got.Attempts)

	records, err := f.log.List(context.Background(), history.Filter{UnitID: unit.ID})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.False(t, records[0].Final)
	assert.True(t, records[1].Final)
}

func TestWorker_ExhaustedRetriesDeadLetter(t *testing.T) {
	t.Parallel()

	snd := &scriptedSender{
		channel: notification.ChannelEmail,
		script: []notification.Outcome{
			notification.RetryableFailure("down"),
			notification.RetryableFailure("down"),
			notification.RetryableFailure("down"),
		},
	}
	f := newWorkerFixture(t, snd)

	unit := pendingUnit(notification.ChannelEmail, notification.PriorityNormal, time.Now().Add(-time.Second))
	unit.MaxRetries = 2
	enqueue(t, f.store, unit)

	got := waitForStatus(t, f.store, unit, notification.StatusFailed)
	assert.Equal(t, 3, got.Attempts, "initial attempt plus two retries")

	entries, err := f.dlq.List(context.Background(), notification.ChannelEmail, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, unit.ID, entries[0].Unit.ID)

	finals, err := f.log.List(context.Background(), history.Filter{UnitID: unit.ID, FinalOnly: true})
	require.NoError(t, err)
	assert.Len(t, finals, 1, "exactly one final record")
}

func TestWorker_PermanentFailureSkipsRetries(t *testing.T) {
	t.Parallel()

	snd := &scriptedSender{
		channel: notification.ChannelEmail,
		script:  []notification.Outcome{notification.PermanentFailure("invalid recipient")},
	}
	f := newWorkerFixture(t, snd)

	unit := enqueue(t, f.store, pendingUnit(notification.ChannelEmail, notification.PriorityNormal, time.Now().Add(-time.Second)))

	got := waitForStatus(t, f.store, unit, notification.StatusFailed)
	assert.Equal(t, 1, got.Attempts)
	assert.Equal(t, 1, f.dlq.Len())
}

func TestWorker_ExpiredUnitNeverSent(t *testing.T) {
	t.Parallel()

	snd := &scriptedSender{channel: notification.ChannelEmail}
	f := newWorkerFixture(t, snd)

	unit := pendingUnit(notification.ChannelEmail, notification.PriorityNormal, time.Now().Add(-time.Minute))
	past := time.Now().Add(-time.Second)
	unit.ExpiresAt = &past
	enqueue(t, f.store, unit)

	got := waitForStatus(t, f.store, unit, notification.StatusExpired)
	assert.NotNil(t, got.FinalizedAt)
	assert.Zero(t, snd.calls.Load(), "expired units must not reach the sender")
}

func TestWorker_PanicClassifiedAsRetryable(t *testing.T) {
	t.Parallel()

	snd := &scriptedSender{channel: notification.ChannelEmail, panicked: true}
	f := newWorkerFixture(t, snd)

	unit := enqueue(t, f.store, pendingUnit(notification.ChannelEmail, notification.PriorityNormal, time.Now().Add(-time.Second)))

	got := waitForStatus(t, f.store, unit, notification.StatusDelivered)
	assert.Equal(t, 2, got.Attempts, "panic consumes one attempt, then the retry delivers")
}

func TestWorker_StartStop(t *testing.T) {
	t.Parallel()

	snd := &scriptedSender{channel: notification.ChannelEmail}
	f := newWorkerFixture(t, snd)

	assert.ErrorIs(t, f.worker.Start(context.Background()), dispatch.ErrWorkerStarted)
	require.NoError(t, f.worker.Stop())
	assert.ErrorIs(t, f.worker.Stop(), dispatch.ErrWorkerNotStarted)

	// Restart after a clean stop.
	require.NoError(t, f.worker.Start(context.Background()))
}
