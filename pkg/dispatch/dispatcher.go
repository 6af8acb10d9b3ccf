package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/history"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/preferences"
	"github.com/dmitrymomot/notifykit/pkg/template"
)

// maxBatchSize caps a single bulk enqueue.
const maxBatchSize = 1000

// Dispatcher turns notifications into queued delivery units. Preference
// resolution and rendering happen once here, at enqueue time; workers
// only transport the prepared content.
type Dispatcher struct {
	store    Store
	resolver *preferences.Resolver
	renderer *template.Renderer
	tracker  *history.Tracker
	configs  Configs
	log      *slog.Logger
	now      func() time.Time
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithConfigs sets per-channel queue tuning.
func WithConfigs(configs Configs) DispatcherOption {
	return func(d *Dispatcher) {
		if configs != nil {
			d.configs = configs
		}
	}
}

// WithTracker enables frequency-cap checks against delivery history.
// Without a tracker, caps are not enforced.
func WithTracker(t *history.Tracker) DispatcherOption {
	return func(d *Dispatcher) {
		d.tracker = t
	}
}

// WithDispatcherLogger sets the logger for enqueue events.
func WithDispatcherLogger(log *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

// WithDispatcherClock overrides the dispatcher's time source for tests.
func WithDispatcherClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDispatcher creates the enqueue side of the engine.
func NewDispatcher(store Store, resolver *preferences.Resolver, renderer *template.Renderer, opts ...DispatcherOption) (*Dispatcher, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	if resolver == nil {
		return nil, errors.New("dispatch: resolver cannot be nil")
	}
	if renderer == nil {
		return nil, errors.New("dispatch: renderer cannot be nil")
	}

	d := &Dispatcher{
		store:    store,
		resolver: resolver,
		renderer: renderer,
		configs:  Configs{},
		log:      slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Enqueue validates the notification, resolves the user's preferences
// and creates one delivery unit per enabled channel. A notification
// whose channels are all disabled enqueues nothing and returns no
// error; channel-level failures (saturation, render errors) are
// reported joined but never block sibling channels.
func (d *Dispatcher) Enqueue(ctx context.Context, n notification.Notification) ([]notification.DeliveryUnit, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}

	now := d.now()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	if n.IsExpired(now) {
		return d.enqueueExpired(ctx, n, now)
	}

	res, err := d.resolver.Resolve(ctx, n.UserID, n.Type, n.Channels)
	if err != nil {
		return nil, fmt.Errorf("dispatch: resolve preferences: %w", err)
	}
	if len(res.Channels) == 0 {
		d.log.InfoContext(ctx, "all channels disabled by preferences, nothing enqueued",
			logger.NotificationID(n.ID.String()),
			logger.UserID(n.UserID),
		)
		return nil, nil
	}

	suppressed, err := d.frequencyCapped(ctx, n, res, now)
	if err != nil {
		return nil, err
	}
	if suppressed {
		d.log.InfoContext(ctx, "marketing notification suppressed by frequency cap",
			logger.NotificationID(n.ID.String()),
			logger.UserID(n.UserID),
			logger.NotificationType(string(n.Type)),
		)
		return nil, nil
	}

	scheduledAt := n.DueAt(now)
	if deferred := res.DeferUntil(n.Priority, scheduledAt); deferred.After(scheduledAt) {
		scheduledAt = deferred
	}

	units := make([]notification.DeliveryUnit, 0, len(res.Channels))
	var errs []error
	for _, ch := range res.Channels {
		unit, err := d.enqueueChannel(ctx, n, ch, scheduledAt, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ch, err))
			continue
		}
		units = append(units, unit)
	}
	return units, errors.Join(errs...)
}

// enqueueExpired records an already-expired notification as terminal
// EXPIRED units. Expiry is a tracked outcome, not an enqueue error, so
// history shows why nothing was delivered; no sender is ever involved.
func (d *Dispatcher) enqueueExpired(ctx context.Context, n notification.Notification, now time.Time) ([]notification.DeliveryUnit, error) {
	res, err := d.resolver.Resolve(ctx, n.UserID, n.Type, n.Channels)
	if err != nil {
		return nil, fmt.Errorf("dispatch: resolve preferences: %w", err)
	}

	units := make([]notification.DeliveryUnit, 0, len(res.Channels))
	var errs []error
	for _, ch := range res.Channels {
		finalized := now
		unit := notification.DeliveryUnit{
			ID:             uuid.New(),
			NotificationID: n.ID,
			UserID:         n.UserID,
			Type:           n.Type,
			Channel:        ch,
			Priority:       n.Priority,
			Status:         notification.StatusExpired,
			ScheduledAt:    now,
			ExpiresAt:      n.ExpiresAt,
			CreatedAt:      now,
			FinalizedAt:    &finalized,
		}
		if err := d.store.CreateUnit(ctx, unit); err != nil {
			errs = append(errs, fmt.Errorf("%s: create unit: %w", ch, err))
			continue
		}
		if d.tracker != nil {
			if err := d.tracker.Finalized(ctx, unit, notification.StatusExpired, "expired before enqueue"); err != nil {
				d.log.WarnContext(ctx, "failed to record expiry",
					logger.DeliveryUnitID(unit.ID.String()),
					logger.Error(err),
				)
			}
		}
		units = append(units, unit)
	}

	d.log.InfoContext(ctx, "notification expired before enqueue",
		logger.NotificationID(n.ID.String()),
		logger.UserID(n.UserID),
		slog.Int("units_expired", len(units)),
	)
	return units, errors.Join(errs...)
}

func (d *Dispatcher) enqueueChannel(ctx context.Context, n notification.Notification, ch notification.Channel, scheduledAt, now time.Time) (notification.DeliveryUnit, error) {
	cfg := d.configs.For(ch)

	depth, err := d.store.CountPending(ctx, ch)
	if err != nil {
		return notification.DeliveryUnit{}, fmt.Errorf("count pending: %w", err)
	}
	if cfg.MaxQueueDepth > 0 && depth >= cfg.MaxQueueDepth {
		return notification.DeliveryUnit{}, ErrQueueSaturated
	}

	rendered, err := d.renderer.Render(ctx, n, ch)
	if err != nil {
		return notification.DeliveryUnit{}, fmt.Errorf("render: %w", err)
	}

	unit := notification.DeliveryUnit{
		ID:             uuid.New(),
		NotificationID: n.ID,
		UserID:         n.UserID,
		Type:           n.Type,
		Channel:        ch,
		Priority:       n.Priority,
		Status:         notification.StatusPending,
		MaxRetries:     cfg.Retry.MaxRetries,
		Rendered:       rendered,
		ScheduledAt:    scheduledAt,
		ExpiresAt:      n.ExpiresAt,
		CreatedAt:      now,
	}
	if err := d.store.CreateUnit(ctx, unit); err != nil {
		return notification.DeliveryUnit{}, fmt.Errorf("create unit: %w", err)
	}

	d.log.DebugContext(ctx, "delivery unit enqueued",
		logger.DeliveryUnitID(unit.ID.String()),
		logger.NotificationID(n.ID.String()),
		logger.Channel(string(ch)),
		slog.Time("scheduled_at", scheduledAt),
	)
	return unit, nil
}

// frequencyCapped reports whether a marketing notification exceeds the
// user's daily cap. Transactional types are never capped.
func (d *Dispatcher) frequencyCapped(ctx context.Context, n notification.Notification, res preferences.Resolution, now time.Time) (bool, error) {
	if d.tracker == nil || !n.Type.Marketing() {
		return false, nil
	}

	limit := res.Frequency.MarketingPerDay
	types := []notification.Type{notification.TypeNewsletter, notification.TypePromotion}
	if n.Type == notification.TypeDigest {
		limit = res.Frequency.DigestPerDay
		types = []notification.Type{notification.TypeDigest}
	}
	if limit <= 0 {
		return false, nil
	}

	count, err := d.tracker.CountFinalSince(ctx, n.UserID, types, now.Add(-24*time.Hour))
	if err != nil {
		// History being unavailable must not block marketing sends;
		// caps are a courtesy, not a delivery guarantee.
		d.log.WarnContext(ctx, "frequency cap check failed, allowing send",
			logger.UserID(n.UserID),
			logger.Error(err),
		)
		return false, nil
	}
	return count >= limit, nil
}

// EnqueueBatch enqueues up to maxBatchSize notifications with per-item
// isolation: one invalid notification does not block the rest. The
// returned units cover the successful items; errors are joined.
func (d *Dispatcher) EnqueueBatch(ctx context.Context, batch []notification.Notification) ([]notification.DeliveryUnit, error) {
	if len(batch) > maxBatchSize {
		return nil, fmt.Errorf("%w: %d items, cap is %d", ErrTooManyItems, len(batch), maxBatchSize)
	}

	var units []notification.DeliveryUnit
	var errs []error
	for i, n := range batch {
		created, err := d.Enqueue(ctx, n)
		if err != nil {
			errs = append(errs, fmt.Errorf("item %d: %w", i, err))
		}
		units = append(units, created...)
	}
	return units, errors.Join(errs...)
}

// Cancel cooperatively cancels a notification: queued and parked units
// are cancelled, units mid-send finish their current attempt. Returns
// the number of units cancelled.
func (d *Dispatcher) Cancel(ctx context.Context, notificationID uuid.UUID) (int, error) {
	cancelled, err := d.store.CancelByNotification(ctx, notificationID)
	if err != nil {
		return len(cancelled), fmt.Errorf("dispatch: cancel notification %s: %w", notificationID, err)
	}

	if d.tracker != nil {
		for _, unit := range cancelled {
			if err := d.tracker.Finalized(ctx, unit, notification.StatusCancelled, "cancelled before dispatch"); err != nil {
				d.log.WarnContext(ctx, "failed to record cancellation",
					logger.DeliveryUnitID(unit.ID.String()),
					logger.Error(err),
				)
			}
		}
	}

	d.log.InfoContext(ctx, "notification cancelled",
		logger.NotificationID(notificationID.String()),
		slog.Int("units_cancelled", len(cancelled)),
	)
	return len(cancelled), nil
}
