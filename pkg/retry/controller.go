package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// Action tells the caller how to proceed with a delivery unit.
type Action int

const (
	// ActionDeliver finalizes the unit as delivered.
	ActionDeliver Action = iota

	// ActionRetry reschedules the unit at Decision.NextAttemptAt.
	ActionRetry

	// ActionFail finalizes the unit as failed. The unit has already
	// been moved to the dead-letter store.
	ActionFail
)

// Decision is the controller's verdict on a send attempt.
type Decision struct {
	Action        Action
	NextAttemptAt time.Time
	Reason        string
}

// Controller turns send outcomes into retry decisions and dead-letters
// units that are out of budget.
type Controller struct {
	deadLetter DeadLetterStore
	backoff    BackoffStrategy
	log        *slog.Logger
	now        func() time.Time
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithBackoff overrides the default backoff strategy.
func WithBackoff(b BackoffStrategy) ControllerOption {
	return func(c *Controller) {
		if b != nil {
			c.backoff = b
		}
	}
}

// WithControllerLogger sets the logger for retry and dead-letter events.
func WithControllerLogger(log *slog.Logger) ControllerOption {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// WithControllerClock overrides the controller's time source for tests.
func WithControllerClock(now func() time.Time) ControllerOption {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// NewController creates a retry controller backed by the given
// dead-letter store.
func NewController(deadLetter DeadLetterStore, opts ...ControllerOption) (*Controller, error) {
	if deadLetter == nil {
		return nil, ErrDeadLetterNil
	}

	c := &Controller{
		deadLetter: deadLetter,
		backoff:    DefaultBackoffStrategy(),
		log:        slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// OnOutcome decides what to do with a unit after a send attempt. The
// unit's Attempts must already include the attempt that produced the
// outcome. A non-nil backoff overrides the controller default, letting
// each channel retry under its own policy. Permanent failures and
// exhausted retry budgets dead-letter the unit before ActionFail is
// returned.
func (c *Controller) OnOutcome(ctx context.Context, unit notification.DeliveryUnit, outcome notification.Outcome, backoff BackoffStrategy) (Decision, error) {
	if outcome.Status == notification.OutcomeDelivered {
		return Decision{Action: ActionDeliver}, nil
	}

	if backoff == nil {
		backoff = c.backoff
	}

	if outcome.Retryable && unit.Attempts <= unit.MaxRetries {
		delay := backoff.NextInterval(unit.Attempts)
		next := c.now().Add(delay)

		c.log.InfoContext(ctx, "delivery attempt failed, retry scheduled",
			slog.String("unit_id", unit.ID.String()),
			slog.String("channel", string(unit.Channel)),
			slog.Int("attempt", unit.Attempts),
			slog.Duration("delay", delay),
			slog.String("detail", outcome.Detail),
		)
		return Decision{Action: ActionRetry, NextAttemptAt: next, Reason: outcome.Detail}, nil
	}

	reason := outcome.Detail
	if outcome.Retryable {
		reason = fmt.Sprintf("retry budget exhausted after %d attempts: %s", unit.Attempts, outcome.Detail)
	}

	if err := c.deadLetter.Add(ctx, DeadLetterEntry{
		Unit:    unit,
		Reason:  reason,
		MovedAt: c.now(),
	}); err != nil {
		return Decision{}, fmt.Errorf("retry: dead-letter unit %s: %w", unit.ID, err)
	}

	c.log.WarnContext(ctx, "delivery unit dead-lettered",
		slog.String("unit_id", unit.ID.String()),
		slog.String("channel", string(unit.Channel)),
		slog.Int("attempt", unit.Attempts),
		slog.String("reason", reason),
	)
	return Decision{Action: ActionFail, Reason: reason}, nil
}

// Requeue removes a dead-lettered unit and returns it reset for a fresh
// delivery cycle: pending status, zero attempts, no schedule.
func (c *Controller) Requeue(ctx context.Context, channel notification.Channel, unitID uuid.UUID) (notification.DeliveryUnit, error) {
	entry, err := c.deadLetter.Take(ctx, channel, unitID)
	if err != nil {
		return notification.DeliveryUnit{}, err
	}

	u := entry.Unit
	u.Status = notification.StatusPending
	u.Attempts = 0
	u.NextRetryAt = nil
	u.LastError = ""
	u.FinalizedAt = nil
	return u, nil
}
