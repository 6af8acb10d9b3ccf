package campaign

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// Enqueuer is the dispatch seam: the orchestrator hands expanded
// notifications over one by one.
type Enqueuer interface {
	Enqueue(ctx context.Context, n notification.Notification) ([]notification.DeliveryUnit, error)
}

// Orchestrator expands campaigns into per-user notifications and feeds
// them to the dispatcher.
type Orchestrator struct {
	store     Store
	directory UserDirectory
	enqueuer  Enqueuer
	log       *slog.Logger
	now       func() time.Time
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithOrchestratorLogger sets the logger for campaign runs.
func WithOrchestratorLogger(log *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if log != nil {
			o.log = log
		}
	}
}

// WithOrchestratorClock overrides the time source for tests.
func WithOrchestratorClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// NewOrchestrator creates a campaign orchestrator.
func NewOrchestrator(store Store, directory UserDirectory, enqueuer Enqueuer, opts ...OrchestratorOption) (*Orchestrator, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	if directory == nil {
		return nil, errors.New("campaign: user directory cannot be nil")
	}
	if enqueuer == nil {
		return nil, errors.New("campaign: enqueuer cannot be nil")
	}

	o := &Orchestrator{
		store:     store,
		directory: directory,
		enqueuer:  enqueuer,
		log:       slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Launch validates and stores a campaign. Immediate campaigns run right
// away; scheduled ones wait for Tick.
func (o *Orchestrator) Launch(ctx context.Context, c Campaign) (Campaign, error) {
	if err := c.Validate(); err != nil {
		return Campaign{}, err
	}

	now := o.now()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.Status = StatusActive
	c.CreatedAt = now

	switch c.Schedule.Kind {
	case ScheduleImmediate:
		next := now
		c.NextRunAt = &next
	case ScheduleOneShot:
		at := c.Schedule.At
		c.NextRunAt = &at
	case ScheduleRecurring:
		first := c.Schedule.At
		if first.IsZero() {
			first = now
		}
		c.NextRunAt = &first
	}

	if err := o.store.Save(ctx, c); err != nil {
		return Campaign{}, fmt.Errorf("campaign: save: %w", err)
	}

	if c.Schedule.Kind == ScheduleImmediate {
		return o.runLocked(ctx, c)
	}
	return c, nil
}

// Cancel stops future expansion of a campaign. Notifications already
// enqueued are untouched; cancelling those is the dispatcher's job.
func (o *Orchestrator) Cancel(ctx context.Context, id uuid.UUID) error {
	c, err := o.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if c.Status != StatusActive {
		return fmt.Errorf("%w: %s", ErrNotActive, c.Status)
	}

	c.Status = StatusCancelled
	c.NextRunAt = nil
	if err := o.store.Save(ctx, c); err != nil {
		return fmt.Errorf("campaign: save: %w", err)
	}

	o.log.InfoContext(ctx, "campaign cancelled", logger.CampaignID(id.String()))
	return nil
}

// Expansion lazily yields one notification per resolved audience
// member. Callers pull with Next until ok is false.
type Expansion struct {
	campaign Campaign
	iter     UserIterator
	now      time.Time
}

// Next returns the next expanded notification.
func (e *Expansion) Next(ctx context.Context) (notification.Notification, bool, error) {
	userID, ok, err := e.iter.Next(ctx)
	if err != nil || !ok {
		return notification.Notification{}, false, err
	}

	c := e.campaign
	return notification.Notification{
		ID:         uuid.New(),
		UserID:     userID,
		Type:       c.Type,
		Title:      c.Title,
		Message:    c.Message,
		Data:       c.Data,
		Channels:   c.Channels,
		Priority:   c.Priority,
		CampaignID: c.ID.String(),
		CreatedAt:  e.now,
	}, true, nil
}

// Expand resolves the campaign's audience and returns its lazy
// expansion. Only active campaigns expand.
func (o *Orchestrator) Expand(ctx context.Context, c Campaign) (*Expansion, error) {
	if c.Status != StatusActive {
		return nil, fmt.Errorf("%w: %s", ErrNotActive, c.Status)
	}

	iter, err := o.directory.ResolveAudience(ctx, c.Audience)
	if err != nil {
		return nil, fmt.Errorf("campaign: resolve audience: %w", err)
	}
	return &Expansion{campaign: c, iter: iter, now: o.now()}, nil
}

// Run expands the campaign once and enqueues every resulting
// notification. Per-user failures are logged and skipped; one bad
// recipient never stops a campaign.
func (o *Orchestrator) Run(ctx context.Context, id uuid.UUID) (Campaign, error) {
	c, err := o.store.Get(ctx, id)
	if err != nil {
		return Campaign{}, err
	}
	return o.runLocked(ctx, c)
}

func (o *Orchestrator) runLocked(ctx context.Context, c Campaign) (Campaign, error) {
	expansion, err := o.Expand(ctx, c)
	if err != nil {
		return Campaign{}, err
	}

	now := o.now()
	enqueued := 0
	for {
		n, ok, err := expansion.Next(ctx)
		if err != nil {
			return Campaign{}, fmt.Errorf("campaign: expand: %w", err)
		}
		if !ok {
			break
		}
		if _, err := o.enqueuer.Enqueue(ctx, n); err != nil {
			o.log.WarnContext(ctx, "campaign recipient skipped",
				logger.CampaignID(c.ID.String()),
				logger.UserID(n.UserID),
				logger.Error(err),
			)
			continue
		}
		enqueued++
	}

	c.Occurrences++
	c.Enqueued += enqueued
	run := now
	c.LastRunAt = &run

	switch c.Schedule.Kind {
	case ScheduleImmediate, ScheduleOneShot:
		c.Status = StatusCompleted
		c.NextRunAt = nil
	case ScheduleRecurring:
		if c.Schedule.done(now, c.Occurrences) {
			c.Status = StatusCompleted
			c.NextRunAt = nil
		} else {
			next := now.Add(c.Schedule.Interval)
			c.NextRunAt = &next
		}
	}

	if err := o.store.Save(ctx, c); err != nil {
		return Campaign{}, fmt.Errorf("campaign: save: %w", err)
	}

	o.log.InfoContext(ctx, "campaign run finished",
		logger.CampaignID(c.ID.String()),
		slog.Int("enqueued", enqueued),
		slog.Int("occurrence", c.Occurrences),
		slog.String("status", string(c.Status)),
	)
	return c, nil
}

// Tick runs every active campaign whose next run is due. Call it from
// a scheduler loop; it is safe to call more often than campaigns fire.
func (o *Orchestrator) Tick(ctx context.Context, now time.Time) error {
	active, err := o.store.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("campaign: list active: %w", err)
	}

	var errs []error
	for _, c := range active {
		if c.NextRunAt == nil || c.NextRunAt.After(now) {
			continue
		}
		// A recurring campaign may pass its end date while parked.
		if c.Schedule.Kind == ScheduleRecurring && c.Schedule.done(now, c.Occurrences) {
			c.Status = StatusCompleted
			c.NextRunAt = nil
			if err := o.store.Save(ctx, c); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		if _, err := o.runLocked(ctx, c); err != nil {
			errs = append(errs, fmt.Errorf("campaign %s: %w", c.ID, err))
		}
	}
	return errors.Join(errs...)
}
