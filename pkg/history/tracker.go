package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// Tracker is the write-side API over the history log. All methods append;
// nothing ever mutates existing records.
type Tracker struct {
	log Log
	now func() time.Time
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithTrackerClock overrides the tracker's time source for tests.
func WithTrackerClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTracker creates a tracker appending to the given log.
func NewTracker(log Log, opts ...TrackerOption) (*Tracker, error) {
	if log == nil {
		return nil, ErrLogNil
	}

	t := &Tracker{log: log, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Delivered appends the final record for a successfully delivered unit.
func (t *Tracker) Delivered(ctx context.Context, unit notification.DeliveryUnit, latency time.Duration) error {
	return t.append(ctx, unit, notification.StatusDelivered, true, false, "", latency)
}

// FailedAttempt appends a non-final record for an attempt that will be
// retried.
func (t *Tracker) FailedAttempt(ctx context.Context, unit notification.DeliveryUnit, outcome notification.Outcome, latency time.Duration) error {
	return t.append(ctx, unit, notification.StatusFailed, false, outcome.Retryable, outcome.Detail, latency)
}

// Finalized appends the single final record for a unit that ended in a
// non-delivered terminal state: failed, cancelled or expired.
func (t *Tracker) Finalized(ctx context.Context, unit notification.DeliveryUnit, status notification.DeliveryStatus, detail string) error {
	if !status.Terminal() {
		return fmt.Errorf("history: %q is not a terminal status", status)
	}
	return t.append(ctx, unit, status, true, false, detail, 0)
}

func (t *Tracker) append(ctx context.Context, unit notification.DeliveryUnit, status notification.DeliveryStatus, final, retryable bool, detail string, latency time.Duration) error {
	return t.log.Append(ctx, Record{
		ID:             uuid.New(),
		UnitID:         unit.ID,
		NotificationID: unit.NotificationID,
		UserID:         unit.UserID,
		Type:           unit.Type,
		Channel:        unit.Channel,
		Attempt:        unit.Attempts,
		Status:         status,
		Final:          final,
		Retryable:      retryable,
		Detail:         detail,
		Latency:        latency,
		CreatedAt:      t.now(),
	})
}

// CountFinalSince counts final records for a user across the given types
// since a point in time. Used for frequency-cap checks at enqueue time.
func (t *Tracker) CountFinalSince(ctx context.Context, userID string, types []notification.Type, since time.Time) (int, error) {
	count := 0
	for _, typ := range types {
		records, err := t.log.List(ctx, Filter{
			UserID:    userID,
			Type:      typ,
			From:      since,
			FinalOnly: true,
		})
		if err != nil {
			return 0, err
		}
		count += len(records)
	}
	return count, nil
}

// GroupBy selects the aggregation dimension.
type GroupBy string

const (
	GroupByDay     GroupBy = "day"
	GroupByWeek    GroupBy = "week"
	GroupByMonth   GroupBy = "month"
	GroupByChannel GroupBy = "channel"
	GroupByType    GroupBy = "type"
)

// AggregateQuery scopes a statistics computation. An empty UserID means
// global scope.
type AggregateQuery struct {
	UserID  string
	From    time.Time
	To      time.Time
	GroupBy GroupBy
}

// Bucket holds the statistics for one group.
type Bucket struct {
	Sent         int           `json:"sent"`
	Delivered    int           `json:"delivered"`
	Failed       int           `json:"failed"`
	DeliveryRate float64       `json:"delivery_rate"`
	AvgLatency   time.Duration `json:"avg_latency"`
}

// Stats is the aggregation result keyed by group label.
type Stats map[string]Bucket

// Aggregate computes sent/delivered/failed counts, the delivery rate and
// the average delivery latency per group. Sent counts every attempt;
// delivered and failed count final outcomes only. The computation is a pure
// fold over the append-only log, so it is idempotent and replayable.
func (t *Tracker) Aggregate(ctx context.Context, q AggregateQuery) (Stats, error) {
	switch q.GroupBy {
	case GroupByDay, GroupByWeek, GroupByMonth, GroupByChannel, GroupByType:
	case "":
		q.GroupBy = GroupByDay
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidGrouping, q.GroupBy)
	}
	if !q.From.IsZero() && !q.To.IsZero() && !q.To.After(q.From) {
		return nil, ErrInvalidPeriod
	}

	records, err := t.log.List(ctx, Filter{UserID: q.UserID, From: q.From, To: q.To})
	if err != nil {
		return nil, fmt.Errorf("history: list records: %w", err)
	}

	type agg struct {
		bucket       Bucket
		latencyTotal time.Duration
	}
	groups := make(map[string]*agg)

	for _, r := range records {
		label := groupLabel(q.GroupBy, r)
		g, ok := groups[label]
		if !ok {
			g = &agg{}
			groups[label] = g
		}

		if r.Status == notification.StatusDelivered || r.Status == notification.StatusFailed {
			g.bucket.Sent++
		}
		if !r.Final {
			continue
		}
		switch r.Status {
		case notification.StatusDelivered:
			g.bucket.Delivered++
			g.latencyTotal += r.Latency
		case notification.StatusFailed:
			g.bucket.Failed++
		}
	}

	stats := make(Stats, len(groups))
	for label, g := range groups {
		b := g.bucket
		if b.Sent > 0 {
			b.DeliveryRate = float64(b.Delivered) / float64(b.Sent)
		}
		if b.Delivered > 0 {
			b.AvgLatency = g.latencyTotal / time.Duration(b.Delivered)
		}
		stats[label] = b
	}
	return stats, nil
}

func groupLabel(by GroupBy, r Record) string {
	switch by {
	case GroupByChannel:
		return string(r.Channel)
	case GroupByType:
		return string(r.Type)
	case GroupByWeek:
		year, week := r.CreatedAt.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case GroupByMonth:
		return r.CreatedAt.Format("2006-01")
	default:
		return r.CreatedAt.Format("2006-01-02")
	}
}
