package campaign

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// maxBatchItems caps how many notifications one batch may carry.
const maxBatchItems = 1000

// Batch groups independent notifications under one name so their
// outcomes can be tracked together. Unlike a campaign, every item is
// fully authored by the caller; the batch only stamps a shared ID and
// an optional schedule override.
type Batch struct {
	Name          string                      `json:"name"`
	ScheduledAt   *time.Time                  `json:"scheduled_at,omitempty"`
	Notifications []notification.Notification `json:"notifications"`
}

// BatchResult reports what happened to each item in a batch.
type BatchResult struct {
	BatchID  string                      `json:"batch_id"`
	Enqueued []notification.DeliveryUnit `json:"enqueued"`
	Err      error                       `json:"-"`
}

// SendBatch stamps every item with a fresh batch ID, applies the
// optional schedule override, and enqueues each one. Item failures are
// collected, not fatal; the returned error joins them.
func (o *Orchestrator) SendBatch(ctx context.Context, b Batch) (BatchResult, error) {
	if len(b.Notifications) == 0 {
		return BatchResult{}, fmt.Errorf("%w: batch is empty", ErrInvalidCampaign)
	}
	if len(b.Notifications) > maxBatchItems {
		return BatchResult{}, fmt.Errorf("%w: %d items, max %d", ErrTooManyItems, len(b.Notifications), maxBatchItems)
	}

	result := BatchResult{BatchID: uuid.NewString()}

	var errs []error
	for i, n := range b.Notifications {
		n.BatchID = result.BatchID
		if b.ScheduledAt != nil {
			n.ScheduledAt = b.ScheduledAt
		}
		units, err := o.enqueuer.Enqueue(ctx, n)
		if err != nil {
			errs = append(errs, fmt.Errorf("item %d: %w", i, err))
			continue
		}
		result.Enqueued = append(result.Enqueued, units...)
	}

	result.Err = errors.Join(errs...)
	return result, result.Err
}
