package campaign

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// Status is the campaign lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// ScheduleKind selects how a campaign fires.
type ScheduleKind string

const (
	// ScheduleImmediate fires once, as soon as the campaign launches.
	ScheduleImmediate ScheduleKind = "immediate"

	// ScheduleOneShot fires once at a fixed time.
	ScheduleOneShot ScheduleKind = "one_shot"

	// ScheduleRecurring fires on an interval until its end conditions.
	ScheduleRecurring ScheduleKind = "recurring"
)

// Schedule describes when a campaign fires. For recurring campaigns the
// first occurrence is At (or launch time when zero), then every
// Interval until EndDate or MaxOccurrences, whichever comes first.
type Schedule struct {
	Kind           ScheduleKind  `json:"kind"`
	At             time.Time     `json:"at,omitzero"`
	Interval       time.Duration `json:"interval,omitempty"`
	EndDate        *time.Time    `json:"end_date,omitempty"`
	MaxOccurrences int           `json:"max_occurrences,omitempty"`
}

// Audience selects campaign recipients. Explicit IDs and filters are
// unioned; exclusions always win.
type Audience struct {
	UserIDs    []string `json:"user_ids,omitempty"`
	ExcludeIDs []string `json:"exclude_ids,omitempty"`
	Roles      []string `json:"roles,omitempty"`
	Segments   []string `json:"segments,omitempty"`
	Locations  []string `json:"locations,omitempty"`
}

// Empty reports whether the audience selects nobody by construction.
func (a Audience) Empty() bool {
	return len(a.UserIDs) == 0 && len(a.Roles) == 0 && len(a.Segments) == 0 && len(a.Locations) == 0
}

// Campaign is an authored message plus an audience and a schedule.
type Campaign struct {
	ID       uuid.UUID              `json:"id"`
	Name     string                 `json:"name"`
	Type     notification.Type      `json:"type"`
	Title    string                 `json:"title"`
	Message  string                 `json:"message"`
	Data     map[string]any         `json:"data,omitempty"`
	Channels []notification.Channel `json:"channels"`
	Priority notification.Priority  `json:"priority"`
	Audience Audience               `json:"audience"`
	Schedule Schedule               `json:"schedule"`
	Status   Status                 `json:"status"`

	Occurrences int        `json:"occurrences"`
	Enqueued    int        `json:"enqueued"`
	LastRunAt   *time.Time `json:"last_run_at,omitempty"`
	NextRunAt   *time.Time `json:"next_run_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Validate checks the campaign before launch.
func (c *Campaign) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidCampaign)
	}
	if !c.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidCampaign, c.Type)
	}
	if c.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidCampaign)
	}
	if len(c.Channels) == 0 {
		return fmt.Errorf("%w: at least one channel is required", ErrInvalidCampaign)
	}
	for _, ch := range c.Channels {
		if !ch.Valid() {
			return fmt.Errorf("%w: unknown channel %q", ErrInvalidCampaign, ch)
		}
	}
	if !c.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %d", ErrInvalidCampaign, c.Priority)
	}
	if c.Audience.Empty() {
		return fmt.Errorf("%w: audience selects nobody", ErrInvalidCampaign)
	}

	switch c.Schedule.Kind {
	case ScheduleImmediate:
	case ScheduleOneShot:
		if c.Schedule.At.IsZero() {
			return fmt.Errorf("%w: one-shot schedule needs a time", ErrInvalidCampaign)
		}
	case ScheduleRecurring:
		if c.Schedule.Interval <= 0 {
			return fmt.Errorf("%w: recurring schedule needs an interval", ErrInvalidCampaign)
		}
	default:
		return fmt.Errorf("%w: unknown schedule kind %q", ErrInvalidCampaign, c.Schedule.Kind)
	}
	return nil
}

// done reports whether a recurring campaign hit its end conditions at
// the given time and occurrence count.
func (s Schedule) done(now time.Time, occurrences int) bool {
	if s.MaxOccurrences > 0 && occurrences >= s.MaxOccurrences {
		return true
	}
	if s.EndDate != nil && now.After(*s.EndDate) {
		return true
	}
	return false
}
