package preferences

import (
	"fmt"
	"slices"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// Preferences is a user's notification delivery document. Channel maps are
// sparse: a channel absent from the map is treated as enabled, so only
// explicit opt-outs are stored.
type Preferences struct {
	UserID        string                                                `json:"user_id"`
	Channels      map[notification.Channel]bool                         `json:"channels,omitempty"`
	TypeOverrides map[notification.Type]map[notification.Channel]bool   `json:"type_overrides,omitempty"`
	QuietHours    *QuietHours                                           `json:"quiet_hours,omitempty"`
	Frequency     FrequencyCaps                                         `json:"frequency"`
	WebhookURL    string                                                `json:"webhook_url,omitempty"`
	WebhookSecret string                                                `json:"webhook_secret,omitempty"`
	UpdatedAt     time.Time                                             `json:"updated_at"`
}

// FrequencyCaps bounds how many notifications of a group a user receives per
// day. Zero means uncapped. Caps are an independent suppression check and
// never override quiet-hours timing.
type FrequencyCaps struct {
	MarketingPerDay int `json:"marketing_per_day,omitempty"`
	DigestPerDay    int `json:"digest_per_day,omitempty"`
}

// Default returns the document used when a user has never saved preferences:
// everything enabled, no quiet hours, no caps.
func Default(userID string) Preferences {
	return Preferences{UserID: userID}
}

// ChannelEnabled resolves a single channel for a type: the per-type override
// wins over the global setting, and a channel never mentioned is enabled.
func (p *Preferences) ChannelEnabled(typ notification.Type, ch notification.Channel) bool {
	if overrides, ok := p.TypeOverrides[typ]; ok {
		if enabled, ok := overrides[ch]; ok {
			return enabled
		}
	}
	if enabled, ok := p.Channels[ch]; ok {
		return enabled
	}
	return true
}

// Update is a partial preference change. Nil fields keep their prior value;
// map fields are merged key by key rather than replaced wholesale.
type Update struct {
	Channels      map[notification.Channel]bool                       `json:"channels,omitempty"`
	TypeOverrides map[notification.Type]map[notification.Channel]bool `json:"type_overrides,omitempty"`
	QuietHours    *QuietHours                                         `json:"quiet_hours,omitempty"`
	ClearQuiet    bool                                                `json:"clear_quiet_hours,omitempty"`
	Frequency     *FrequencyCaps                                      `json:"frequency,omitempty"`
	WebhookURL    *string                                             `json:"webhook_url,omitempty"`
	WebhookSecret *string                                             `json:"webhook_secret,omitempty"`
}

// Apply merges the update into the document.
func (p *Preferences) Apply(u Update, now time.Time) {
	if len(u.Channels) > 0 {
		if p.Channels == nil {
			p.Channels = make(map[notification.Channel]bool, len(u.Channels))
		}
		for ch, enabled := range u.Channels {
			p.Channels[ch] = enabled
		}
	}
	if len(u.TypeOverrides) > 0 {
		if p.TypeOverrides == nil {
			p.TypeOverrides = make(map[notification.Type]map[notification.Channel]bool, len(u.TypeOverrides))
		}
		for typ, overrides := range u.TypeOverrides {
			if p.TypeOverrides[typ] == nil {
				p.TypeOverrides[typ] = make(map[notification.Channel]bool, len(overrides))
			}
			for ch, enabled := range overrides {
				p.TypeOverrides[typ][ch] = enabled
			}
		}
	}
	if u.ClearQuiet {
		p.QuietHours = nil
	} else if u.QuietHours != nil {
		q := *u.QuietHours
		p.QuietHours = &q
	}
	if u.Frequency != nil {
		p.Frequency = *u.Frequency
	}
	if u.WebhookURL != nil {
		p.WebhookURL = *u.WebhookURL
	}
	if u.WebhookSecret != nil {
		p.WebhookSecret = *u.WebhookSecret
	}
	p.UpdatedAt = now
}

// QuietHours is a daily window during which non-urgent deliveries are
// deferred. Start and End are minutes from midnight in the user's timezone;
// a Start greater than End means the window wraps past midnight. An empty
// Weekdays slice applies the window every day; otherwise the window applies
// on the days it starts.
type QuietHours struct {
	Start    int            `json:"start"`
	End      int            `json:"end"`
	Timezone string         `json:"timezone"`
	Weekdays []time.Weekday `json:"weekdays,omitempty"`
}

const minutesPerDay = 24 * 60

// Validate checks the window bounds and timezone.
func (q QuietHours) Validate() error {
	if q.Start < 0 || q.Start >= minutesPerDay || q.End < 0 || q.End >= minutesPerDay {
		return fmt.Errorf("%w: minutes out of range", ErrInvalidQuietHours)
	}
	if q.Start == q.End {
		return fmt.Errorf("%w: zero-length window", ErrInvalidQuietHours)
	}
	if _, err := q.location(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuietHours, err)
	}
	return nil
}

func (q QuietHours) location() (*time.Location, error) {
	if q.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(q.Timezone)
}

func (q QuietHours) appliesOn(day time.Weekday) bool {
	return len(q.Weekdays) == 0 || slices.Contains(q.Weekdays, day)
}

// Contains reports whether t falls inside the quiet window.
func (q QuietHours) Contains(t time.Time) (bool, error) {
	loc, err := q.location()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidQuietHours, err)
	}

	local := t.In(loc)
	minutes := local.Hour()*60 + local.Minute()

	if q.Start < q.End {
		return minutes >= q.Start && minutes < q.End && q.appliesOn(local.Weekday()), nil
	}

	// Wrapping window: the tail before End belongs to the window that
	// started the previous day.
	if minutes >= q.Start {
		return q.appliesOn(local.Weekday()), nil
	}
	if minutes < q.End {
		return q.appliesOn(local.AddDate(0, 0, -1).Weekday()), nil
	}
	return false, nil
}

// NextEnd returns when the window containing t closes. Callers must only
// invoke it for a time inside the window.
func (q QuietHours) NextEnd(t time.Time) (time.Time, error) {
	loc, err := q.location()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidQuietHours, err)
	}

	local := t.In(loc)
	minutes := local.Hour()*60 + local.Minute()

	day := local
	if q.Start > q.End && minutes >= q.Start {
		// Wrapping window entered before midnight closes tomorrow.
		day = day.AddDate(0, 0, 1)
	}

	end := time.Date(day.Year(), day.Month(), day.Day(), q.End/60, q.End%60, 0, 0, loc)
	return end, nil
}
