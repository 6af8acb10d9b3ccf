package preferences

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// Resolution is the effective delivery decision for one notification:
// the channels that survive preference filtering plus the constraints the
// dispatcher must honor when scheduling them.
type Resolution struct {
	Channels      []notification.Channel
	QuietHours    *QuietHours
	Frequency     FrequencyCaps
	WebhookURL    string
	WebhookSecret string
}

// Resolver computes effective channel sets at enqueue time.
type Resolver struct {
	store  Store
	logger *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverLogger sets the logger used for fail-open warnings.
func WithResolverLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver creates a preference resolver backed by the given store.
func NewResolver(store Store, opts ...ResolverOption) (*Resolver, error) {
	if store == nil {
		return nil, ErrStoreNil
	}

	r := &Resolver{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve intersects the requested channels with the user's enabled set for
// the given type. A missing preference record or a store failure yields the
// full requested set: transactional delivery must not depend on the
// preference store being reachable. Only an explicit opt-out removes a
// channel.
func (r *Resolver) Resolve(ctx context.Context, userID string, typ notification.Type, requested []notification.Channel) (Resolution, error) {
	prefs, err := r.store.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			r.logger.LogAttrs(ctx, slog.LevelWarn, "preference lookup failed, delivering to all requested channels",
				logger.UserID(userID),
				logger.Error(err),
			)
		}
		return Resolution{Channels: dedupe(requested)}, nil
	}

	res := Resolution{
		Channels:      make([]notification.Channel, 0, len(requested)),
		Frequency:     prefs.Frequency,
		WebhookURL:    prefs.WebhookURL,
		WebhookSecret: prefs.WebhookSecret,
	}

	for _, ch := range dedupe(requested) {
		if prefs.ChannelEnabled(typ, ch) {
			res.Channels = append(res.Channels, ch)
		}
	}

	if prefs.QuietHours != nil {
		q := *prefs.QuietHours
		res.QuietHours = &q
	}

	return res, nil
}

// DeferUntil returns the time a delivery must wait for if it lands inside
// the user's quiet window. Urgent deliveries are never deferred. The zero
// time means "send now".
func (res Resolution) DeferUntil(priority notification.Priority, now time.Time) time.Time {
	if res.QuietHours == nil || priority == notification.PriorityUrgent {
		return time.Time{}
	}

	inside, err := res.QuietHours.Contains(now)
	if err != nil || !inside {
		// An unloadable timezone must not block delivery.
		return time.Time{}
	}

	end, err := res.QuietHours.NextEnd(now)
	if err != nil {
		return time.Time{}
	}
	return end
}

func dedupe(channels []notification.Channel) []notification.Channel {
	seen := make(map[notification.Channel]struct{}, len(channels))
	out := make([]notification.Channel, 0, len(channels))
	for _, ch := range channels {
		if _, ok := seen[ch]; ok {
			continue
		}
		seen[ch] = struct{}{}
		out = append(out, ch)
	}
	return out
}
