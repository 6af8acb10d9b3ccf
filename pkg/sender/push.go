package sender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// PushGateway is the provider seam for mobile push delivery.
type PushGateway interface {
	// Push sends the payload to one device token. ErrTokenInvalid
	// marks tokens that should be dropped by the caller's device
	// registry.
	Push(ctx context.Context, token string, payload map[string]any) error
}

// ErrTokenInvalid marks a device token the provider rejected as stale.
var ErrTokenInvalid = errors.New("sender: device token invalid")

// Push delivers rendered units to all of a user's devices. Delivery
// counts as successful when at least one device accepts the payload.
type Push struct {
	gateway  PushGateway
	contacts ContactResolver
	log      *slog.Logger
}

// NewPush creates the push channel sender.
func NewPush(gateway PushGateway, contacts ContactResolver, log *slog.Logger) (*Push, error) {
	if gateway == nil {
		return nil, errors.New("sender: push gateway cannot be nil")
	}
	if contacts == nil {
		return nil, errors.New("sender: contact resolver cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Push{gateway: gateway, contacts: contacts, log: log}, nil
}

func (s *Push) Channel() notification.Channel {
	return notification.ChannelPush
}

func (s *Push) Send(ctx context.Context, unit notification.DeliveryUnit) (notification.Outcome, error) {
	if err := checkChannel(unit, notification.ChannelPush); err != nil {
		return notification.Outcome{}, err
	}

	tokens, err := s.contacts.PushTokens(ctx, unit.UserID)
	if err != nil {
		if errors.Is(err, ErrContactNotFound) {
			return notification.PermanentFailure("no devices registered"), nil
		}
		return notification.RetryableFailure(fmt.Sprintf("resolve device tokens: %v", err)), nil
	}
	if len(tokens) == 0 {
		return notification.PermanentFailure("no devices registered"), nil
	}

	delivered := 0
	var lastErr error
	for _, token := range tokens {
		if err := s.gateway.Push(ctx, token, unit.Rendered.PushPayload); err != nil {
			lastErr = err
			if errors.Is(err, ErrTokenInvalid) {
				s.log.DebugContext(ctx, "stale push token skipped",
					logger.UserID(unit.UserID),
					logger.DeliveryUnitID(unit.ID.String()),
				)
			}
			continue
		}
		delivered++
	}

	if delivered > 0 {
		return notification.Delivered(), nil
	}
	return notification.RetryableFailure(fmt.Sprintf("all %d devices failed: %v", len(tokens), lastErr)), nil
}

// DevPushGateway logs pushes instead of sending them.
type DevPushGateway struct {
	log *slog.Logger
}

// NewDevPushGateway creates a logging push gateway.
func NewDevPushGateway(log *slog.Logger) *DevPushGateway {
	if log == nil {
		log = slog.Default()
	}
	return &DevPushGateway{log: log}
}

func (g *DevPushGateway) Push(ctx context.Context, token string, payload map[string]any) error {
	g.log.InfoContext(ctx, "push sent (dev)",
		slog.String("token", token),
		slog.Any("payload", payload),
		logger.Component("push_gateway"),
	)
	return nil
}
