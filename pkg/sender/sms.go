package sender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// smsMaxLength caps outbound SMS bodies. Longer bodies are truncated
// rather than rejected so a verbose template never blocks delivery.
const smsMaxLength = 1600

// SMSGateway is the provider seam for text message delivery.
type SMSGateway interface {
	SendSMS(ctx context.Context, to, body string) error
}

// SMS delivers rendered units as text messages.
type SMS struct {
	gateway  SMSGateway
	contacts ContactResolver
}

// NewSMS creates the SMS channel sender.
func NewSMS(gateway SMSGateway, contacts ContactResolver) (*SMS, error) {
	if gateway == nil {
		return nil, errors.New("sender: sms gateway cannot be nil")
	}
	if contacts == nil {
		return nil, errors.New("sender: contact resolver cannot be nil")
	}
	return &SMS{gateway: gateway, contacts: contacts}, nil
}

func (s *SMS) Channel() notification.Channel {
	return notification.ChannelSMS
}

func (s *SMS) Send(ctx context.Context, unit notification.DeliveryUnit) (notification.Outcome, error) {
	if err := checkChannel(unit, notification.ChannelSMS); err != nil {
		return notification.Outcome{}, err
	}

	phone, err := s.contacts.PhoneNumber(ctx, unit.UserID)
	if err != nil {
		if errors.Is(err, ErrContactNotFound) {
			return notification.PermanentFailure("no phone number on file"), nil
		}
		return notification.RetryableFailure(fmt.Sprintf("resolve phone number: %v", err)), nil
	}

	body := unit.Rendered.Body
	if len(body) > smsMaxLength {
		body = body[:smsMaxLength]
	}

	if err := s.gateway.SendSMS(ctx, phone, body); err != nil {
		return notification.RetryableFailure(err.Error()), nil
	}
	return notification.Delivered(), nil
}

// DevSMSGateway logs messages instead of sending them. For local
// development and tests.
type DevSMSGateway struct {
	log *slog.Logger
}

// NewDevSMSGateway creates a logging SMS gateway.
func NewDevSMSGateway(log *slog.Logger) *DevSMSGateway {
	if log == nil {
		log = slog.Default()
	}
	return &DevSMSGateway{log: log}
}

func (g *DevSMSGateway) SendSMS(ctx context.Context, to, body string) error {
	g.log.InfoContext(ctx, "sms sent (dev)",
		slog.String("to", to),
		slog.Int("length", len(body)),
		logger.Component("sms_gateway"),
	)
	return nil
}
