package sender

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrymomot/notifykit/pkg/email"
	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// Email delivers rendered units through an email transport.
type Email struct {
	transport email.EmailSender
	contacts  ContactResolver
}

// NewEmail creates the email channel sender.
func NewEmail(transport email.EmailSender, contacts ContactResolver) (*Email, error) {
	if transport == nil {
		return nil, errors.New("sender: email transport cannot be nil")
	}
	if contacts == nil {
		return nil, errors.New("sender: contact resolver cannot be nil")
	}
	return &Email{transport: transport, contacts: contacts}, nil
}

func (s *Email) Channel() notification.Channel {
	return notification.ChannelEmail
}

func (s *Email) Send(ctx context.Context, unit notification.DeliveryUnit) (notification.Outcome, error) {
	if err := checkChannel(unit, notification.ChannelEmail); err != nil {
		return notification.Outcome{}, err
	}

	addr, err := s.contacts.EmailAddress(ctx, unit.UserID)
	if err != nil {
		if errors.Is(err, ErrContactNotFound) {
			return notification.PermanentFailure("no email address on file"), nil
		}
		return notification.RetryableFailure(fmt.Sprintf("resolve email address: %v", err)), nil
	}

	err = s.transport.SendEmail(ctx, email.SendEmailParams{
		SendTo:   addr,
		Subject:  unit.Rendered.Subject,
		BodyHTML: unit.Rendered.Body,
		Tag:      string(unit.Type),
	})
	switch {
	case err == nil:
		return notification.Delivered(), nil
	case errors.Is(err, email.ErrInvalidParams):
		// Bad content will not get better with retries.
		return notification.PermanentFailure(err.Error()), nil
	default:
		return notification.RetryableFailure(err.Error()), nil
	}
}
