package sender

import (
	"context"
	"errors"

	"github.com/dmitrymomot/notifykit/pkg/inbox"
	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// InApp delivers rendered units into the user's inbox.
type InApp struct {
	inbox *inbox.Inbox
}

// NewInApp creates the in-app channel sender.
func NewInApp(ib *inbox.Inbox) (*InApp, error) {
	if ib == nil {
		return nil, errors.New("sender: inbox cannot be nil")
	}
	return &InApp{inbox: ib}, nil
}

func (s *InApp) Channel() notification.Channel {
	return notification.ChannelInApp
}

func (s *InApp) Send(ctx context.Context, unit notification.DeliveryUnit) (notification.Outcome, error) {
	if err := checkChannel(unit, notification.ChannelInApp); err != nil {
		return notification.Outcome{}, err
	}

	err := s.inbox.Deliver(ctx, inbox.Message{
		UnitID:    unit.ID,
		UserID:    unit.UserID,
		Type:      unit.Type,
		Title:     unit.Rendered.Subject,
		Body:      unit.Rendered.Body,
		ExpiresAt: unit.ExpiresAt,
	})
	if err != nil {
		return notification.RetryableFailure(err.Error()), nil
	}
	return notification.Delivered(), nil
}
