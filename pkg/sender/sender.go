package sender

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// Sender performs a single delivery attempt for one channel.
// Implementations must be safe for concurrent use.
type Sender interface {
	// Channel reports which channel this sender serves.
	Channel() notification.Channel

	// Send attempts delivery of the unit and classifies the result.
	// Transport failures are reported in the outcome, not as an error;
	// the error return is reserved for invariant violations such as a
	// unit routed to the wrong channel.
	Send(ctx context.Context, unit notification.DeliveryUnit) (notification.Outcome, error)
}

// Registry maps channels to their senders.
type Registry map[notification.Channel]Sender

// NewRegistry builds a registry from the given senders. Duplicate
// channels are rejected.
func NewRegistry(senders ...Sender) (Registry, error) {
	r := make(Registry, len(senders))
	for _, s := range senders {
		if _, exists := r[s.Channel()]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSender, s.Channel())
		}
		r[s.Channel()] = s
	}
	return r, nil
}

// For returns the sender for a channel.
func (r Registry) For(ch notification.Channel) (Sender, error) {
	s, ok := r[ch]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSender, ch)
	}
	return s, nil
}

// ContactResolver resolves delivery addresses at send time. Contact
// data lives with the user system, not in the dispatch queue.
type ContactResolver interface {
	// EmailAddress returns the user's email address.
	EmailAddress(ctx context.Context, userID string) (string, error)

	// PhoneNumber returns the user's phone number in E.164 form.
	PhoneNumber(ctx context.Context, userID string) (string, error)

	// PushTokens returns the user's registered device tokens.
	PushTokens(ctx context.Context, userID string) ([]string, error)

	// WebhookEndpoint returns the user's webhook URL and signing
	// secret.
	WebhookEndpoint(ctx context.Context, userID string) (url, secret string, err error)
}

func checkChannel(unit notification.DeliveryUnit, want notification.Channel) error {
	if unit.Channel != want {
		return fmt.Errorf("%w: unit %s is for %s, sender handles %s",
			ErrWrongChannel, unit.ID, unit.Channel, want)
	}
	return nil
}
