package sender

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// Webhook POSTs the canonical JSON payload to the user's endpoint with
// signature headers. One attempt per call; the retry layer owns the
// schedule.
type Webhook struct {
	client   *http.Client
	contacts ContactResolver
}

// WebhookOption configures a Webhook sender.
type WebhookOption func(*Webhook)

// WithHTTPClient overrides the default HTTP client, mainly for tests
// and custom transports.
func WithHTTPClient(client *http.Client) WebhookOption {
	return func(w *Webhook) {
		if client != nil {
			w.client = client
		}
	}
}

// NewWebhook creates the webhook channel sender. The default client
// pools connections per endpoint and caps each request at 30 seconds.
func NewWebhook(contacts ContactResolver, opts ...WebhookOption) (*Webhook, error) {
	if contacts == nil {
		return nil, errors.New("sender: contact resolver cannot be nil")
	}

	w := &Webhook{
		contacts: contacts,
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

func (s *Webhook) Channel() notification.Channel {
	return notification.ChannelWebhook
}

func (s *Webhook) Send(ctx context.Context, unit notification.DeliveryUnit) (notification.Outcome, error) {
	if err := checkChannel(unit, notification.ChannelWebhook); err != nil {
		return notification.Outcome{}, err
	}
	if len(unit.Rendered.WebhookBody) == 0 {
		return notification.PermanentFailure("empty webhook payload"), nil
	}

	endpoint, secret, err := s.contacts.WebhookEndpoint(ctx, unit.UserID)
	if err != nil {
		if errors.Is(err, ErrContactNotFound) {
			return notification.PermanentFailure("no webhook endpoint configured"), nil
		}
		return notification.RetryableFailure(fmt.Sprintf("resolve webhook endpoint: %v", err)), nil
	}
	if err := validateEndpoint(endpoint); err != nil {
		return notification.PermanentFailure(err.Error()), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(unit.Rendered.WebhookBody))
	if err != nil {
		return notification.PermanentFailure(fmt.Sprintf("build request: %v", err)), nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "notifykit-webhook/1.0")

	if secret != "" {
		sig, err := SignPayload(secret, unit.Rendered.WebhookBody)
		if err != nil {
			return notification.PermanentFailure(fmt.Sprintf("sign payload: %v", err)), nil
		}
		for k, v := range sig.Headers() {
			req.Header.Set(k, v)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return notification.RetryableFailure(fmt.Sprintf("request failed: %v", err)), nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return notification.Delivered(), nil
	}

	detail := fmt.Sprintf("endpoint returned status %d", resp.StatusCode)
	// Body capped at 64KB; a single line keeps logs intact.
	if body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024)); len(body) > 0 {
		text := strings.ReplaceAll(string(body), "\n", " ")
		if len(text) > 200 {
			text = text[:200] + "..."
		}
		detail += ": " + text
	}

	if permanentStatus(resp.StatusCode) {
		return notification.PermanentFailure(detail), nil
	}
	return notification.RetryableFailure(detail), nil
}

func validateEndpoint(endpoint string) error {
	if endpoint == "" {
		return errors.New("webhook URL is empty")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid webhook URL: %v", err)
	}
	// HTTP(S) only to keep SSRF surface small.
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported webhook URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("webhook URL has no host")
	}
	return nil
}

// permanentStatus reports whether an HTTP status should never be
// retried. Most 4xx responses are client errors that will not change;
// 408, 425 and 429 are timing or rate-limit conditions that can clear.
func permanentStatus(status int) bool {
	if status < 400 || status >= 500 {
		return false
	}
	switch status {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return false
	default:
		return true
	}
}
