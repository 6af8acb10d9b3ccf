package template

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// Renderer produces channel-specific delivery content at enqueue time.
type Renderer struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithRendererLogger sets the logger used to report degraded renders.
func WithRendererLogger(l *slog.Logger) RendererOption {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock overrides the renderer's time source. Webhook payloads embed a
// timestamp, so tests need a fixed clock for byte-stable output.
func WithClock(now func() time.Time) RendererOption {
	return func(r *Renderer) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRenderer creates a renderer reading active templates from the store.
func NewRenderer(store Store, opts ...RendererOption) (*Renderer, error) {
	if store == nil {
		return nil, ErrStoreNil
	}

	r := &Renderer{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Render produces the content for one channel of a notification. A missing
// or malformed template degrades to the plain-text fallback built from the
// notification's title and message; rendering never fails dispatch.
func (r *Renderer) Render(ctx context.Context, n notification.Notification, ch notification.Channel) (notification.RenderedContent, error) {
	if ch == notification.ChannelWebhook {
		return r.renderWebhook(n)
	}

	subject, body := n.Title, n.Message

	tmpl, err := r.store.GetActive(ctx, n.Type, ch)
	switch {
	case err == nil:
		vars := variableBag(n)
		renderedSubject, subjErr := substitute(tmpl.Subject, tmpl.Variables, vars)
		renderedBody, bodyErr := substitute(tmpl.Body, tmpl.Variables, vars)
		if subjErr != nil || bodyErr != nil {
			r.logger.LogAttrs(ctx, slog.LevelWarn, "malformed template, falling back to plain content",
				logger.NotificationType(n.Type),
				logger.Channel(ch),
				logger.Errors(subjErr, bodyErr),
			)
		} else {
			subject, body = renderedSubject, renderedBody
		}
	case errors.Is(err, ErrNotFound):
		// Plain fallback keeps transactional delivery working for types
		// nobody authored a template for yet.
	default:
		r.logger.LogAttrs(ctx, slog.LevelWarn, "template lookup failed, falling back to plain content",
			logger.NotificationType(n.Type),
			logger.Channel(ch),
			logger.Error(err),
		)
	}

	return contentFor(ch, subject, body, n), nil
}

// webhookPayload is the canonical webhook delivery body. The sender signs
// exactly these serialized bytes, so the field set and order are part of the
// wire contract.
type webhookPayload struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	UserID    string         `json:"user_id"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp string         `json:"timestamp"`
}

func (r *Renderer) renderWebhook(n notification.Notification) (notification.RenderedContent, error) {
	body, err := json.Marshal(webhookPayload{
		ID:        n.ID.String(),
		Type:      string(n.Type),
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		Data:      n.Data,
		Timestamp: r.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return notification.RenderedContent{}, fmt.Errorf("template: marshal webhook payload: %w", err)
	}
	return notification.RenderedContent{WebhookBody: body}, nil
}

func contentFor(ch notification.Channel, subject, body string, n notification.Notification) notification.RenderedContent {
	switch ch {
	case notification.ChannelPush:
		payload := map[string]any{
			"title": subject,
			"body":  body,
		}
		if len(n.Data) > 0 {
			payload["data"] = n.Data
		}
		return notification.RenderedContent{PushPayload: payload}
	case notification.ChannelSMS:
		// SMS has no subject line; prefer the body, fall back to the title.
		if body == "" {
			body = subject
		}
		return notification.RenderedContent{Body: body}
	default:
		return notification.RenderedContent{Subject: subject, Body: body}
	}
}

// variableBag flattens the notification into substitution values. Data and
// Metadata entries are addressable by key; title and message are always
// available for templates that declare them.
func variableBag(n notification.Notification) map[string]string {
	vars := make(map[string]string, len(n.Data)+len(n.Metadata)+3)
	for k, v := range n.Data {
		vars[k] = fmt.Sprint(v)
	}
	for k, v := range n.Metadata {
		vars[k] = v
	}
	vars["title"] = n.Title
	vars["message"] = n.Message
	vars["user_id"] = n.UserID
	return vars
}

// substitute replaces declared {{name}} placeholders with values from the
// bag. Placeholders that are not declared on the template, or declared but
// absent from the bag, stay literal. An opening marker with no closing
// braces makes the template malformed.
func substitute(text string, declared []string, vars map[string]string) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}

	var sb strings.Builder
	rest := text
	for {
		open := strings.Index(rest, "{{")
		if open < 0 {
			sb.WriteString(rest)
			return sb.String(), nil
		}

		sb.WriteString(rest[:open])
		rest = rest[open:]

		closing := strings.Index(rest, "}}")
		if closing < 0 {
			return "", fmt.Errorf("%w: unclosed placeholder near %q", ErrMalformedTemplate, truncate(rest, 20))
		}
		if strings.Contains(rest[2:closing], "{{") {
			// A second opening inside the span means the first
			// placeholder was never closed.
			return "", fmt.Errorf("%w: unclosed placeholder near %q", ErrMalformedTemplate, truncate(rest, 20))
		}

		placeholder := rest[:closing+2]
		name := strings.TrimSpace(rest[2:closing])

		if value, ok := vars[name]; ok && slices.Contains(declared, name) {
			sb.WriteString(value)
		} else {
			sb.WriteString(placeholder)
		}
		rest = rest[closing+2:]
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
