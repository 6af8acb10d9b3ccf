package notification

// Channel is a delivery transport for a notification.
type Channel string

const (
	ChannelEmail   Channel = "email"
	ChannelSMS     Channel = "sms"
	ChannelPush    Channel = "push"
	ChannelInApp   Channel = "in_app"
	ChannelWebhook Channel = "webhook"
)

// AllChannels returns every supported channel in a stable order.
func AllChannels() []Channel {
	return []Channel{ChannelEmail, ChannelSMS, ChannelPush, ChannelInApp, ChannelWebhook}
}

// Valid checks whether the channel is one of the supported transports.
func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelPush, ChannelInApp, ChannelWebhook:
		return true
	}
	return false
}

// Priority orders deliveries within a channel queue. Higher values are
// dequeued first among currently-due units.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityUrgent
)

// Valid checks if the priority is within the known range.
func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityUrgent
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityUrgent:
		return "urgent"
	}
	return "unknown"
}

// DeliveryStatus is the lifecycle state of a DeliveryUnit.
type DeliveryStatus string

const (
	StatusPending   DeliveryStatus = "pending"
	StatusSending   DeliveryStatus = "sending"
	StatusRetryWait DeliveryStatus = "retry_wait"
	StatusDelivered DeliveryStatus = "delivered"
	StatusFailed    DeliveryStatus = "failed"
	StatusCancelled DeliveryStatus = "cancelled"
	StatusExpired   DeliveryStatus = "expired"
)

// Terminal reports whether the status is final. A unit in a terminal status
// is never transitioned again and receives exactly one final history record.
func (s DeliveryStatus) Terminal() bool {
	switch s {
	case StatusDelivered, StatusFailed, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// CanTransition reports whether moving a unit from one status to another is a
// legal edge of the delivery state machine. The only revisited state is
// PENDING, reachable again from RETRY_WAIT once the backoff elapses.
func CanTransition(from, to DeliveryStatus) bool {
	if from.Terminal() {
		return false
	}

	switch to {
	case StatusCancelled, StatusExpired:
		// Cooperative cancel and expiry apply to any non-terminal state.
		return true
	case StatusSending:
		return from == StatusPending
	case StatusDelivered, StatusFailed, StatusRetryWait:
		return from == StatusSending
	case StatusPending:
		return from == StatusRetryWait
	}
	return false
}

// RenderedContent is the channel-specific material produced by the template
// renderer at enqueue time. Only the fields relevant to the unit's channel
// are populated.
type RenderedContent struct {
	Subject     string         `json:"subject,omitempty"`
	Body        string         `json:"body,omitempty"`
	PushPayload map[string]any `json:"push_payload,omitempty"`
	WebhookBody []byte         `json:"webhook_body,omitempty"`
}

// OutcomeStatus classifies the result of a single send attempt.
type OutcomeStatus string

const (
	OutcomeDelivered OutcomeStatus = "delivered"
	OutcomeFailed    OutcomeStatus = "failed"
)

// Outcome is what a channel sender reports back for one attempt. Senders
// only classify the result; whether and when to retry is decided by the
// retry controller.
type Outcome struct {
	Status    OutcomeStatus
	Retryable bool
	Detail    string
}

// Delivered is a successful outcome.
func Delivered() Outcome {
	return Outcome{Status: OutcomeDelivered}
}

// RetryableFailure marks an attempt as failed in a way worth retrying,
// such as a network error, timeout or 5xx response.
func RetryableFailure(detail string) Outcome {
	return Outcome{Status: OutcomeFailed, Retryable: true, Detail: detail}
}

// PermanentFailure marks an attempt as failed with no prospect of a retry
// succeeding, such as a 4xx response or an invalid address.
func PermanentFailure(detail string) Outcome {
	return Outcome{Status: OutcomeFailed, Retryable: false, Detail: detail}
}
