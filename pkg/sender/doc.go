// Package sender contains the per-channel delivery transports. Each
// sender takes a fully rendered delivery unit, performs exactly one
// delivery attempt and reports the outcome. Retry policy lives with the
// caller; a sender only classifies its failures as retryable or
// permanent.
//
// Provider specifics stay behind small gateway interfaces (SMSGateway,
// PushGateway, email.EmailSender) so transports can be swapped without
// touching dispatch code. Recipient addresses are looked up through a
// ContactResolver at send time, keeping contact data out of the queue.
package sender
