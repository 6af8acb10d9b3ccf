// Package preferences holds per-user delivery preferences and the resolver
// that turns a requested channel set into the effective one at enqueue time.
//
// Resolution policy is deliberately fail-open: a channel the user never
// configured counts as enabled, and a missing preference record yields the
// full requested set with a logged warning. Transactional notifications must
// not be dropped because a lookup failed or a record was never created; only
// an explicit opt-out disables a channel.
//
// Quiet hours are resolved here but enforced by the dispatcher, which defers
// non-urgent deliveries until the window closes. Marketing frequency caps
// are an independent suppression check, also evaluated at enqueue time.
package preferences
