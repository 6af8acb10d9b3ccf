// Package dispatch is the engine of the notification pipeline. Enqueue
// fans a notification out into per-channel delivery units after
// preference resolution and rendering; per-channel workers claim due
// units, push them through the channel sender and apply the retry
// controller's verdict.
//
// Units move through a monotonic state machine. A unit is claimed
// atomically (PENDING to SENDING) by exactly one worker; a retryable
// failure parks it in RETRY_WAIT until its next attempt is due; every
// unit ends in exactly one terminal state.
//
// Failure isolation is per unit. One channel failing, or one recipient
// in a batch being invalid, never affects sibling units.
package dispatch
