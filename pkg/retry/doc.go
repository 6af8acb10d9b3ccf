// Package retry decides what happens to a delivery unit after a send
// attempt: schedule another try with backoff, or give up and move the
// unit to the dead-letter store.
//
// The controller is pure decision logic. It never touches the dispatch
// queue; callers apply the returned decision to their own storage.
//
//	ctrl, _ := retry.NewController(retry.NewMemoryDeadLetter())
//	decision, _ := ctrl.OnOutcome(ctx, unit, outcome, backoff)
//	switch decision.Action {
//	case retry.ActionRetry:
//	    // reschedule the unit at decision.NextAttemptAt
//	case retry.ActionFail:
//	    // finalize the unit; it is already dead-lettered
//	}
package retry
