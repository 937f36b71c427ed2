// Package notify fans a domain trigger (an event or a group post was
// created) out into per-recipient notification records.
//
// A dispatch runs in four steps: validate the trigger, register event
// participants (events only), resolve the audience lazily page by page, and
// write one notification per recipient through a bounded worker pool.
// Writes are independent. A failed write never aborts its siblings and
// nothing is rolled back; the caller gets a Result with succeeded and failed
// counts plus a *PartialFailureError when anything failed.
//
// Dispatch is not idempotent. Running it twice for the same trigger writes
// a second full set of rows.
package notify
