// Package executor applies retention decisions to a store.
//
// The planner decides; the executor acts. Every command maps onto a
// conditional store write, so applying the same plan twice, or from two
// processes at once, has the effect of applying it once. Commands that find
// their work already done are counted as skipped, not failed.
//
// Notifications are claimed before they are handed off: MarkNotified wins
// the event, the notifier is called, and if the hand-off fails the claim is
// released so the next run retries it.
package executor
