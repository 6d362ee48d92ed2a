// Package lifecycle derives the effective state of an event from its stored
// state and the current time.
//
// # States
//
// Events move through draft, published, closed, ongoing, completed and
// cancelled. Draft and cancelled never change with time. For every other
// stored state the effective state is recomputed on read:
//
//	published -> closed     when the RSVP deadline passes
//	published|closed -> ongoing  when the event starts
//	ongoing -> completed    when the event ends (EndAt, or StartAt + 3h)
//
// Transitions are monotonic: a later instant never yields an earlier state.
//
// # Persistence
//
// Only completed is ever worth writing back. SyncState reports when the stored
// state lags behind; closed and ongoing are cheap to recompute and are never
// persisted, so no background worker has to chase them.
//
// # Usage
//
//	state := lifecycle.Resolve(event, clock.Now())
//	if next, ok := lifecycle.SyncState(event, clock.Now()); ok {
//	    // persist next
//	}
//
// All functions are pure and safe for concurrent use.
package lifecycle
