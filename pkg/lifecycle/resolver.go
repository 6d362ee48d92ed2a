package lifecycle

import "time"

// DefaultDuration is the assumed length of an event without an end time.
const DefaultDuration = 3 * time.Hour

// Resolver derives effective lifecycle states. The zero value uses DefaultDuration.
type Resolver struct {
	// DefaultDuration overrides the assumed event length when positive.
	DefaultDuration time.Duration
}

// DefaultResolver is the resolver used by the package-level helpers.
var DefaultResolver = Resolver{DefaultDuration: DefaultDuration}

func (r Resolver) duration() time.Duration {
	if r.DefaultDuration > 0 {
		return r.DefaultDuration
	}
	return DefaultDuration
}

// EffectiveEnd returns EndAt, or StartAt plus the default duration.
func (r Resolver) EffectiveEnd(e EventSnapshot) time.Time {
	if e.EndAt != nil {
		return *e.EndAt
	}
	return e.StartAt.Add(r.duration())
}

// Resolve returns the effective state of e at now. Draft and cancelled events
// are returned unchanged; everything else advances with time.
func (r Resolver) Resolve(e EventSnapshot, now time.Time) State {
	if e.StoredState.IsTerminal() {
		return e.StoredState
	}

	if !now.Before(r.EffectiveEnd(e)) {
		return StateCompleted
	}
	if !now.Before(e.StartAt) {
		return StateOngoing
	}
	if e.RSVPDeadline != nil && !now.Before(*e.RSVPDeadline) {
		return StateClosed
	}
	return e.StoredState
}

// CanAcceptRSVPs reports whether the event is effectively published.
func (r Resolver) CanAcceptRSVPs(e EventSnapshot, now time.Time) bool {
	return r.Resolve(e, now) == StatePublished
}

// CanBeCancelled reports whether the event is neither cancelled nor completed.
func (r Resolver) CanBeCancelled(e EventSnapshot, now time.Time) bool {
	switch r.Resolve(e, now) {
	case StateCancelled, StateCompleted:
		return false
	default:
		return true
	}
}

// SyncState returns StateCompleted and true when the event has effectively
// completed but is not stored as completed. Closed and ongoing are never
// recommended for persistence; they are recomputed on every read.
func (r Resolver) SyncState(e EventSnapshot, now time.Time) (State, bool) {
	if e.StoredState != StateCompleted && r.Resolve(e, now) == StateCompleted {
		return StateCompleted, true
	}
	return "", false
}

// Resolve resolves e with DefaultResolver.
func Resolve(e EventSnapshot, now time.Time) State {
	return DefaultResolver.Resolve(e, now)
}

// EffectiveEnd returns the effective end of e with DefaultResolver.
func EffectiveEnd(e EventSnapshot) time.Time {
	return DefaultResolver.EffectiveEnd(e)
}

// CanAcceptRSVPs is DefaultResolver.CanAcceptRSVPs.
func CanAcceptRSVPs(e EventSnapshot, now time.Time) bool {
	return DefaultResolver.CanAcceptRSVPs(e, now)
}

// CanBeCancelled is DefaultResolver.CanBeCancelled.
func CanBeCancelled(e EventSnapshot, now time.Time) bool {
	return DefaultResolver.CanBeCancelled(e, now)
}

// SyncState is DefaultResolver.SyncState.
func SyncState(e EventSnapshot, now time.Time) (State, bool) {
	return DefaultResolver.SyncState(e, now)
}
