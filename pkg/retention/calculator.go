package retention

import (
	"time"

	"gatherly/eventkeeper/pkg/lifecycle"
)

// Retention policy defaults.
const (
	// DefaultDataRetentionMonths is the retention window assigned to new events.
	DefaultDataRetentionMonths = 24

	// DefaultNotificationLead is how long before archival organizers are notified.
	DefaultNotificationLead = 30 * 24 * time.Hour

	// DefaultGracePeriodDays is the delay between scheduling and executing a deletion.
	DefaultGracePeriodDays = 30

	// MinGracePeriodDays and MaxGracePeriodDays bound organizer-chosen grace periods.
	MinGracePeriodDays = 1
	MaxGracePeriodDays = 365
)

// Policy holds the tunable parts of the retention calculation.
type Policy struct {
	// NotificationLead is subtracted from the archival date to get the
	// notification date. Non-positive values fall back to DefaultNotificationLead.
	NotificationLead time.Duration

	// Resolver derives effective states.
	Resolver lifecycle.Resolver
}

// DefaultPolicy returns the standard retention policy.
func DefaultPolicy() Policy {
	return Policy{
		NotificationLead: DefaultNotificationLead,
		Resolver:         lifecycle.DefaultResolver,
	}
}

// Calculator evaluates retention dates and eligibility. It holds no mutable
// state and is safe for concurrent use.
type Calculator struct {
	policy Policy
}

// NewCalculator creates a calculator for the given policy.
func NewCalculator(policy Policy) *Calculator {
	if policy.NotificationLead <= 0 {
		policy.NotificationLead = DefaultNotificationLead
	}
	return &Calculator{policy: policy}
}

// Policy returns the calculator's policy.
func (c *Calculator) Policy() Policy {
	return c.policy
}

// ArchivalDate returns the instant the event's data becomes eligible for
// archival. ok is false unless the event is effectively completed at now and
// has a positive retention window.
func (c *Calculator) ArchivalDate(e lifecycle.EventSnapshot, now time.Time) (time.Time, bool) {
	if e.DataRetentionMonths <= 0 {
		return time.Time{}, false
	}
	if c.policy.Resolver.Resolve(e, now) != lifecycle.StateCompleted {
		return time.Time{}, false
	}

	baseline := e.StartAt
	if e.EndAt != nil {
		baseline = *e.EndAt
	}
	return AddMonths(baseline, e.DataRetentionMonths), true
}

// NotificationDate returns the start of the calendar day that lies the
// notification lead before the archival date. The window opens at day
// granularity: an event archived 2026-01-15T20:00Z is notifiable from
// 2025-12-16T00:00Z.
func (c *Calculator) NotificationDate(e lifecycle.EventSnapshot, now time.Time) (time.Time, bool) {
	archival, ok := c.ArchivalDate(e, now)
	if !ok {
		return time.Time{}, false
	}
	lead := archival.Add(-c.policy.NotificationLead)
	y, m, d := lead.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, lead.Location()), true
}

// ShouldNotify reports whether the organizer should now be told that the
// event's data is about to be archived.
func (c *Calculator) ShouldNotify(e lifecycle.EventSnapshot, now time.Time) bool {
	if e.RetentionNotificationSent {
		return false
	}
	notifyAt, ok := c.NotificationDate(e, now)
	if !ok {
		return false
	}
	return !now.Before(notifyAt)
}

// IsReadyForArchival reports whether the event's archival date has passed and
// it has not been archived yet.
func (c *Calculator) IsReadyForArchival(e lifecycle.EventSnapshot, now time.Time) bool {
	if e.ArchivedAt != nil {
		return false
	}
	archival, ok := c.ArchivalDate(e, now)
	if !ok {
		return false
	}
	return !now.Before(archival)
}

// DeletionDate returns when a deletion scheduled at now becomes executable.
// The grace period is validated by the settings layer, not here.
func DeletionDate(now time.Time, gracePeriodDays int) time.Time {
	return now.Add(time.Duration(gracePeriodDays) * 24 * time.Hour)
}

// WallCutoff returns the instant before which wall posts are expired. ok is
// false when months is nil or non-positive, which disables sweeping.
func WallCutoff(now time.Time, months *int) (time.Time, bool) {
	if months == nil || *months <= 0 {
		return time.Time{}, false
	}
	return AddMonths(now, -*months), true
}

var defaultCalculator = NewCalculator(DefaultPolicy())

// ArchivalDate evaluates e with the default policy.
func ArchivalDate(e lifecycle.EventSnapshot, now time.Time) (time.Time, bool) {
	return defaultCalculator.ArchivalDate(e, now)
}

// ShouldNotify evaluates e with the default policy.
func ShouldNotify(e lifecycle.EventSnapshot, now time.Time) bool {
	return defaultCalculator.ShouldNotify(e, now)
}

// IsReadyForArchival evaluates e with the default policy.
func IsReadyForArchival(e lifecycle.EventSnapshot, now time.Time) bool {
	return defaultCalculator.IsReadyForArchival(e, now)
}
