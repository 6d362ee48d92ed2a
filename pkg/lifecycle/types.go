package lifecycle

import (
	"fmt"
	"strings"
	"time"
)

// State is the lifecycle state of an event.
type State string

const (
	// StateDraft is an unpublished event. Time never moves it.
	StateDraft State = "draft"
	// StatePublished is a live event accepting RSVPs.
	StatePublished State = "published"
	// StateClosed is a published event whose RSVP deadline has passed.
	StateClosed State = "closed"
	// StateOngoing is an event between its start and effective end.
	StateOngoing State = "ongoing"
	// StateCompleted is an event past its effective end.
	StateCompleted State = "completed"
	// StateCancelled is a cancelled event. Time never moves it.
	StateCancelled State = "cancelled"
)

var allStates = []State{
	StateDraft,
	StatePublished,
	StateClosed,
	StateOngoing,
	StateCompleted,
	StateCancelled,
}

// IsTerminal reports whether the state is sticky with respect to time.
func (s State) IsTerminal() bool {
	return s == StateDraft || s == StateCancelled
}

// Valid reports whether s is one of the known lifecycle states.
func (s State) Valid() bool {
	for _, known := range allStates {
		if s == known {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer.
func (s State) String() string {
	return string(s)
}

// ParseState parses a state name case-insensitively.
func ParseState(value string) (State, error) {
	s := State(strings.ToLower(strings.TrimSpace(value)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown lifecycle state %q", value)
	}
	return s, nil
}

// EventSnapshot is the read-only projection of an event the engine consumes.
// Optional instants are nil when absent.
type EventSnapshot struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	OrganizerID string `json:"organizer_id,omitempty"`

	// StoredState is the last state explicitly persisted.
	StoredState State `json:"stored_state"`

	StartAt      time.Time  `json:"start_at"`
	EndAt        *time.Time `json:"end_at,omitempty"`
	RSVPDeadline *time.Time `json:"rsvp_deadline,omitempty"`

	// DataRetentionMonths is how long event data is kept after the event ends.
	DataRetentionMonths int `json:"data_retention_months"`

	// WallRetentionMonths is nil when wall posts are never swept by age.
	WallRetentionMonths *int `json:"wall_retention_months,omitempty"`

	RetentionNotificationSent   bool       `json:"retention_notification_sent"`
	RetentionNotificationSentAt *time.Time `json:"retention_notification_sent_at,omitempty"`

	ArchivedAt             *time.Time `json:"archived_at,omitempty"`
	ScheduledForDeletionAt *time.Time `json:"scheduled_for_deletion_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// IsArchived reports whether the event has been archived.
func (e EventSnapshot) IsArchived() bool {
	return e.ArchivedAt != nil
}

// WallPostSnapshot is the part of a wall post relevant to retention.
type WallPostSnapshot struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	CreatedAt time.Time `json:"created_at"`
}
