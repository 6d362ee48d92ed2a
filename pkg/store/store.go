package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gatherly/eventkeeper/pkg/lifecycle"
)

// Backend names.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// ErrNotFound is returned when an event does not exist.
var ErrNotFound = errors.New("event not found")

// Store is the persistence layer used by the executor and the CLI.
type Store interface {
	// SaveEvent inserts or replaces an event.
	SaveEvent(ctx context.Context, e lifecycle.EventSnapshot) error

	// GetEvent returns the event with the given id or ErrNotFound.
	GetEvent(ctx context.Context, id string) (lifecycle.EventSnapshot, error)

	// ListEvents returns all events ordered by creation time.
	ListEvents(ctx context.Context) ([]lifecycle.EventSnapshot, error)

	// SaveWallPost inserts or replaces a wall post. The event must exist.
	SaveWallPost(ctx context.Context, p lifecycle.WallPostSnapshot) error

	// ListWallPosts returns the wall posts of an event ordered by creation time.
	ListWallPosts(ctx context.Context, eventID string) ([]lifecycle.WallPostSnapshot, error)

	// MarkCompleted persists the completed state for an event currently
	// stored as published, closed or ongoing.
	MarkCompleted(ctx context.Context, id string) (bool, error)

	// MarkNotified records the retention notification if it has not been
	// sent yet and the event is not archived.
	MarkNotified(ctx context.Context, id string, at time.Time) (bool, error)

	// ReleaseNotification clears a notification claimed at exactly at.
	ReleaseNotification(ctx context.Context, id string, at time.Time) (bool, error)

	// Archive sets archived_at if it is not set yet.
	Archive(ctx context.Context, id string, at time.Time) (bool, error)

	// ScheduleDeletion sets the instant after which the event may be deleted.
	ScheduleDeletion(ctx context.Context, id string, at time.Time) error

	// CancelScheduledDeletion clears a scheduled deletion.
	CancelScheduledDeletion(ctx context.Context, id string) error

	// UpdateRetentionSettings applies organizer retention settings and
	// returns the updated event. Changing the data retention window clears
	// the retention notification.
	UpdateRetentionSettings(ctx context.Context, id string, s lifecycle.RetentionSettings) (lifecycle.EventSnapshot, error)

	// DeleteWallPosts deletes the given posts of an event and returns how
	// many existed.
	DeleteWallPosts(ctx context.Context, eventID string, ids []string) (int64, error)

	// PermanentlyDelete removes an event and its wall posts.
	PermanentlyDelete(ctx context.Context, id string) (bool, error)

	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// StorageError represents an error from a storage backend.
type StorageError struct {
	Backend   string // "memory", "sqlite", "postgres"
	Operation string // Operation that failed ("archive", "list_events", ...)
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

func cloneEvent(e lifecycle.EventSnapshot) lifecycle.EventSnapshot {
	e.EndAt = cloneTime(e.EndAt)
	e.RSVPDeadline = cloneTime(e.RSVPDeadline)
	e.RetentionNotificationSentAt = cloneTime(e.RetentionNotificationSentAt)
	e.ArchivedAt = cloneTime(e.ArchivedAt)
	e.ScheduledForDeletionAt = cloneTime(e.ScheduledForDeletionAt)
	if e.WallRetentionMonths != nil {
		months := *e.WallRetentionMonths
		e.WallRetentionMonths = &months
	}
	return e
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// Instants round-trip through Unix nanoseconds in UTC.

func toNanos(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func toNullNanos(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	n := toNanos(*t)
	return &n
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func fromNullNanos(n *int64) *time.Time {
	if n == nil {
		return nil
	}
	t := fromNanos(*n)
	return &t
}

func toNullInt(v *int) *int64 {
	if v == nil {
		return nil
	}
	n := int64(*v)
	return &n
}

func fromNullInt(n *int64) *int {
	if n == nil {
		return nil
	}
	v := int(*n)
	return &v
}
