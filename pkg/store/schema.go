package store

import (
	"fmt"
	"strings"

	"gatherly/eventkeeper/pkg/lifecycle"
)

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// schemaStatements create the event database schema. The column types are
// understood by both SQLite and PostgreSQL; instants are Unix nanoseconds.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS events (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL DEFAULT '',
    organizer_id TEXT NOT NULL DEFAULT '',
    stored_state TEXT NOT NULL,

    start_at BIGINT NOT NULL,
    end_at BIGINT,
    rsvp_deadline BIGINT,

    data_retention_months INTEGER NOT NULL,
    wall_retention_months INTEGER,

    retention_notification_sent BOOLEAN NOT NULL DEFAULT FALSE,
    retention_notification_sent_at BIGINT,
    archived_at BIGINT,
    scheduled_for_deletion_at BIGINT,

    created_at BIGINT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS wall_posts (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL,
    created_at BIGINT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at BIGINT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_events_scheduled_for_deletion_at ON events(scheduled_for_deletion_at)`,
	`CREATE INDEX IF NOT EXISTS idx_wall_posts_event_id ON wall_posts(event_id, created_at)`,
}

const eventColumns = `id, title, organizer_id, stored_state,
    start_at, end_at, rsvp_deadline,
    data_retention_months, wall_retention_months,
    retention_notification_sent, retention_notification_sent_at,
    archived_at, scheduled_for_deletion_at, created_at`

// completableStates are the stored states MarkCompleted moves from.
const completableStates = `('published', 'closed', 'ongoing')`

// rowScanner is satisfied by *sql.Row, *sql.Rows and pgx.Row.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (lifecycle.EventSnapshot, error) {
	var (
		e                            lifecycle.EventSnapshot
		state                        string
		startAt, createdAt           int64
		dataMonths                   int64
		endAt, rsvpDeadline          *int64
		wallMonths                   *int64
		sentAt, archivedAt, deleteAt *int64
	)
	err := row.Scan(
		&e.ID, &e.Title, &e.OrganizerID, &state,
		&startAt, &endAt, &rsvpDeadline,
		&dataMonths, &wallMonths,
		&e.RetentionNotificationSent, &sentAt,
		&archivedAt, &deleteAt, &createdAt,
	)
	if err != nil {
		return lifecycle.EventSnapshot{}, err
	}

	e.StoredState = lifecycle.State(state)
	e.StartAt = fromNanos(startAt)
	e.EndAt = fromNullNanos(endAt)
	e.RSVPDeadline = fromNullNanos(rsvpDeadline)
	e.DataRetentionMonths = int(dataMonths)
	e.WallRetentionMonths = fromNullInt(wallMonths)
	e.RetentionNotificationSentAt = fromNullNanos(sentAt)
	e.ArchivedAt = fromNullNanos(archivedAt)
	e.ScheduledForDeletionAt = fromNullNanos(deleteAt)
	e.CreatedAt = fromNanos(createdAt)
	return e, nil
}

// eventArgs returns the column values of e in eventColumns order.
func eventArgs(e lifecycle.EventSnapshot) []any {
	return []any{
		e.ID, e.Title, e.OrganizerID, string(e.StoredState),
		toNanos(e.StartAt), toNullNanos(e.EndAt), toNullNanos(e.RSVPDeadline),
		int64(e.DataRetentionMonths), toNullInt(e.WallRetentionMonths),
		e.RetentionNotificationSent, toNullNanos(e.RetentionNotificationSentAt),
		toNullNanos(e.ArchivedAt), toNullNanos(e.ScheduledForDeletionAt), toNanos(e.CreatedAt),
	}
}

// upsertEventQuery builds the insert-or-replace statement for events using
// placeholder(i) for the i-th (1-based) argument.
func upsertEventQuery(placeholder func(i int) string) string {
	cols := strings.Split(eventColumns, ",")
	params := make([]string, len(cols))
	updates := make([]string, 0, len(cols)-1)
	for i, col := range cols {
		col = strings.TrimSpace(col)
		params[i] = placeholder(i + 1)
		if col != "id" {
			updates = append(updates, fmt.Sprintf("%s = excluded.%s", col, col))
		}
	}
	return fmt.Sprintf(`INSERT INTO events (%s) VALUES (%s)
ON CONFLICT (id) DO UPDATE SET %s`,
		eventColumns, strings.Join(params, ", "), strings.Join(updates, ", "))
}

func sqlitePlaceholder(int) string { return "?" }

func postgresPlaceholder(i int) string { return fmt.Sprintf("$%d", i) }
