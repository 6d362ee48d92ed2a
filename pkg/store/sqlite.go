package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers "sqlite3"
	_ "modernc.org/sqlite"          // registers "sqlite"

	"gatherly/eventkeeper/pkg/config"
	"gatherly/eventkeeper/pkg/lifecycle"
)

// SQLite driver names.
const (
	DriverMattn   = "sqlite3"
	DriverModernc = "sqlite"
)

// SQLiteStorage implements Store using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config config.SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens (creating if needed) the database at cfg.Path and
// initializes the schema.
func NewSQLiteStorage(cfg config.SQLiteConfig, logger *slog.Logger) (*SQLiteStorage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "store.sqlite")

	if cfg.Driver == "" {
		cfg.Driver = DriverMattn
	}
	if cfg.Path == "" {
		return nil, NewStorageError(BackendSQLite, "open", errors.New("database path is empty"))
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, NewStorageError(BackendSQLite, "open", err)
		}
	}

	db, err := sql.Open(cfg.Driver, sqliteDSN(cfg))
	if err != nil {
		return nil, NewStorageError(BackendSQLite, "open", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	s := &SQLiteStorage{
		db:     db,
		config: cfg,
		logger: logger,
	}

	if err := s.initialize(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", cfg.Path,
		"driver", cfg.Driver,
		"wal_mode", cfg.WALMode,
		"max_open_conns", cfg.MaxOpenConns,
	)

	return s, nil
}

// sqliteDSN applies busy timeout and journal mode as connection parameters
// so that every pooled connection gets them.
func sqliteDSN(cfg config.SQLiteConfig) string {
	busy := cfg.BusyTimeout.Milliseconds()

	var params []string
	switch cfg.Driver {
	case DriverModernc:
		params = append(params, fmt.Sprintf("_pragma=busy_timeout(%d)", busy))
		if cfg.WALMode {
			params = append(params, "_pragma=journal_mode(WAL)")
		}
		params = append(params, "_txlock=immediate")
	default:
		params = append(params, fmt.Sprintf("_busy_timeout=%d", busy))
		if cfg.WALMode {
			params = append(params, "_journal_mode=WAL")
		}
		params = append(params, "_txlock=immediate")
	}
	return "file:" + cfg.Path + "?" + strings.Join(params, "&")
}

// initialize creates the schema and verifies its version.
func (s *SQLiteStorage) initialize(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return NewStorageError(BackendSQLite, "create_schema", err)
		}
	}
	s.logger.Debug("database schema created")

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO schema_version (version, applied_at) VALUES (?, ?) ON CONFLICT (version) DO NOTHING`,
		SchemaVersion, toNanos(time.Now()))
	if err != nil {
		return NewStorageError(BackendSQLite, "insert_schema_version", err)
	}

	var version int
	err = s.db.QueryRowContext(ctx, `SELECT version FROM schema_version ORDER BY version DESC LIMIT 1`).Scan(&version)
	if err != nil {
		return NewStorageError(BackendSQLite, "get_schema_version", err)
	}
	if version != SchemaVersion {
		return NewStorageError(BackendSQLite, "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	s.logger.Debug("schema version verified", "version", version)
	return nil
}

// SaveEvent inserts or replaces an event.
func (s *SQLiteStorage) SaveEvent(ctx context.Context, e lifecycle.EventSnapshot) error {
	if _, err := s.db.ExecContext(ctx, upsertEventQuery(sqlitePlaceholder), eventArgs(e)...); err != nil {
		return NewStorageError(BackendSQLite, "save_event", err)
	}
	return nil
}

// GetEvent returns a single event.
func (s *SQLiteStorage) GetEvent(ctx context.Context, id string) (lifecycle.EventSnapshot, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return lifecycle.EventSnapshot{}, ErrNotFound
	}
	if err != nil {
		return lifecycle.EventSnapshot{}, NewStorageError(BackendSQLite, "get_event", err)
	}
	return e, nil
}

// ListEvents returns all events ordered by creation time, then id.
func (s *SQLiteStorage) ListEvents(ctx context.Context) ([]lifecycle.EventSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events ORDER BY created_at, id`)
	if err != nil {
		return nil, NewStorageError(BackendSQLite, "list_events", err)
	}
	defer rows.Close()

	var events []lifecycle.EventSnapshot
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, NewStorageError(BackendSQLite, "scan_event", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError(BackendSQLite, "list_events", err)
	}
	return events, nil
}

// SaveWallPost inserts or replaces a wall post of an existing event.
func (s *SQLiteStorage) SaveWallPost(ctx context.Context, p lifecycle.WallPostSnapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewStorageError(BackendSQLite, "save_wall_post", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM events WHERE id = ?`, p.EventID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return NewStorageError(BackendSQLite, "save_wall_post", err)
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO wall_posts (id, event_id, created_at) VALUES (?, ?, ?)
ON CONFLICT (id) DO UPDATE SET event_id = excluded.event_id, created_at = excluded.created_at`,
		p.ID, p.EventID, toNanos(p.CreatedAt))
	if err != nil {
		return NewStorageError(BackendSQLite, "save_wall_post", err)
	}
	if err := tx.Commit(); err != nil {
		return NewStorageError(BackendSQLite, "save_wall_post", err)
	}
	return nil
}

// ListWallPosts returns the posts of an event ordered by creation time, then id.
func (s *SQLiteStorage) ListWallPosts(ctx context.Context, eventID string) ([]lifecycle.WallPostSnapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_id, created_at FROM wall_posts WHERE event_id = ? ORDER BY created_at, id`, eventID)
	if err != nil {
		return nil, NewStorageError(BackendSQLite, "list_wall_posts", err)
	}
	defer rows.Close()

	var posts []lifecycle.WallPostSnapshot
	for rows.Next() {
		var (
			p       lifecycle.WallPostSnapshot
			created int64
		)
		if err := rows.Scan(&p.ID, &p.EventID, &created); err != nil {
			return nil, NewStorageError(BackendSQLite, "scan_wall_post", err)
		}
		p.CreatedAt = fromNanos(created)
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError(BackendSQLite, "list_wall_posts", err)
	}
	return posts, nil
}

// exec runs a conditional update and reports whether a row changed.
func (s *SQLiteStorage) exec(ctx context.Context, operation, query string, args ...any) (bool, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, NewStorageError(BackendSQLite, operation, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, NewStorageError(BackendSQLite, operation, err)
	}
	return n > 0, nil
}

// MarkCompleted persists the completed state.
func (s *SQLiteStorage) MarkCompleted(ctx context.Context, id string) (bool, error) {
	return s.exec(ctx, "mark_completed",
		`UPDATE events SET stored_state = 'completed' WHERE id = ? AND stored_state IN `+completableStates, id)
}

// MarkNotified claims the retention notification.
func (s *SQLiteStorage) MarkNotified(ctx context.Context, id string, at time.Time) (bool, error) {
	return s.exec(ctx, "mark_notified",
		`UPDATE events SET retention_notification_sent = TRUE, retention_notification_sent_at = ?
WHERE id = ? AND retention_notification_sent = FALSE AND archived_at IS NULL`,
		toNanos(at), id)
}

// ReleaseNotification undoes a claim made at exactly at.
func (s *SQLiteStorage) ReleaseNotification(ctx context.Context, id string, at time.Time) (bool, error) {
	return s.exec(ctx, "release_notification",
		`UPDATE events SET retention_notification_sent = FALSE, retention_notification_sent_at = NULL
WHERE id = ? AND retention_notification_sent = TRUE AND retention_notification_sent_at = ?`,
		id, toNanos(at))
}

// Archive sets archived_at once.
func (s *SQLiteStorage) Archive(ctx context.Context, id string, at time.Time) (bool, error) {
	return s.exec(ctx, "archive",
		`UPDATE events SET archived_at = ? WHERE id = ? AND archived_at IS NULL`, toNanos(at), id)
}

// ScheduleDeletion sets scheduled_for_deletion_at.
func (s *SQLiteStorage) ScheduleDeletion(ctx context.Context, id string, at time.Time) error {
	changed, err := s.exec(ctx, "schedule_deletion",
		`UPDATE events SET scheduled_for_deletion_at = ? WHERE id = ?`, toNanos(at), id)
	if err == nil && !changed {
		return ErrNotFound
	}
	return err
}

// CancelScheduledDeletion clears scheduled_for_deletion_at.
func (s *SQLiteStorage) CancelScheduledDeletion(ctx context.Context, id string) error {
	changed, err := s.exec(ctx, "cancel_scheduled_deletion",
		`UPDATE events SET scheduled_for_deletion_at = NULL WHERE id = ?`, id)
	if err == nil && !changed {
		return ErrNotFound
	}
	return err
}

// UpdateRetentionSettings applies settings inside a transaction.
func (s *SQLiteStorage) UpdateRetentionSettings(ctx context.Context, id string, settings lifecycle.RetentionSettings) (lifecycle.EventSnapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return lifecycle.EventSnapshot{}, NewStorageError(BackendSQLite, "update_retention_settings", err)
	}
	defer tx.Rollback()

	e, err := scanEvent(tx.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return lifecycle.EventSnapshot{}, ErrNotFound
	}
	if err != nil {
		return lifecycle.EventSnapshot{}, NewStorageError(BackendSQLite, "update_retention_settings", err)
	}

	e = lifecycle.ApplyRetentionSettings(e, settings)
	_, err = tx.ExecContext(ctx, `UPDATE events SET
    data_retention_months = ?, wall_retention_months = ?,
    retention_notification_sent = ?, retention_notification_sent_at = ?
WHERE id = ?`,
		int64(e.DataRetentionMonths), toNullInt(e.WallRetentionMonths),
		e.RetentionNotificationSent, toNullNanos(e.RetentionNotificationSentAt), id)
	if err != nil {
		return lifecycle.EventSnapshot{}, NewStorageError(BackendSQLite, "update_retention_settings", err)
	}
	if err := tx.Commit(); err != nil {
		return lifecycle.EventSnapshot{}, NewStorageError(BackendSQLite, "update_retention_settings", err)
	}
	return e, nil
}

// deleteWallPostsBatch bounds the ids bound in one DELETE statement. SQLite
// rejects statements with more than 32766 variables.
const deleteWallPostsBatch = 500

// DeleteWallPosts deletes the listed posts that belong to eventID. Large id
// lists are deleted in batches within one transaction.
func (s *SQLiteStorage) DeleteWallPosts(ctx context.Context, eventID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, NewStorageError(BackendSQLite, "delete_wall_posts", err)
	}
	defer tx.Rollback()

	var total int64
	for start := 0; start < len(ids); start += deleteWallPostsBatch {
		batch := ids[start:min(start+deleteWallPostsBatch, len(ids))]

		args := make([]any, 0, len(batch)+1)
		args = append(args, eventID)
		for _, id := range batch {
			args = append(args, id)
		}
		query := `DELETE FROM wall_posts WHERE event_id = ? AND id IN (?` + strings.Repeat(", ?", len(batch)-1) + `)`

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, NewStorageError(BackendSQLite, "delete_wall_posts", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, NewStorageError(BackendSQLite, "delete_wall_posts", err)
		}
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, NewStorageError(BackendSQLite, "delete_wall_posts", err)
	}
	return total, nil
}

// PermanentlyDelete removes the event and its wall posts in one transaction.
func (s *SQLiteStorage) PermanentlyDelete(ctx context.Context, id string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, NewStorageError(BackendSQLite, "permanently_delete", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM wall_posts WHERE event_id = ?`, id); err != nil {
		return false, NewStorageError(BackendSQLite, "permanently_delete", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return false, NewStorageError(BackendSQLite, "permanently_delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, NewStorageError(BackendSQLite, "permanently_delete", err)
	}
	if err := tx.Commit(); err != nil {
		return false, NewStorageError(BackendSQLite, "permanently_delete", err)
	}
	return n > 0, nil
}

// Ping checks the database connection.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return NewStorageError(BackendSQLite, "ping", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	s.logger.Info("closing SQLite storage")
	if err := s.db.Close(); err != nil {
		return NewStorageError(BackendSQLite, "close", err)
	}
	return nil
}
