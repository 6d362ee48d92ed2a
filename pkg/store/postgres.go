package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gatherly/eventkeeper/pkg/config"
	"gatherly/eventkeeper/pkg/lifecycle"
)

// PostgresStorage implements Store using a pgx connection pool.
type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresStorage connects to cfg.DSN and initializes the schema.
func NewPostgresStorage(ctx context.Context, cfg config.PostgresConfig, logger *slog.Logger) (*PostgresStorage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "store.postgres")

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, NewStorageError(BackendPostgres, "parse_dsn", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.ConnectTimeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, NewStorageError(BackendPostgres, "connect", err)
	}

	s := &PostgresStorage{pool: pool, logger: logger}
	if err := s.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("PostgreSQL storage initialized",
		"host", poolConfig.ConnConfig.Host,
		"database", poolConfig.ConnConfig.Database,
		"max_conns", poolConfig.MaxConns,
	)
	return s, nil
}

func (s *PostgresStorage) initialize(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return NewStorageError(BackendPostgres, "ping", err)
	}
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return NewStorageError(BackendPostgres, "create_schema", err)
		}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO schema_version (version, applied_at) VALUES ($1, $2) ON CONFLICT (version) DO NOTHING`,
		SchemaVersion, toNanos(time.Now()))
	if err != nil {
		return NewStorageError(BackendPostgres, "insert_schema_version", err)
	}

	var version int
	err = s.pool.QueryRow(ctx, `SELECT version FROM schema_version ORDER BY version DESC LIMIT 1`).Scan(&version)
	if err != nil {
		return NewStorageError(BackendPostgres, "get_schema_version", err)
	}
	if version != SchemaVersion {
		return NewStorageError(BackendPostgres, "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}
	return nil
}

// SaveEvent inserts or replaces an event.
func (s *PostgresStorage) SaveEvent(ctx context.Context, e lifecycle.EventSnapshot) error {
	if _, err := s.pool.Exec(ctx, upsertEventQuery(postgresPlaceholder), eventArgs(e)...); err != nil {
		return NewStorageError(BackendPostgres, "save_event", err)
	}
	return nil
}

// GetEvent returns a single event.
func (s *PostgresStorage) GetEvent(ctx context.Context, id string) (lifecycle.EventSnapshot, error) {
	e, err := scanEvent(s.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return lifecycle.EventSnapshot{}, ErrNotFound
	}
	if err != nil {
		return lifecycle.EventSnapshot{}, NewStorageError(BackendPostgres, "get_event", err)
	}
	return e, nil
}

// ListEvents returns all events ordered by creation time, then id.
func (s *PostgresStorage) ListEvents(ctx context.Context) ([]lifecycle.EventSnapshot, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY created_at, id`)
	if err != nil {
		return nil, NewStorageError(BackendPostgres, "list_events", err)
	}
	defer rows.Close()

	var events []lifecycle.EventSnapshot
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, NewStorageError(BackendPostgres, "scan_event", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError(BackendPostgres, "list_events", err)
	}
	return events, nil
}

// SaveWallPost inserts or replaces a wall post of an existing event.
func (s *PostgresStorage) SaveWallPost(ctx context.Context, p lifecycle.WallPostSnapshot) error {
	tag, err := s.pool.Exec(ctx, `INSERT INTO wall_posts (id, event_id, created_at)
SELECT $1, $2, $3 WHERE EXISTS (SELECT 1 FROM events WHERE id = $2)
ON CONFLICT (id) DO UPDATE SET event_id = excluded.event_id, created_at = excluded.created_at`,
		p.ID, p.EventID, toNanos(p.CreatedAt))
	if err != nil {
		return NewStorageError(BackendPostgres, "save_wall_post", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListWallPosts returns the posts of an event ordered by creation time, then id.
func (s *PostgresStorage) ListWallPosts(ctx context.Context, eventID string) ([]lifecycle.WallPostSnapshot, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, event_id, created_at FROM wall_posts WHERE event_id = $1 ORDER BY created_at, id`, eventID)
	if err != nil {
		return nil, NewStorageError(BackendPostgres, "list_wall_posts", err)
	}
	defer rows.Close()

	var posts []lifecycle.WallPostSnapshot
	for rows.Next() {
		var (
			p       lifecycle.WallPostSnapshot
			created int64
		)
		if err := rows.Scan(&p.ID, &p.EventID, &created); err != nil {
			return nil, NewStorageError(BackendPostgres, "scan_wall_post", err)
		}
		p.CreatedAt = fromNanos(created)
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError(BackendPostgres, "list_wall_posts", err)
	}
	return posts, nil
}

func (s *PostgresStorage) exec(ctx context.Context, operation, query string, args ...any) (bool, error) {
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, NewStorageError(BackendPostgres, operation, err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkCompleted persists the completed state.
func (s *PostgresStorage) MarkCompleted(ctx context.Context, id string) (bool, error) {
	return s.exec(ctx, "mark_completed",
		`UPDATE events SET stored_state = 'completed' WHERE id = $1 AND stored_state IN `+completableStates, id)
}

// MarkNotified claims the retention notification.
func (s *PostgresStorage) MarkNotified(ctx context.Context, id string, at time.Time) (bool, error) {
	return s.exec(ctx, "mark_notified",
		`UPDATE events SET retention_notification_sent = TRUE, retention_notification_sent_at = $1
WHERE id = $2 AND retention_notification_sent = FALSE AND archived_at IS NULL`,
		toNanos(at), id)
}

// ReleaseNotification undoes a claim made at exactly at.
func (s *PostgresStorage) ReleaseNotification(ctx context.Context, id string, at time.Time) (bool, error) {
	return s.exec(ctx, "release_notification",
		`UPDATE events SET retention_notification_sent = FALSE, retention_notification_sent_at = NULL
WHERE id = $1 AND retention_notification_sent = TRUE AND retention_notification_sent_at = $2`,
		id, toNanos(at))
}

// Archive sets archived_at once.
func (s *PostgresStorage) Archive(ctx context.Context, id string, at time.Time) (bool, error) {
	return s.exec(ctx, "archive",
		`UPDATE events SET archived_at = $1 WHERE id = $2 AND archived_at IS NULL`, toNanos(at), id)
}

// ScheduleDeletion sets scheduled_for_deletion_at.
func (s *PostgresStorage) ScheduleDeletion(ctx context.Context, id string, at time.Time) error {
	changed, err := s.exec(ctx, "schedule_deletion",
		`UPDATE events SET scheduled_for_deletion_at = $1 WHERE id = $2`, toNanos(at), id)
	if err == nil && !changed {
		return ErrNotFound
	}
	return err
}

// CancelScheduledDeletion clears scheduled_for_deletion_at.
func (s *PostgresStorage) CancelScheduledDeletion(ctx context.Context, id string) error {
	changed, err := s.exec(ctx, "cancel_scheduled_deletion",
		`UPDATE events SET scheduled_for_deletion_at = NULL WHERE id = $1`, id)
	if err == nil && !changed {
		return ErrNotFound
	}
	return err
}

// UpdateRetentionSettings applies settings inside a transaction, locking the row.
func (s *PostgresStorage) UpdateRetentionSettings(ctx context.Context, id string, settings lifecycle.RetentionSettings) (lifecycle.EventSnapshot, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return lifecycle.EventSnapshot{}, NewStorageError(BackendPostgres, "update_retention_settings", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	e, err := scanEvent(tx.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return lifecycle.EventSnapshot{}, ErrNotFound
	}
	if err != nil {
		return lifecycle.EventSnapshot{}, NewStorageError(BackendPostgres, "update_retention_settings", err)
	}

	e = lifecycle.ApplyRetentionSettings(e, settings)
	_, err = tx.Exec(ctx, `UPDATE events SET
    data_retention_months = $1, wall_retention_months = $2,
    retention_notification_sent = $3, retention_notification_sent_at = $4
WHERE id = $5`,
		int64(e.DataRetentionMonths), toNullInt(e.WallRetentionMonths),
		e.RetentionNotificationSent, toNullNanos(e.RetentionNotificationSentAt), id)
	if err != nil {
		return lifecycle.EventSnapshot{}, NewStorageError(BackendPostgres, "update_retention_settings", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return lifecycle.EventSnapshot{}, NewStorageError(BackendPostgres, "update_retention_settings", err)
	}
	return e, nil
}

// DeleteWallPosts deletes the listed posts that belong to eventID.
func (s *PostgresStorage) DeleteWallPosts(ctx context.Context, eventID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM wall_posts WHERE event_id = $1 AND id = ANY($2)`, eventID, ids)
	if err != nil {
		return 0, NewStorageError(BackendPostgres, "delete_wall_posts", err)
	}
	return tag.RowsAffected(), nil
}

// PermanentlyDelete removes the event and its wall posts in one transaction.
func (s *PostgresStorage) PermanentlyDelete(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM wall_posts WHERE event_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected() > 0
		return nil
	})
	if err != nil {
		return false, NewStorageError(BackendPostgres, "permanently_delete", err)
	}
	return deleted, nil
}

// Ping checks the pool.
func (s *PostgresStorage) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return NewStorageError(BackendPostgres, "ping", err)
	}
	return nil
}

// Close closes the pool.
func (s *PostgresStorage) Close() error {
	s.logger.Info("closing PostgreSQL storage")
	s.pool.Close()
	return nil
}
