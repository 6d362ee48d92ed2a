package store

import (
	"context"
	"fmt"
	"log/slog"

	"gatherly/eventkeeper/pkg/config"
)

// Open creates the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryStorage(), nil
	case BackendSQLite, "":
		return NewSQLiteStorage(cfg.SQLite, logger)
	case BackendPostgres:
		return NewPostgresStorage(ctx, cfg.Postgres, logger)
	default:
		return nil, NewStorageError(cfg.Backend, "open", fmt.Errorf("unsupported backend %q", cfg.Backend))
	}
}
