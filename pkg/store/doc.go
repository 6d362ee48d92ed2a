// Package store persists events and wall posts for the retention engine.
//
// # Backends
//
//   - MemoryStorage: in-process maps, for tests and local runs.
//   - SQLiteStorage: database/sql with either mattn/go-sqlite3 ("sqlite3",
//     cgo) or modernc.org/sqlite ("sqlite", pure Go).
//   - PostgresStorage: pgx connection pool.
//
// # Conditional writes
//
// Every command the executor issues is a conditional update: MarkNotified
// only touches events whose notification has not been sent, Archive only
// events that are not archived yet, and so on. The boolean result reports
// whether the row changed. Two runs racing on the same event therefore
// apply each command once, and a run retried after a crash skips what the
// previous attempt already did.
//
// Instants are stored as Unix nanoseconds so that ReleaseNotification can
// compare the claim timestamp exactly on every backend.
package store
