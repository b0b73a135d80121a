// Package sqlite provides a SQLite-based implementation of the metadata stores.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - DocumentStore: records of processed uploads
//   - ConversationStore: recorded question and answer turns
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files,
// and applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.caresync/data/metadata.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
