// Package sqlite provides a SQLite-backed implementation of the help-desk stores.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. One database connection serves:
//
//   - ConversationStore: answered turns and the feedback attached to them
//   - IngestRunStore: a history of ingestion run summaries
//
// # Schema
//
// The schema is managed through versioned migrations in the migrations/
// directory. Each migration is a pair of .up.sql and .down.sql files and the
// applied version is recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.helpdesk/data/helpdesk.db
//
// # Thread Safety
//
// All operations are thread-safe. The store relies on SQLite in WAL mode with
// a busy timeout.
package sqlite
