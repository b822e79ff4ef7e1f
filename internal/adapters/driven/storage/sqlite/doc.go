// Package sqlite stores the chunk row table in a SQLite database.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Documents and their chunks live in two
// tables:
//
//   - documents: one row per doc_id with the shared administrative columns
//   - document_chunks: one row per passage, cascading on document delete
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.handbook/data/handbook.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode, and Save replaces the table in a single transaction.
package sqlite
