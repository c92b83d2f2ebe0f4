// Package store opens the SQLite databases that dbassert checks run against.
//
// Two drivers are registered:
//   - "sqlite3": github.com/mattn/go-sqlite3 (cgo, the default)
//   - "sqlite":  modernc.org/sqlite (pure Go)
//
// # Database Configuration
//
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - journal_mode=WAL for file databases
//
// The pool is limited to a single connection. An in-memory database lives
// and dies with its connection, so a single connection is the only way to
// see fixtures written earlier. Callers must close every *sql.Rows before
// issuing the next query.
package store
