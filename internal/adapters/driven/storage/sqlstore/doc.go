// Package sqlstore provides the relational implementation of the document
// and conversation store ports on top of sqlx.
//
// Two drivers are supported through the same SQL:
//
//   - sqlite: modernc.org/sqlite, a pure Go SQLite that needs no CGO (default)
//   - pgx: PostgreSQL through github.com/jackc/pgx/v5/stdlib
//
// Queries are written with ? placeholders and rebound for the active driver.
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql
// files; applied versions are recorded in schema_migrations.
//
// # Connections
//
// Open retries the initial connection a bounded number of times with a
// fixed delay. Query failures after that are returned immediately, wrapped
// in domain.ErrStorage. The pool size is capped by Config.MaxOpenConns and
// callers beyond the cap wait for a free connection.
//
// # Search
//
// SearchDocuments is a case-insensitive substring match over filename and
// content using LIKE with escaped wildcards. SQLite folds case for ASCII
// letters only.
package sqlstore
