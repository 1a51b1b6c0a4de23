package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/Januuus/chatbot/internal/adapters/driven/storage/sqlstore/migrations"
	"github.com/Januuus/chatbot/internal/core/domain"
	"github.com/Januuus/chatbot/internal/core/ports/driven"
	"github.com/Januuus/chatbot/internal/logger"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// Connection defaults.
const (
	DefaultMaxOpenConns    = 10
	DefaultConnectAttempts = 5
	DefaultRetryDelay      = 5 * time.Second
	defaultDBFile          = "chatbot.db"
)

// Config configures the SQL store.
type Config struct {
	// Driver is DriverSQLite or DriverPostgres. Empty means SQLite.
	Driver string

	// DSN is the data source name. For SQLite it defaults to a file in DataDir.
	DSN string

	// DataDir holds the SQLite database file when DSN is empty.
	DataDir string

	// MaxOpenConns caps concurrent connections.
	MaxOpenConns int

	// MaxIdleConns caps idle connections kept in the pool.
	MaxIdleConns int

	// ConnMaxLifetime recycles connections older than this. Zero keeps them.
	ConnMaxLifetime time.Duration

	// ConnectAttempts bounds the initial connection attempts.
	ConnectAttempts int

	// RetryDelay is the fixed wait between connection attempts.
	RetryDelay time.Duration
}

// Store is a SQL-backed storage that provides access to the document and
// conversation store interfaces through wrapper types.
type Store struct {
	db      *sqlx.DB
	driver  string
	collate string
}

// Open connects to the database, retrying the initial connection, and
// applies pending migrations.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	cfg, dsn, err := normalise(cfg)
	if err != nil {
		return nil, err
	}

	db, err := connect(ctx, cfg, dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	s := &Store{db: db, driver: cfg.Driver}
	if cfg.Driver == DriverPostgres {
		// Match SQLite's byte-wise ordering of filenames.
		s.collate = ` COLLATE "C"`
	}

	if err := s.migrate(ctx, migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: running migrations: %w", domain.ErrStorage, err)
	}

	return s, nil
}

// normalise fills defaults and resolves the DSN.
func normalise(cfg Config) (Config, string, error) {
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = DefaultMaxOpenConns
	}
	if cfg.ConnectAttempts <= 0 {
		cfg.ConnectAttempts = DefaultConnectAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}

	switch cfg.Driver {
	case DriverSQLite:
		if cfg.DSN != "" {
			return cfg, cfg.DSN, nil
		}
		dataDir := cfg.DataDir
		if dataDir == "" {
			dataDir = "data"
		}
		if err := os.MkdirAll(dataDir, 0700); err != nil {
			return cfg, "", fmt.Errorf("%w: creating data directory: %w", domain.ErrStorage, err)
		}
		path := filepath.Join(dataDir, defaultDBFile)
		// WAL for concurrent readers; foreign_keys is per connection so it
		// must be in the DSN rather than a one-off PRAGMA.
		return cfg, path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", nil
	case DriverPostgres:
		if cfg.DSN == "" {
			return cfg, "", fmt.Errorf("%w: postgres requires a DSN", domain.ErrStorage)
		}
		return cfg, cfg.DSN, nil
	default:
		return cfg, "", fmt.Errorf("%w: unknown driver %q", domain.ErrStorage, cfg.Driver)
	}
}

// connect opens and pings the database, retrying with a fixed delay.
func connect(ctx context.Context, cfg Config, dsn string) (*sqlx.DB, error) {
	var lastErr error
	for attempt := 1; attempt <= cfg.ConnectAttempts; attempt++ {
		db, err := sqlx.Open(cfg.Driver, dsn)
		if err == nil {
			err = db.PingContext(ctx)
			if err == nil {
				if attempt > 1 {
					logger.Info("database connected after %d attempts", attempt)
				}
				return db, nil
			}
			db.Close()
		}
		lastErr = err

		if attempt == cfg.ConnectAttempts {
			break
		}
		logger.Warn("database connection attempt %d/%d failed: %v; retrying in %s",
			attempt, cfg.ConnectAttempts, err, cfg.RetryDelay)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: connecting: %w", domain.ErrStorage, ctx.Err())
		case <-time.After(cfg.RetryDelay):
		}
	}

	return nil, fmt.Errorf("%w: connecting after %d attempts: %w", domain.ErrStorage, cfg.ConnectAttempts, lastErr)
}

// Close closes the database connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns the active driver name.
func (s *Store) Driver() string {
	return s.driver
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return storageErr("pinging database", err)
	}
	return nil
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// ConversationStore returns a ConversationStore interface backed by this store.
func (s *Store) ConversationStore() driven.ConversationStore {
	return &conversationStore{store: s}
}

// Version returns the highest applied migration version.
func (s *Store) Version(ctx context.Context) (int, error) {
	var v int
	if err := s.db.GetContext(ctx, &v, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations"); err != nil {
		return 0, storageErr("reading schema version", err)
	}
	return v, nil
}

// migrate runs all pending up migrations in version order.
func (s *Store) migrate(ctx context.Context, fsys fs.FS) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	currentVersion, err := s.Version(ctx)
	if err != nil {
		return err
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_documents.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if err := s.applyMigration(ctx, version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		logger.Debug("applied migration %s", name)
	}

	return nil
}

func (s *Store) applyMigration(ctx context.Context, version int, script string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	for _, stmt := range splitStatements(script) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind("INSERT INTO schema_migrations (version) VALUES (?)"), version); err != nil {
		return err
	}
	return tx.Commit()
}

// splitStatements splits a migration script on semicolons.
// Migration files must not contain semicolons inside literals.
func splitStatements(script string) []string {
	var stmts []string
	for _, part := range strings.Split(script, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

// storageErr wraps a driver error as a domain storage error.
func storageErr(op string, err error) error {
	if errors.Is(err, domain.ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrStorage, op, err)
}
