// Package sqlite implements the repository interfaces on SQLite.
//
// WHY modernc.org/sqlite?
// It is a pure-Go translation of SQLite — no CGo, no C compiler, painless
// cross-compilation. The blank import below registers it with database/sql
// as the driver named "sqlite".
//
// SCHEMA MIGRATIONS:
// The schema lives in migrations/*.sql, embedded into the binary and
// applied with golang-migrate on startup. migrate tracks the applied
// version in a schema_migrations table, so opening an existing database
// is a no-op and upgrading an old one applies exactly the missing steps.
package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// DB wraps a sql.DB connection pool. The three stores returned by
// Snippets, Tags and Users share the pool; closing the DB closes all of
// them.
type DB struct {
	conn *sql.DB
}

// SnippetStore implements repository.SnippetRepository.
type SnippetStore struct {
	conn *sql.DB
}

// TagStore implements repository.TagRepository.
type TagStore struct {
	conn *sql.DB
}

// UserStore implements repository.UserRepository.
type UserStore struct {
	conn *sql.DB
}

// Snippets returns the snippet store backed by this pool.
func (db *DB) Snippets() *SnippetStore { return &SnippetStore{conn: db.conn} }

// Tags returns the tag store backed by this pool.
func (db *DB) Tags() *TagStore { return &TagStore{conn: db.conn} }

// Users returns the user store backed by this pool.
func (db *DB) Users() *UserStore { return &UserStore{conn: db.conn} }

// New opens (or creates) the SQLite database at dbPath and brings its
// schema up to date. Use ":memory:" for a throwaway in-memory database in
// tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// PRAGMAs apply per connection and a ":memory:" database exists per
	// connection, so the pool must stay at exactly one. SQLite serializes
	// writers anyway; the pool would only add contention.
	conn.SetMaxOpenConns(1)

	// Force an immediate connection so a bad path or permission problem
	// surfaces here instead of on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in flight — without it the
	// whole file locks on every write, which a web server cannot live with.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default in SQLite. The snippet→user and
	// snippet_tags cascades depend on them.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	if err := migrateUp(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the connection pool. Always defer this next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrateUp applies all pending migrations from the embedded files.
//
// The migrate instance is deliberately not closed: closing it would close
// the *sql.DB it was built on, which the caller still owns.
func migrateUp(conn *sql.DB) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("reading embedded migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(conn, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("creating migrate driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}
