// Package sqlite implements the repository interfaces on SQLite.
//
// TWO DRIVERS, ONE SCHEMA:
// Local files (and ":memory:" in tests) go through modernc.org/sqlite, a
// pure Go build of SQLite, so no C toolchain is needed. A database URL
// starting with libsql:// or wss:// is a hosted Turso database and goes
// through the libsql driver instead. Both speak the SQLite dialect, so the
// queries and migrations below are shared.
//
// DATABASE/SQL REMINDER:
//   - sql.DB is a connection pool, not a single connection
//   - QueryRowContext → one row, Scan it, sql.ErrNoRows means "absent"
//   - QueryContext    → many rows, ALWAYS defer rows.Close() and check rows.Err()
//   - ExecContext     → INSERT/UPDATE/DELETE, RowsAffected detects "absent"
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// Both drivers register themselves with database/sql in init():
	// "sqlite" (modernc) and "libsql" (Turso).
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// DB wraps the connection pool and implements every repository interface:
// ApplicationRepository (applications.go), UserRepository (users.go) and
// TokenRepository (tokens.go).
type DB struct {
	conn   *sql.DB
	remote bool
}

// driverFor picks the database/sql driver for a database URL.
func driverFor(dbURL string) string {
	if strings.HasPrefix(dbURL, "libsql://") || strings.HasPrefix(dbURL, "wss://") {
		return "libsql"
	}
	return "sqlite"
}

// dsnFor returns the DSN handed to sql.Open.
//
// PRAGMAS ARE PER CONNECTION:
// sql.DB opens connections lazily and may hold several. A PRAGMA run once
// with conn.Exec lands on whichever connection served it, so later
// connections would start with foreign keys OFF and ON DELETE CASCADE would
// fire only sometimes. modernc reads "_pragma=name(value)" query parameters
// and applies them to every connection it opens, so local DSNs carry the
// pragma themselves. The hosted driver does not understand the parameter.
func dsnFor(dbURL string) string {
	if driverFor(dbURL) != "sqlite" {
		return dbURL
	}
	sep := "?"
	if strings.Contains(dbURL, "?") {
		sep = "&"
	}
	return dbURL + sep + "_pragma=foreign_keys(1)"
}

// New opens the database and runs migrations.
//
// dbURL examples:
//   - "data/jobtrack.db"                        → local file
//   - ":memory:"                                → in-memory, tests only
//   - "libsql://jobs-org.turso.io?authToken=…" → hosted Turso database
func New(dbURL string) (*DB, error) {
	driver := driverFor(dbURL)

	conn, err := sql.Open(driver, dsnFor(dbURL))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// sql.Open is lazy; Ping surfaces a bad path or auth token right away.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn, remote: driver == "libsql"}

	if !db.remote {
		// An in-memory database exists per connection. Pinning the pool to
		// one connection keeps every query on the same database.
		if dbURL == ":memory:" {
			conn.SetMaxOpenConns(1)
		}

		// WAL lets readers proceed while a write is in progress.
		// The hosted service manages its own journal, so this is local only.
		if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
		}
	}

	// Foreign keys are OFF by default in SQLite. Deleting a user must take
	// their applications with it (ON DELETE CASCADE). Local connections get
	// the pragma from the DSN; the hosted database is a single HTTP session,
	// so one Exec covers it.
	if db.remote {
		if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
		}
	}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the database is reachable. Used by the health endpoint.
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// migrate creates the schema. Every statement is idempotent
// (CREATE ... IF NOT EXISTS, addColumnIfNotExists), so it runs on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			first_name    TEXT NOT NULL DEFAULT '',
			last_name     TEXT NOT NULL DEFAULT '',
			github_id     INTEGER UNIQUE,
			is_staff      INTEGER NOT NULL DEFAULT 0,
			date_joined   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// Ids are assigned by the database and never reused (AUTOINCREMENT), so
	// a deleted record's id cannot come back as a different application.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS applications (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			company      TEXT NOT NULL,
			position     TEXT NOT NULL,
			status       TEXT NOT NULL DEFAULT 'applied'
			             CHECK (status IN ('applied','interview','offer','rejected','withdrawn')),
			applied_date TEXT NOT NULL,
			notes        TEXT NOT NULL DEFAULT '',
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_applications_user_id ON applications(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating applications table: %w", err)
	}

	// The posting URL arrived after the first schema.
	if err := db.addColumnIfNotExists("applications", "url",
		"TEXT NOT NULL DEFAULT ''"); err != nil {
		return fmt.Errorf("adding url to applications: %w", err)
	}

	// expires_at is unix seconds so range deletes compare numbers, not
	// driver-specific timestamp strings.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS revoked_tokens (
			jti        TEXT PRIMARY KEY,
			expires_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_revoked_tokens_expires_at ON revoked_tokens(expires_at);
	`)
	if err != nil {
		return fmt.Errorf("creating revoked_tokens table: %w", err)
	}

	return nil
}

// addColumnIfNotExists adds a column to a table only if it doesn't already exist.
// Makes ALTER TABLE migrations idempotent, safe to run multiple times.
func (db *DB) addColumnIfNotExists(table, column, definition string) error {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil // column already exists
	}
	_, err = db.conn.Exec(fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition,
	))
	return err
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// Neither driver exports a typed error for it, so the message is matched.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
