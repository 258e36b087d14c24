package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added index on events(turtle_id, seq) for per-turtle loads
//
// user_version tracks table layout only. Event payloads carry no version
// of their own; a payload written by one build must decode in the next.
const currentSchemaVersion = 1

// SQLiteLog stores turtle logs in a SQLite database.
// Uses WAL mode so history can be read while another process writes.
//
// Invariants kept by the schema:
//   - seq is AUTOINCREMENT, so it is never reused, not even after Clear
//     deletes a turtle's rows; Seq stays monotonic for the database's life
//   - (turtle_id, version) is unique, so two writers racing on one turtle
//     fail the insert instead of forking its history
//   - id is unique among stored rows. Clear deletes rows, and a turtle
//     rebuilt with the same commands gets the same ids back (see event.ID)
//
// Nothing here is crash-safe beyond what SQLite's NORMAL sync gives.
type SQLiteLog struct {
	db *sql.DB
}

// OpenSQLite creates or opens a SQLite database at path and applies the
// schema. ":memory:" gives a private in-memory database.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//
// Opening the same path repeatedly is safe.
func OpenSQLite(path string) (*SQLiteLog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite has one writer; a single connection also keeps ":memory:"
	// databases alive for the lifetime of the log.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteLog{db: db}, nil
}

// Close closes the database connection.
func (l *SQLiteLog) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// DB returns the underlying sql.DB. Prefer the Log methods.
func (l *SQLiteLog) DB() *sql.DB {
	return l.db
}

// applyPragmas configures the connection. busy_timeout lets a `turtle run`
// wait out a concurrent `turtle history` reader instead of failing with
// SQLITE_BUSY.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL", // durable at checkpoints, not per commit
		"PRAGMA busy_timeout = 5000",  // milliseconds
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// runMigrations applies incremental migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_events_turtle_seq
		ON events(turtle_id, seq)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}
