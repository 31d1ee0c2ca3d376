// Package schema owns the SQLite schema of the logs database and its
// versioned migrations. The layout stays compatible with the llm tool's
// logging tables; head tracking lives in a dedicated state table and a
// parent_id column so it never collides with the logging schema.
package schema

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// CurrentVersion is the current schema version.
//
// Version 1: base logging tables (conversations, responses, attachments).
// Version 2: head tracking (responses.parent_id, state table, parent index).
const CurrentVersion = 2

// OpenDB opens the logs database at path and applies the pragmas every
// connection needs. Use ":memory:" for an in-memory database in tests.
func OpenDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	// WAL for concurrent readers while a command writes
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}

	// Wait for a concurrent writer instead of failing immediately; past
	// this the error surfaces as store-unavailable to the caller.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	return db, nil
}

// InitDB initializes a new database with the current schema.
func InitDB(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := createVersionTable(tx); err != nil {
		return fmt.Errorf("create version table: %w", err)
	}

	if err := createTables(tx); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	if err := createIndexes(tx); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}

	if err := setSchemaVersion(tx, CurrentVersion); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetSchemaVersion returns the current schema version from the database.
func GetSchemaVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("query schema version: %w", err)
	}
	return version, nil
}

// Migrate migrates the database to the current schema version.
func Migrate(db *sql.DB) error {
	var tableName string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableName)
	if err == sql.ErrNoRows {
		// No schema exists, initialize it
		return InitDB(db)
	}
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	currentVersion, err := GetSchemaVersion(db)
	if err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	if currentVersion == 0 {
		// Version table exists but no version set, initialize
		return InitDB(db)
	}

	if currentVersion == CurrentVersion {
		return nil
	}

	if currentVersion < CurrentVersion {
		if err := runMigrations(db, currentVersion, CurrentVersion); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	return nil
}

// runMigrations runs all migrations from startVersion to endVersion.
func runMigrations(db *sql.DB, startVersion, endVersion int) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Migration from version 1 to 2: head tracking. Databases written by
	// the base logging schema gain a parent_id column, the state table
	// holding the head pointer, and the parent lookup index.
	if startVersion < 2 && endVersion >= 2 {
		if _, err := tx.Exec(`ALTER TABLE responses ADD COLUMN parent_id TEXT REFERENCES responses(id)`); err != nil {
			return fmt.Errorf("add parent_id column: %w", err)
		}
		if _, err := tx.Exec(`CREATE TABLE IF NOT EXISTS state (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`); err != nil {
			return fmt.Errorf("create state table: %w", err)
		}
		if _, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_responses_parent ON responses(parent_id)`); err != nil {
			return fmt.Errorf("create parent index: %w", err)
		}
	}

	if err := setSchemaVersion(tx, endVersion); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// createVersionTable creates the schema_version table.
func createVersionTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version    INTEGER NOT NULL,
			applied_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

// setSchemaVersion sets the schema version in the database.
func setSchemaVersion(tx *sql.Tx, version int) error {
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

// createTables creates all database tables.
func createTables(tx *sql.Tx) error {
	tables := []string{
		// Conversations table
		`CREATE TABLE IF NOT EXISTS conversations (
			id    TEXT PRIMARY KEY,
			name  TEXT,
			model TEXT
		)`,

		// Responses table. One row per prompt/response exchange. parent_id
		// links an exchange to the exchange it continued from; rows sharing
		// a parent are diverging branches of the same conversation.
		`CREATE TABLE IF NOT EXISTS responses (
			id              TEXT PRIMARY KEY,
			model           TEXT,
			prompt          TEXT,
			system          TEXT,
			prompt_json     TEXT,
			options_json    TEXT,
			response        TEXT,
			response_json   TEXT,
			conversation_id TEXT REFERENCES conversations(id),
			parent_id       TEXT REFERENCES responses(id),
			duration_ms     INTEGER,
			datetime_utc    TEXT NOT NULL,
			input_tokens    INTEGER,
			output_tokens   INTEGER,
			token_details   TEXT
		)`,

		// State table. Single logical slot per key; the head pointer lives
		// at key='head'.
		`CREATE TABLE IF NOT EXISTS state (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Attachments tables (owned by the content collaborator; created
		// here so a fresh database accepts its writes)
		`CREATE TABLE IF NOT EXISTS attachments (
			id      TEXT PRIMARY KEY,
			type    TEXT,
			path    TEXT,
			url     TEXT,
			content BLOB
		)`,

		`CREATE TABLE IF NOT EXISTS prompt_attachments (
			response_id   TEXT NOT NULL REFERENCES responses(id),
			attachment_id TEXT NOT NULL REFERENCES attachments(id),
			"order"       INTEGER,
			PRIMARY KEY (response_id, attachment_id)
		)`,
	}

	for _, table := range tables {
		if _, err := tx.Exec(table); err != nil {
			return err
		}
	}
	return nil
}

// createIndexes creates all database indexes.
func createIndexes(tx *sql.Tx) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_responses_conversation ON responses(conversation_id)`,
		`CREATE INDEX IF NOT EXISTS idx_responses_parent ON responses(parent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_responses_datetime ON responses(datetime_utc)`,
	}

	for _, index := range indexes {
		if _, err := tx.Exec(index); err != nil {
			return err
		}
	}
	return nil
}
