package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens/creates a SQLite DB file and ensures tables exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// one writer; the recorder is the only frequent one
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range pragmas {
		if _, err := db.Exec("PRAGMA " + pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set PRAGMA %s: %w", pragma, err)
		}
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Fail fast if the DB cannot be reached
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

const sqliteDriverName = "sqlite"

var pragmas = []string{
	"journal_mode = WAL",
	"foreign_keys = ON",
	"busy_timeout = 5000",
}

const schemaHeaterState = `
CREATE TABLE IF NOT EXISTS heater_state (
    channel TEXT PRIMARY KEY,
    phase TEXT NOT NULL,
    temp_c REAL NOT NULL,
    target_c REAL NOT NULL,
    power REAL NOT NULL,
    fault BOOLEAN NOT NULL,
    fault_reason TEXT NOT NULL DEFAULT '',
    fault_message TEXT NOT NULL DEFAULT '',
    target_reached_at TIMESTAMP,
    updated_at TIMESTAMP NOT NULL
);
`

// occurred_at is TEXT in a fixed layout so range filters compare lexically.
const schemaHeaterEvents = `
CREATE TABLE IF NOT EXISTS heater_events (
    id TEXT PRIMARY KEY,
    occurred_at TEXT NOT NULL,
    channel TEXT NOT NULL,
    type TEXT NOT NULL,
    message TEXT NOT NULL,
    meta TEXT
);
`

const indexHeaterEvents = `
CREATE INDEX IF NOT EXISTS idx_heater_events_occurred ON heater_events (occurred_at);
`

const indexHeaterEventsChannel = `
CREATE INDEX IF NOT EXISTS idx_heater_events_channel ON heater_events (channel, occurred_at);
`

const schemaUsers = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'operator',
    last_login_at TIMESTAMP
);
`

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaHeaterState,
		schemaHeaterEvents,
		indexHeaterEvents,
		indexHeaterEventsChannel,
		schemaUsers,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
