package repository

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// NewSQLiteDB creates and initializes a SQLite-backed record store database
func NewSQLiteDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	schema := `
	-- Records table: one row per opaque remote record. The open field set is
	-- stored as JSON; parent_id and group_id are promoted to columns so the
	-- store can filter server-side.
	CREATE TABLE IF NOT EXISTS record_entries (
		id TEXT PRIMARY KEY,
		record_type TEXT NOT NULL,
		parent_id TEXT,
		group_id TEXT,
		fields TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_records_type ON record_entries(record_type);
	CREATE INDEX IF NOT EXISTS idx_records_parent ON record_entries(parent_id);
	CREATE INDEX IF NOT EXISTS idx_records_group ON record_entries(group_id);
	CREATE INDEX IF NOT EXISTS idx_records_created ON record_entries(created_at);

	-- Local state blobs (durable pin backups, retry queue payloads)
	CREATE TABLE IF NOT EXISTS local_blobs (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := db.Exec(schema)
	return err
}
