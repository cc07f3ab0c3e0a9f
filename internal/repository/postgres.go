package repository

import (
	"database/sql"

	_ "github.com/lib/pq"
)

// NewPostgresDB creates and initializes a PostgreSQL record store connection
func NewPostgresDB(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if err := createPostgresTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func createPostgresTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS record_entries (
		id TEXT PRIMARY KEY,
		record_type TEXT NOT NULL,
		parent_id TEXT,
		group_id TEXT,
		fields JSONB NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_records_type ON record_entries(record_type);
	CREATE INDEX IF NOT EXISTS idx_records_parent ON record_entries(parent_id);
	CREATE INDEX IF NOT EXISTS idx_records_group ON record_entries(group_id);
	CREATE INDEX IF NOT EXISTS idx_records_created ON record_entries(created_at);
	`

	_, err := db.Exec(schema)
	return err
}
