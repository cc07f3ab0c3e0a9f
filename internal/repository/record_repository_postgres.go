package repository

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/pinsync/client/internal/records"
)

// RecordRepositoryPostgres is the PostgreSQL-backed RecordStore.
type RecordRepositoryPostgres struct {
	db *sql.DB
}

// NewRecordRepositoryPostgres creates a new RecordRepositoryPostgres
func NewRecordRepositoryPostgres(db *sql.DB) *RecordRepositoryPostgres {
	return &RecordRepositoryPostgres{db: db}
}

// Query retrieves records of one type, optionally filtered, sorted by
// creation time at the source.
func (r *RecordRepositoryPostgres) Query(ctx context.Context, q Query) ([]records.Record, error) {
	query := `SELECT id, record_type, fields, created_at FROM record_entries WHERE record_type = $1`
	args := []any{q.RecordType}

	if q.ParentID != "" {
		args = append(args, q.ParentID)
		query += ` AND parent_id = $` + strconv.Itoa(len(args))
	}
	if q.GroupID != "" {
		args = append(args, q.GroupID)
		query += ` AND group_id = $` + strconv.Itoa(len(args))
	}

	if q.Ascending {
		query += ` ORDER BY created_at ASC`
	} else {
		query += ` ORDER BY created_at DESC`
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Save inserts the record, assigning an ID and creation metadata when the
// payload carries none, and returns the stored copy.
func (r *RecordRepositoryPostgres) Save(ctx context.Context, rec records.Record) (records.Record, error) {
	stored, fieldsJSON, err := prepareForSave(rec)
	if err != nil {
		return records.Record{}, err
	}

	query := `
		INSERT INTO record_entries (id, record_type, parent_id, group_id, fields, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	parentID, groupID := promotedFields(stored)
	_, err = r.db.ExecContext(ctx, query,
		stored.ID,
		stored.Type,
		parentID,
		groupID,
		fieldsJSON,
		stored.CreatedAt,
	)
	if err != nil {
		return records.Record{}, err
	}

	return stored, nil
}

// Delete removes a record by ID.
func (r *RecordRepositoryPostgres) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM record_entries WHERE id = $1", id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrRecordNotFound
	}

	return nil
}

// Ping reports whether the backing database is reachable.
func (r *RecordRepositoryPostgres) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
