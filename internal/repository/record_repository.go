package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/pinsync/client/internal/records"
)

// StoreError is a store-level failure the caller can match on.
type StoreError string

func (e StoreError) Error() string { return string(e) }

// ErrRecordNotFound indicates a delete targeted a record the store does not
// hold. Surfaced so the optimistic-delete path can roll back.
const ErrRecordNotFound StoreError = "record not found"

// RecordRepository is the SQLite-backed RecordStore.
type RecordRepository struct {
	db *sql.DB
}

// NewRecordRepository creates a new RecordRepository
func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Query retrieves records of one type, optionally filtered, sorted by
// creation time at the source.
func (r *RecordRepository) Query(ctx context.Context, q Query) ([]records.Record, error) {
	query := `SELECT id, record_type, fields, created_at FROM record_entries WHERE record_type = ?`
	args := []any{q.RecordType}

	if q.ParentID != "" {
		query += ` AND parent_id = ?`
		args = append(args, q.ParentID)
	}
	if q.GroupID != "" {
		query += ` AND group_id = ?`
		args = append(args, q.GroupID)
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
func (r *RecordRepository) Save(ctx context.Context, rec records.Record) (records.Record, error) {
	stored, fieldsJSON, err := prepareForSave(rec)
	if err != nil {
		return records.Record{}, err
	}

	query := `
		INSERT INTO record_entries (id, record_type, parent_id, group_id, fields, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
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
func (r *RecordRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM record_entries WHERE id = ?", id)
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
func (r *RecordRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// prepareForSave fills in server-side identity and creation metadata and
// serializes the open field set.
func prepareForSave(rec records.Record) (records.Record, []byte, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	fieldsJSON, err := json.Marshal(rec.Fields)
	if err != nil {
		return records.Record{}, nil, err
	}
	return rec, fieldsJSON, nil
}

// promotedFields extracts the values mirrored into indexed columns.
func promotedFields(rec records.Record) (parentID, groupID sql.NullString) {
	if v, ok := rec.Fields["pinID"].(string); ok && v != "" {
		parentID = sql.NullString{String: v, Valid: true}
	}
	if v, ok := rec.Fields["groupID"].(string); ok && v != "" {
		groupID = sql.NullString{String: v, Valid: true}
	}
	return parentID, groupID
}

func scanRecords(rows *sql.Rows) ([]records.Record, error) {
	var result []records.Record
	for rows.Next() {
		var (
			rec        records.Record
			fieldsJSON []byte
		)
		if err := rows.Scan(&rec.ID, &rec.Type, &fieldsJSON, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(fieldsJSON, &rec.Fields); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}

	if result == nil {
		result = []records.Record{}
	}

	return result, rows.Err()
}
