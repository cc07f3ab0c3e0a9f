package repository

import (
	"context"

	"github.com/pinsync/client/internal/records"
)

// Query describes one record fetch: a record type, optional equality filters,
// and the source-side sort on creation time.
type Query struct {
	RecordType string
	// ParentID filters comment records to one parent pin when non-empty.
	ParentID string
	// GroupID filters records to one group when non-empty.
	GroupID string
	// Ascending sorts oldest-first when true; the default is newest-first.
	Ascending bool
}

// RecordStore is the generic record-query/save/delete surface of one logical
// backing store. The reconciliation layer runs against two of these (private
// and public) and never assumes anything about what is behind them.
type RecordStore interface {
	Query(ctx context.Context, q Query) ([]records.Record, error)
	// Save persists the record and returns the stored copy. Records without
	// an ID get a server-assigned one; the returned record carries it along
	// with the store's creation metadata.
	Save(ctx context.Context, rec records.Record) (records.Record, error)
	Delete(ctx context.Context, id string) error
	// Ping reports reachability; the connectivity monitor edge-triggers
	// retry-queue flushes on it.
	Ping(ctx context.Context) error
}
