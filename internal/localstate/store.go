// Package localstate is the durable keyed blob store the reconciliation
// layer uses for offline durability: pins that have not yet round-tripped
// through a remote store, and the retry queue's pending payloads.
package localstate

import "context"

// Store is a simple keyed blob store. Backends differ in durability: the
// memory store is for tests and throwaway runs, SQLite and Redis survive
// restarts.
type Store interface {
	// Get retrieves a value by key. Returns ErrNotFound if absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes a value by key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// StateError is a localstate-level failure.
type StateError string

func (e StateError) Error() string { return string(e) }

const (
	// ErrNotFound indicates the key was not present.
	ErrNotFound StateError = "key not found"
)
