package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pinsync/client/internal/records"
	"github.com/pinsync/client/internal/repository"
)

// fakeStore is an in-memory RecordStore with scriptable failures. Tests poke
// its error fields through the setters to simulate offline stores, and the
// save gate lets a test observe the feed while a save is still in flight.
type fakeStore struct {
	mu   sync.Mutex
	recs []records.Record

	queryErr  error
	saveErr   error
	deleteErr error
	pingErr   error

	// nextID is consumed by the next Save of a record without an ID.
	nextID string
	seq    int

	// saveGate, when set, blocks Save until the channel is closed.
	saveGate chan struct{}

	// ignoreParentFilter makes Query skip parent scoping, simulating a store
	// whose predicate leaks cross-scoped records.
	ignoreParentFilter bool
}

func newFakeStore(recs ...records.Record) *fakeStore {
	return &fakeStore{recs: recs}
}

func (f *fakeStore) Query(ctx context.Context, q repository.Query) ([]records.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.queryErr != nil {
		return nil, f.queryErr
	}

	var out []records.Record
	for _, r := range f.recs {
		if r.Type != q.RecordType {
			continue
		}
		if q.ParentID != "" && !f.ignoreParentFilter {
			if pinID, _ := r.Fields["pinID"].(string); pinID != q.ParentID {
				continue
			}
		}
		if q.GroupID != "" {
			if groupID, _ := r.Fields["groupID"].(string); groupID != q.GroupID {
				continue
			}
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if q.Ascending {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeStore) Save(ctx context.Context, rec records.Record) (records.Record, error) {
	f.mu.Lock()
	gate := f.saveGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.saveErr != nil {
		return records.Record{}, f.saveErr
	}

	stored := rec
	if stored.ID == "" {
		if f.nextID != "" {
			stored.ID = f.nextID
			f.nextID = ""
		} else {
			f.seq++
			stored.ID = fmt.Sprintf("srv-%d", f.seq)
		}
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	f.recs = append(f.recs, stored)
	return stored, nil
}

func (f *fakeStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i := range f.recs {
		if f.recs[i].ID == id {
			f.recs = append(f.recs[:i], f.recs[i+1:]...)
			return nil
		}
	}
	return repository.ErrRecordNotFound
}

func (f *fakeStore) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pingErr
}

func (f *fakeStore) setSaveErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveErr = err
}

func (f *fakeStore) setQueryErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryErr = err
}

func (f *fakeStore) setDeleteErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteErr = err
}

func (f *fakeStore) setPingErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pingErr = err
}

func (f *fakeStore) setNextID(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID = id
}

func (f *fakeStore) contains(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.recs {
		if r.ID == id {
			return true
		}
	}
	return false
}

// pinRecord builds a store record that maps to a valid pin.
func pinRecord(id, userID string, createdAt time.Time, extra map[string]any) records.Record {
	fields := map[string]any{
		"userID":    userID,
		"userName":  "Tester",
		"latitude":  40.7,
		"longitude": -74.0,
		"createdAt": createdAt,
	}
	for k, v := range extra {
		fields[k] = v
	}
	return records.Record{
		ID:        id,
		Type:      records.TypePin,
		CreatedAt: createdAt,
		Fields:    fields,
	}
}

// commentRecord builds a store record that maps to a valid comment.
func commentRecord(id, pinID, text string, createdAt time.Time) records.Record {
	return records.Record{
		ID:        id,
		Type:      records.TypeComment,
		CreatedAt: createdAt,
		Fields: map[string]any{
			"pinID":     pinID,
			"userID":    "u1",
			"userName":  "Tester",
			"text":      text,
			"createdAt": createdAt,
		},
	}
}
