package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pinsync/client/internal/localstate"
	"github.com/pinsync/client/internal/models"
	"github.com/pinsync/client/internal/observability"
	"github.com/pinsync/client/internal/records"
	"github.com/pinsync/client/internal/repository"
)

// pinBackupsKey is the localstate key holding the not-yet-confirmed pins,
// keyed by placeholder ID. A pin stays in this blob from the moment addPin
// accepts it until a remote save confirms it.
const pinBackupsKey = "pending_pins"

// FeedService owns the canonical pin feed. It merges four query branches
// (two record schemas across two stores) plus the locally backed-up pending
// pins into one deduplicated newest-first list, and serializes every feed
// mutation behind one mutex: merge-replace, optimistic insert, reconcile by
// placeholder ID, and rollback on delete failure.
type FeedService struct {
	private repository.RecordStore
	public  repository.RecordStore
	state   localstate.Store
	queue   *RetryQueue
	hub     *EventHub
	metrics *observability.SyncMetrics

	saveTimeout time.Duration

	mu   sync.RWMutex
	pins []models.Pin

	// backupMu serializes read-modify-write cycles on the backup blob.
	backupMu sync.Mutex

	subMu       sync.Mutex
	subscribers []func(pinCount int)
}

// NewFeedService creates a feed service over the two record stores. Pending
// pins persisted by a previous run are restored into the feed immediately so
// unconfirmed writes stay visible across restarts.
func NewFeedService(
	private repository.RecordStore,
	public repository.RecordStore,
	state localstate.Store,
	queue *RetryQueue,
	hub *EventHub,
	metrics *observability.SyncMetrics,
	saveTimeout time.Duration,
) (*FeedService, error) {
	if saveTimeout <= 0 {
		saveTimeout = 30 * time.Second
	}
	s := &FeedService{
		private:     private,
		public:      public,
		state:       state,
		queue:       queue,
		hub:         hub,
		metrics:     metrics,
		saveTimeout: saveTimeout,
	}

	backups, err := s.loadBackups(context.Background())
	if err != nil {
		return nil, err
	}
	for _, p := range backups {
		s.pins = append(s.pins, p)
	}
	sortPinsNewestFirst(s.pins)
	return s, nil
}

// Subscribe registers a callback invoked after every feed change with the
// new pin count. Callbacks run synchronously on the mutating goroutine and
// must not call back into the service.
func (s *FeedService) Subscribe(fn func(pinCount int)) {
	if fn == nil {
		return
	}
	s.subMu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.subMu.Unlock()
}

// notifyFeedChanged fans a feed change out to the hub and the in-process
// subscribers.
func (s *FeedService) notifyFeedChanged(count int) {
	s.hub.FeedUpdated(count)

	s.subMu.Lock()
	subs := make([]func(int), len(s.subscribers))
	copy(subs, s.subscribers)
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(count)
	}
}

// Pins returns a snapshot of the canonical feed, newest first.
func (s *FeedService) Pins() []models.Pin {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Pin, len(s.pins))
	copy(out, s.pins)
	return out
}

// Refresh rebuilds the canonical feed from both stores.
//
// All four (schema, store) queries run concurrently; a failed branch
// contributes zero records and only produces a log line, never an aggregate
// error. Mapped pins are deduplicated by ID with the first occurrence
// winning, unioned with pending local pins not already present, sorted
// newest first, and published atomically.
func (s *FeedService) Refresh(ctx context.Context) {
	ctx, span := observability.StartServiceSpan(ctx, "FeedService", "Refresh")
	defer span.End()

	branches := []struct {
		store      repository.RecordStore
		kind       records.StoreKind
		recordType string
	}{
		{s.private, records.StorePrivate, records.TypePin},
		{s.private, records.StorePrivate, records.TypeLegacyPin},
		{s.public, records.StorePublic, records.TypePin},
		{s.public, records.StorePublic, records.TypeLegacyPin},
	}

	results := make([][]models.Pin, len(branches))
	failures := make([]error, len(branches))

	var wg sync.WaitGroup
	for i, b := range branches {
		wg.Add(1)
		go func(i int, store repository.RecordStore, kind records.StoreKind, recordType string) {
			defer wg.Done()

			recs, err := store.Query(ctx, repository.Query{RecordType: recordType})
			if err != nil {
				failures[i] = err
				observability.WithFields(map[string]interface{}{
					"store":      string(kind),
					"recordType": recordType,
				}).Warnf("Feed query branch failed: %v", err)
				return
			}

			pins := make([]models.Pin, 0, len(recs))
			for _, r := range recs {
				if p, ok := records.PinFromRecord(r); ok {
					pins = append(pins, p)
				}
			}
			results[i] = pins
		}(i, b.store, b.kind, b.recordType)
	}
	wg.Wait()

	failed := 0
	for _, err := range failures {
		if err != nil {
			failed++
		}
	}
	s.metrics.RecordRefresh(ctx, failed)

	seen := make(map[string]bool)
	merged := make([]models.Pin, 0)
	for _, pins := range results {
		for _, p := range pins {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			merged = append(merged, p)
		}
	}

	backups, err := s.loadBackups(ctx)
	if err != nil {
		observability.Warnf("Failed to load pending pin backups: %v", err)
	}
	for _, p := range backups {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		merged = append(merged, p)
	}

	sortPinsNewestFirst(merged)

	s.mu.Lock()
	s.pins = merged
	count := len(s.pins)
	s.mu.Unlock()

	observability.SetSuccess(span)
	s.notifyFeedChanged(count)
}

// AddPin inserts the pin into the feed immediately and saves it to its
// routed store in the background. The pin must already carry a placeholder
// ID; callers perceive zero latency, and durability is handled by the
// reconcile/retry machinery.
func (s *FeedService) AddPin(ctx context.Context, pin *models.Pin) error {
	if pin == nil {
		return models.ErrPinNotFound
	}

	if err := s.saveBackup(ctx, *pin); err != nil {
		observability.Warnf("Failed to back up pending pin %s: %v", pin.ID, err)
	}

	s.mu.Lock()
	s.pins = append([]models.Pin{*pin}, s.pins...)
	count := len(s.pins)
	s.mu.Unlock()
	s.notifyFeedChanged(count)

	pw := records.PendingWrite{
		PlaceholderID: pin.ID,
		Store:         records.RouteStore(pin.GroupID),
		Record:        records.NewPinRecord(pin),
	}
	go s.saveAndReconcile(pw)

	return nil
}

// DeletePin removes the pin from the feed immediately, then deletes it from
// the store it routes to. A failed remote delete reinserts the pin at its
// former position and returns the error.
func (s *FeedService) DeletePin(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := -1
	for i := range s.pins {
		if s.pins[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return models.ErrPinNotFound
	}
	removed := s.pins[idx]
	s.pins = append(s.pins[:idx], s.pins[idx+1:]...)
	count := len(s.pins)
	s.mu.Unlock()
	s.notifyFeedChanged(count)

	kind := records.RouteStore(removed.GroupID)
	ctx, span := observability.StartStoreSpan(ctx, "delete", string(kind), records.TypePin)
	defer span.End()

	if err := s.storeFor(kind).Delete(ctx, id); err != nil {
		observability.RecordError(span, err)

		s.mu.Lock()
		if idx > len(s.pins) {
			idx = len(s.pins)
		}
		s.pins = append(s.pins[:idx], append([]models.Pin{removed}, s.pins[idx:]...)...)
		count = len(s.pins)
		s.mu.Unlock()
		s.notifyFeedChanged(count)

		return fmt.Errorf("failed to delete pin %s: %w", id, err)
	}

	observability.SetSuccess(span)
	s.removeBackup(ctx, id)
	return nil
}

// OnConnectivityRestored flushes the retry queue. Each drained payload is
// retried independently; successes reconcile into the feed, failures go
// straight back on the queue for the next connectivity transition.
func (s *FeedService) OnConnectivityRestored(ctx context.Context) {
	items := s.queue.Drain(ctx)
	if len(items) == 0 {
		return
	}
	observability.Infof("Connectivity restored, retrying %d pending writes", len(items))

	var wg sync.WaitGroup
	for _, pw := range items {
		wg.Add(1)
		go func(pw records.PendingWrite) {
			defer wg.Done()

			saveCtx, cancel := context.WithTimeout(ctx, s.saveTimeout)
			defer cancel()

			stored, err := s.storeFor(pw.Store).Save(saveCtx, pw.Record)
			s.metrics.RecordRetryAttempt(ctx, err == nil)
			if err != nil {
				observability.Warnf("Retry save for %s failed: %v", pw.PlaceholderID, err)
				if qerr := s.queue.Enqueue(ctx, pw); qerr != nil {
					observability.Errorf("Failed to re-enqueue pending write %s: %v", pw.PlaceholderID, qerr)
				}
				return
			}
			s.confirm(ctx, pw.PlaceholderID, stored)
		}(pw)
	}
	wg.Wait()
}

// PendingWrites reports the current retry queue depth.
func (s *FeedService) PendingWrites() int {
	return s.queue.Len()
}

func (s *FeedService) saveAndReconcile(pw records.PendingWrite) {
	ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
	defer cancel()

	ctx, span := observability.StartStoreSpan(ctx, "save", string(pw.Store), pw.Record.Type)
	defer span.End()

	stored, err := s.storeFor(pw.Store).Save(ctx, pw.Record)
	s.metrics.RecordPinWrite(ctx, string(pw.Store), err == nil)
	if err != nil {
		observability.RecordError(span, err)
		observability.Warnf("Remote save for %s failed, queuing for retry: %v", pw.PlaceholderID, err)
		if qerr := s.queue.Enqueue(ctx, pw); qerr != nil {
			observability.Errorf("Failed to enqueue pending write %s: %v", pw.PlaceholderID, qerr)
		}
		return
	}

	observability.SetSuccess(span)
	s.confirm(ctx, pw.PlaceholderID, stored)
}

// confirm swaps the placeholder feed entry for the server-confirmed pin. If
// the placeholder is gone (a refresh replaced the feed in between) the
// confirmed pin is inserted at the front instead. The durable backup for the
// placeholder is dropped either way.
func (s *FeedService) confirm(ctx context.Context, placeholderID string, stored records.Record) {
	confirmed, ok := records.PinFromRecord(stored)

	s.mu.Lock()
	idx := -1
	for i := range s.pins {
		if s.pins[i].ID == placeholderID {
			idx = i
			break
		}
	}
	switch {
	case idx >= 0 && ok:
		s.pins[idx] = confirmed
	case idx >= 0:
		// The store returned a record our mapper rejects; keep the local
		// fields and adopt the server identity.
		s.pins[idx].ID = stored.ID
		if !stored.CreatedAt.IsZero() {
			s.pins[idx].CreatedAt = stored.CreatedAt
		}
	case ok:
		s.pins = append([]models.Pin{confirmed}, s.pins...)
	}
	count := len(s.pins)
	s.mu.Unlock()

	s.removeBackup(ctx, placeholderID)
	s.notifyFeedChanged(count)
}

func (s *FeedService) storeFor(kind records.StoreKind) repository.RecordStore {
	if kind == records.StorePublic {
		return s.public
	}
	return s.private
}

func (s *FeedService) loadBackups(ctx context.Context) (map[string]models.Pin, error) {
	s.backupMu.Lock()
	defer s.backupMu.Unlock()
	return s.readBackupsLocked(ctx)
}

func (s *FeedService) saveBackup(ctx context.Context, pin models.Pin) error {
	s.backupMu.Lock()
	defer s.backupMu.Unlock()

	backups, err := s.readBackupsLocked(ctx)
	if err != nil {
		return err
	}
	backups[pin.ID] = pin
	return s.writeBackupsLocked(ctx, backups)
}

func (s *FeedService) removeBackup(ctx context.Context, id string) {
	s.backupMu.Lock()
	defer s.backupMu.Unlock()

	backups, err := s.readBackupsLocked(ctx)
	if err != nil {
		observability.Warnf("Failed to load pin backups for removal: %v", err)
		return
	}
	if _, exists := backups[id]; !exists {
		return
	}
	delete(backups, id)
	if err := s.writeBackupsLocked(ctx, backups); err != nil {
		observability.Warnf("Failed to persist pin backups: %v", err)
	}
}

func (s *FeedService) readBackupsLocked(ctx context.Context) (map[string]models.Pin, error) {
	backups := make(map[string]models.Pin)

	data, err := s.state.Get(ctx, pinBackupsKey)
	if err != nil {
		if errors.Is(err, localstate.ErrNotFound) {
			return backups, nil
		}
		return nil, fmt.Errorf("failed to load pin backups: %w", err)
	}
	if err := json.Unmarshal(data, &backups); err != nil {
		return nil, fmt.Errorf("failed to decode pin backups: %w", err)
	}
	return backups, nil
}

func (s *FeedService) writeBackupsLocked(ctx context.Context, backups map[string]models.Pin) error {
	if len(backups) == 0 {
		return s.state.Delete(ctx, pinBackupsKey)
	}
	data, err := json.Marshal(backups)
	if err != nil {
		return fmt.Errorf("failed to encode pin backups: %w", err)
	}
	return s.state.Set(ctx, pinBackupsKey, data)
}

// sortPinsNewestFirst orders pins by creation time descending, breaking ties
// on ID so repeated merges of the same inputs produce the same order.
func sortPinsNewestFirst(pins []models.Pin) {
	sort.SliceStable(pins, func(i, j int) bool {
		if pins[i].CreatedAt.Equal(pins[j].CreatedAt) {
			return pins[i].ID < pins[j].ID
		}
		return pins[i].CreatedAt.After(pins[j].CreatedAt)
	})
}
