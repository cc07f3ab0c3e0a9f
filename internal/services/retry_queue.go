package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/pinsync/client/internal/localstate"
	"github.com/pinsync/client/internal/observability"
	"github.com/pinsync/client/internal/records"
)

// retryQueueKey is the localstate key the queue persists under.
const retryQueueKey = "retry_queue"

// RetryQueue holds write payloads that failed their first remote save. Items
// stay queued until a flush succeeds; there is no backoff and no drop policy.
// The queue is persisted on every mutation so pending writes survive restarts.
type RetryQueue struct {
	state   localstate.Store
	metrics *observability.SyncMetrics

	mu    sync.Mutex
	items []records.PendingWrite
}

// NewRetryQueue creates a queue backed by the given local state store and
// reloads any payloads persisted by a previous run.
func NewRetryQueue(ctx context.Context, state localstate.Store, metrics *observability.SyncMetrics) (*RetryQueue, error) {
	q := &RetryQueue{state: state, metrics: metrics}

	data, err := state.Get(ctx, retryQueueKey)
	if err != nil {
		if errors.Is(err, localstate.ErrNotFound) {
			return q, nil
		}
		return nil, fmt.Errorf("failed to load retry queue: %w", err)
	}
	if err := json.Unmarshal(data, &q.items); err != nil {
		return nil, fmt.Errorf("failed to decode retry queue: %w", err)
	}
	q.metrics.QueueDepthChanged(ctx, int64(len(q.items)))
	return q, nil
}

// Enqueue appends a pending write and persists the queue.
func (q *RetryQueue) Enqueue(ctx context.Context, pw records.PendingWrite) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = append(q.items, pw)
	q.metrics.QueueDepthChanged(ctx, 1)
	return q.persistLocked(ctx)
}

// Drain removes and returns every queued payload. Callers re-enqueue the
// payloads whose retry fails.
func (q *RetryQueue) Drain(ctx context.Context) []records.PendingWrite {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}
	drained := q.items
	q.items = nil
	q.metrics.QueueDepthChanged(ctx, -int64(len(drained)))
	if err := q.persistLocked(ctx); err != nil {
		observability.Warnf("Failed to persist drained retry queue: %v", err)
	}
	return drained
}

// Len reports the number of queued payloads.
func (q *RetryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *RetryQueue) persistLocked(ctx context.Context) error {
	if len(q.items) == 0 {
		if err := q.state.Delete(ctx, retryQueueKey); err != nil {
			return fmt.Errorf("failed to clear retry queue: %w", err)
		}
		return nil
	}

	data, err := json.Marshal(q.items)
	if err != nil {
		return fmt.Errorf("failed to encode retry queue: %w", err)
	}
	if err := q.state.Set(ctx, retryQueueKey, data); err != nil {
		return fmt.Errorf("failed to persist retry queue: %w", err)
	}
	return nil
}
