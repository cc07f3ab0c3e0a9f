package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinsync/client/internal/localstate"
	"github.com/pinsync/client/internal/records"
)

func pendingWrite(placeholderID string) records.PendingWrite {
	return records.PendingWrite{
		PlaceholderID: placeholderID,
		Store:         records.StorePrivate,
		Record:        records.Record{Type: records.TypePin, Fields: map[string]any{"userID": "u1"}},
	}
}

func TestRetryQueue(t *testing.T) {
	ctx := context.Background()

	t.Run("enqueue and drain", func(t *testing.T) {
		q, err := NewRetryQueue(ctx, localstate.NewMemoryStore(), nil)
		require.NoError(t, err)

		require.NoError(t, q.Enqueue(ctx, pendingWrite("temp.a")))
		require.NoError(t, q.Enqueue(ctx, pendingWrite("temp.b")))
		assert.Equal(t, 2, q.Len())

		drained := q.Drain(ctx)
		require.Len(t, drained, 2)
		assert.Equal(t, "temp.a", drained[0].PlaceholderID)
		assert.Equal(t, "temp.b", drained[1].PlaceholderID)
		assert.Equal(t, 0, q.Len())
	})

	t.Run("drain of an empty queue returns nothing", func(t *testing.T) {
		q, err := NewRetryQueue(ctx, localstate.NewMemoryStore(), nil)
		require.NoError(t, err)

		assert.Nil(t, q.Drain(ctx))
	})

	t.Run("queued payloads survive a reload", func(t *testing.T) {
		state := localstate.NewMemoryStore()

		q1, err := NewRetryQueue(ctx, state, nil)
		require.NoError(t, err)
		require.NoError(t, q1.Enqueue(ctx, pendingWrite("temp.a")))

		q2, err := NewRetryQueue(ctx, state, nil)
		require.NoError(t, err)
		require.Equal(t, 1, q2.Len())

		drained := q2.Drain(ctx)
		require.Len(t, drained, 1)
		assert.Equal(t, "temp.a", drained[0].PlaceholderID)
		assert.Equal(t, records.StorePrivate, drained[0].Store)
	})

	t.Run("draining clears the persisted copy", func(t *testing.T) {
		state := localstate.NewMemoryStore()

		q1, err := NewRetryQueue(ctx, state, nil)
		require.NoError(t, err)
		require.NoError(t, q1.Enqueue(ctx, pendingWrite("temp.a")))
		q1.Drain(ctx)

		q2, err := NewRetryQueue(ctx, state, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, q2.Len())
	})
}
