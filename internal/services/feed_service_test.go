package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinsync/client/internal/localstate"
	"github.com/pinsync/client/internal/models"
	"github.com/pinsync/client/internal/records"
)

func newTestFeed(t *testing.T, private, public *fakeStore) (*FeedService, localstate.Store) {
	t.Helper()

	state := localstate.NewMemoryStore()
	queue, err := NewRetryQueue(context.Background(), state, nil)
	require.NoError(t, err)

	svc, err := NewFeedService(private, public, state, queue, nil, nil, time.Second)
	require.NoError(t, err)
	return svc, state
}

func newTestPin(t *testing.T, userID, groupID string) *models.Pin {
	t.Helper()

	pin, err := models.NewPin(userID, "Tester", groupID, 40.7, -74.0,
		models.Ratings{TP: 3, Cleanliness: 4, Privacy: 5, Plumbing: 2, OverallVibes: 4},
		"decent", "midtown", models.DefaultColor, "")
	require.NoError(t, err)
	return pin
}

func feedIDs(svc *FeedService) []string {
	pins := svc.Pins()
	ids := make([]string, len(pins))
	for i, p := range pins {
		ids[i] = p.ID
	}
	return ids
}

func TestFeedService_Refresh(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("merges both stores newest first", func(t *testing.T) {
		private := newFakeStore(pinRecord("p1", "u1", base.Add(10*time.Minute), nil))
		public := newFakeStore(pinRecord("p2", "u2", base.Add(20*time.Minute), map[string]any{"groupID": "g1"}))
		svc, _ := newTestFeed(t, private, public)

		svc.Refresh(context.Background())

		assert.Equal(t, []string{"p2", "p1"}, feedIDs(svc))
	})

	t.Run("deduplicates records that appear in both stores", func(t *testing.T) {
		rec := pinRecord("dup", "u1", base, nil)
		svc, _ := newTestFeed(t, newFakeStore(rec), newFakeStore(rec))

		svc.Refresh(context.Background())

		assert.Equal(t, []string{"dup"}, feedIDs(svc))
	})

	t.Run("never produces duplicate ids", func(t *testing.T) {
		legacy := pinRecord("p1", "u1", base, map[string]any{"userColor": "#FF0000"})
		legacy.Type = records.TypeLegacyPin
		private := newFakeStore(pinRecord("p1", "u1", base, nil), legacy)
		svc, _ := newTestFeed(t, private, newFakeStore())

		svc.Refresh(context.Background())

		seen := map[string]bool{}
		for _, id := range feedIDs(svc) {
			assert.False(t, seen[id], "duplicate id %s", id)
			seen[id] = true
		}
	})

	t.Run("is idempotent over the same inputs", func(t *testing.T) {
		private := newFakeStore(
			pinRecord("a", "u1", base.Add(time.Minute), nil),
			pinRecord("b", "u1", base.Add(time.Minute), nil),
			pinRecord("c", "u1", base, nil),
		)
		svc, _ := newTestFeed(t, private, newFakeStore())

		svc.Refresh(context.Background())
		first := feedIDs(svc)
		svc.Refresh(context.Background())

		assert.Equal(t, first, feedIDs(svc))
	})

	t.Run("maps the legacy schema", func(t *testing.T) {
		legacy := pinRecord("old1", "u1", base, map[string]any{"userColor": "#FF0000"})
		legacy.Type = records.TypeLegacyPin
		svc, _ := newTestFeed(t, newFakeStore(legacy), newFakeStore())

		svc.Refresh(context.Background())

		pins := svc.Pins()
		require.Len(t, pins, 1)
		assert.Equal(t, "#FF0000", pins[0].Color.Hex())
	})

	t.Run("a failed branch contributes nothing and aborts nothing", func(t *testing.T) {
		private := newFakeStore(pinRecord("p1", "u1", base, nil))
		public := newFakeStore()
		public.setQueryErr(errors.New("store unavailable"))
		svc, _ := newTestFeed(t, private, public)

		svc.Refresh(context.Background())

		assert.Equal(t, []string{"p1"}, feedIDs(svc))
	})

	t.Run("drops unmappable records silently", func(t *testing.T) {
		broken := pinRecord("bad", "u1", base, nil)
		delete(broken.Fields, "userName")
		svc, _ := newTestFeed(t, newFakeStore(broken, pinRecord("ok", "u1", base, nil)), newFakeStore())

		svc.Refresh(context.Background())

		assert.Equal(t, []string{"ok"}, feedIDs(svc))
	})
}

func TestFeedService_AddPin(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("placeholder appears immediately and reconciles to the server id", func(t *testing.T) {
		private := newFakeStore(
			pinRecord("p1", "u1", base.Add(10*time.Minute), nil),
			pinRecord("p2", "u1", base.Add(20*time.Minute), nil),
		)
		svc, state := newTestFeed(t, private, newFakeStore())
		svc.Refresh(context.Background())

		gate := make(chan struct{})
		private.mu.Lock()
		private.saveGate = gate
		private.nextID = "p3-server"
		private.mu.Unlock()

		pin := newTestPin(t, "u1", "")
		require.NoError(t, svc.AddPin(context.Background(), pin))
		assert.True(t, pin.IsPlaceholder())

		// Before the save lands the placeholder leads the feed.
		assert.Equal(t, []string{pin.ID, "p2", "p1"}, feedIDs(svc))

		close(gate)

		assert.Eventually(t, func() bool {
			ids := feedIDs(svc)
			return len(ids) == 3 && ids[0] == "p3-server"
		}, 2*time.Second, 10*time.Millisecond)

		for _, id := range feedIDs(svc) {
			assert.NotEqual(t, pin.ID, id)
		}

		// The durable backup is gone once the save is confirmed.
		_, err := state.Get(context.Background(), pinBackupsKey)
		assert.ErrorIs(t, err, localstate.ErrNotFound)
	})

	t.Run("routes group pins to the public store", func(t *testing.T) {
		private := newFakeStore()
		public := newFakeStore()
		svc, _ := newTestFeed(t, private, public)

		public.setNextID("shared-1")
		require.NoError(t, svc.AddPin(context.Background(), newTestPin(t, "u1", "g1")))

		assert.Eventually(t, func() bool {
			return public.contains("shared-1")
		}, 2*time.Second, 10*time.Millisecond)
		assert.False(t, private.contains("shared-1"))
	})

	t.Run("failed save queues the payload and keeps the placeholder durable", func(t *testing.T) {
		private := newFakeStore()
		private.setSaveErr(errors.New("offline"))
		svc, state := newTestFeed(t, private, newFakeStore())

		pin := newTestPin(t, "u1", "")
		require.NoError(t, svc.AddPin(context.Background(), pin))

		assert.Eventually(t, func() bool {
			return svc.PendingWrites() == 1
		}, 2*time.Second, 10*time.Millisecond)

		// Placeholder still visible, backup still persisted.
		assert.Equal(t, []string{pin.ID}, feedIDs(svc))
		_, err := state.Get(context.Background(), pinBackupsKey)
		assert.NoError(t, err)
	})
}

func TestFeedService_OnConnectivityRestored(t *testing.T) {
	t.Run("flush reconciles the placeholder and drops the backup", func(t *testing.T) {
		private := newFakeStore()
		private.setSaveErr(errors.New("offline"))
		svc, state := newTestFeed(t, private, newFakeStore())

		pin := newTestPin(t, "u1", "")
		require.NoError(t, svc.AddPin(context.Background(), pin))
		require.Eventually(t, func() bool {
			return svc.PendingWrites() == 1
		}, 2*time.Second, 10*time.Millisecond)

		private.setSaveErr(nil)
		private.setNextID("p4-server")
		svc.OnConnectivityRestored(context.Background())

		assert.Equal(t, []string{"p4-server"}, feedIDs(svc))
		assert.Equal(t, 0, svc.PendingWrites())

		_, err := state.Get(context.Background(), pinBackupsKey)
		assert.ErrorIs(t, err, localstate.ErrNotFound)
	})

	t.Run("still-failing payloads go back on the queue", func(t *testing.T) {
		private := newFakeStore()
		private.setSaveErr(errors.New("offline"))
		svc, _ := newTestFeed(t, private, newFakeStore())

		pin := newTestPin(t, "u1", "")
		require.NoError(t, svc.AddPin(context.Background(), pin))
		require.Eventually(t, func() bool {
			return svc.PendingWrites() == 1
		}, 2*time.Second, 10*time.Millisecond)

		svc.OnConnectivityRestored(context.Background())

		assert.Equal(t, 1, svc.PendingWrites())
		assert.Equal(t, []string{pin.ID}, feedIDs(svc))
	})
}

func TestFeedService_DeletePin(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("removes the pin and deletes it remotely", func(t *testing.T) {
		private := newFakeStore(pinRecord("p1", "u1", base, nil))
		svc, _ := newTestFeed(t, private, newFakeStore())
		svc.Refresh(context.Background())

		require.NoError(t, svc.DeletePin(context.Background(), "p1"))

		assert.Empty(t, svc.Pins())
		assert.False(t, private.contains("p1"))
	})

	t.Run("rolls the pin back on remote failure", func(t *testing.T) {
		private := newFakeStore(
			pinRecord("p1", "u1", base.Add(10*time.Minute), nil),
			pinRecord("p2", "u1", base.Add(20*time.Minute), nil),
			pinRecord("p3", "u1", base.Add(30*time.Minute), nil),
		)
		svc, _ := newTestFeed(t, private, newFakeStore())
		svc.Refresh(context.Background())
		before := svc.Pins()

		private.setDeleteErr(errors.New("store rejected delete"))
		err := svc.DeletePin(context.Background(), "p2")

		require.Error(t, err)
		assert.Equal(t, before, svc.Pins())
	})

	t.Run("unknown id reports not found", func(t *testing.T) {
		svc, _ := newTestFeed(t, newFakeStore(), newFakeStore())

		err := svc.DeletePin(context.Background(), "nope")

		assert.ErrorIs(t, err, models.ErrPinNotFound)
	})
}

func TestFeedService_RestoresPendingPinsAcrossRestarts(t *testing.T) {
	state := localstate.NewMemoryStore()
	private := newFakeStore()
	private.setSaveErr(errors.New("offline"))

	queue, err := NewRetryQueue(context.Background(), state, nil)
	require.NoError(t, err)
	svc, err := NewFeedService(private, newFakeStore(), state, queue, nil, nil, time.Second)
	require.NoError(t, err)

	pin := newTestPin(t, "u1", "")
	require.NoError(t, svc.AddPin(context.Background(), pin))
	require.Eventually(t, func() bool {
		return svc.PendingWrites() == 1
	}, 2*time.Second, 10*time.Millisecond)

	// A fresh service over the same state sees the unconfirmed pin and the
	// queued payload.
	queue2, err := NewRetryQueue(context.Background(), state, nil)
	require.NoError(t, err)
	svc2, err := NewFeedService(private, newFakeStore(), state, queue2, nil, nil, time.Second)
	require.NoError(t, err)

	assert.Equal(t, []string{pin.ID}, feedIDs(svc2))
	assert.Equal(t, 1, svc2.PendingWrites())

	// Flushing on the fresh service completes the original write.
	private.setSaveErr(nil)
	private.setNextID("p5-server")
	svc2.OnConnectivityRestored(context.Background())

	assert.Equal(t, []string{"p5-server"}, feedIDs(svc2))
	assert.Equal(t, 0, svc2.PendingWrites())
}

func TestFeedService_PendingPinSurvivesRefresh(t *testing.T) {
	private := newFakeStore()
	private.setSaveErr(errors.New("offline"))
	svc, _ := newTestFeed(t, private, newFakeStore())

	pin := newTestPin(t, "u1", "")
	require.NoError(t, svc.AddPin(context.Background(), pin))
	require.Eventually(t, func() bool {
		return svc.PendingWrites() == 1
	}, 2*time.Second, 10*time.Millisecond)

	svc.Refresh(context.Background())

	assert.Contains(t, feedIDs(svc), pin.ID)
}

func TestFeedService_Subscribe(t *testing.T) {
	private := newFakeStore()
	private.setNextID("p1-server")
	svc, _ := newTestFeed(t, private, newFakeStore())

	var mu sync.Mutex
	var counts []int
	svc.Subscribe(func(pinCount int) {
		mu.Lock()
		counts = append(counts, pinCount)
		mu.Unlock()
	})

	require.NoError(t, svc.AddPin(context.Background(), newTestPin(t, "u1", "")))

	// Fires once for the optimistic insert and once more when the save
	// confirms; the count stays 1 throughout.
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(counts) >= 2
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for _, c := range counts {
		assert.Equal(t, 1, c)
	}
}
