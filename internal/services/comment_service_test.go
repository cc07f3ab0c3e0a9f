package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinsync/client/internal/models"
)

func newTestComment(t *testing.T, pinID, text string) *models.Comment {
	t.Helper()

	c, err := models.NewComment(pinID, "u1", "Tester", text)
	require.NoError(t, err)
	return c
}

func TestCommentService_Refresh(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("merges both stores oldest first", func(t *testing.T) {
		private := newFakeStore(commentRecord("c2", "pinA", "second", base.Add(time.Minute)))
		public := newFakeStore(commentRecord("c1", "pinA", "first", base))
		svc := NewCommentService(private, public, nil)

		svc.Refresh(context.Background(), "pinA")

		thread := svc.Comments("pinA")
		require.Len(t, thread, 2)
		assert.Equal(t, "c1", thread[0].ID)
		assert.Equal(t, "c2", thread[1].ID)
	})

	t.Run("never mixes threads of different pins", func(t *testing.T) {
		private := newFakeStore(
			commentRecord("a1", "pinA", "on A", base),
			commentRecord("b1", "pinB", "on B", base),
		)
		svc := NewCommentService(private, newFakeStore(), nil)

		svc.Refresh(context.Background(), "pinA")

		for _, c := range svc.Comments("pinA") {
			assert.Equal(t, "pinA", c.PinID)
		}
	})

	t.Run("drops cross-scoped records the store filter leaked", func(t *testing.T) {
		private := newFakeStore(
			commentRecord("a1", "pinA", "on A", base),
			commentRecord("b1", "pinB", "on B", base),
		)
		private.ignoreParentFilter = true
		svc := NewCommentService(private, newFakeStore(), nil)

		svc.Refresh(context.Background(), "pinA")

		thread := svc.Comments("pinA")
		require.Len(t, thread, 1)
		assert.Equal(t, "a1", thread[0].ID)
	})

	t.Run("deduplicates across stores", func(t *testing.T) {
		rec := commentRecord("c1", "pinA", "hello", base)
		svc := NewCommentService(newFakeStore(rec), newFakeStore(rec), nil)

		svc.Refresh(context.Background(), "pinA")

		assert.Len(t, svc.Comments("pinA"), 1)
	})

	t.Run("a failed store contributes nothing", func(t *testing.T) {
		private := newFakeStore(commentRecord("c1", "pinA", "hello", base))
		public := newFakeStore()
		public.setQueryErr(errors.New("store unavailable"))
		svc := NewCommentService(private, public, nil)

		svc.Refresh(context.Background(), "pinA")

		assert.Len(t, svc.Comments("pinA"), 1)
	})
}

func TestCommentService_AddComment(t *testing.T) {
	t.Run("saves to the shared store and adopts the server id", func(t *testing.T) {
		public := newFakeStore()
		public.setNextID("c-server")
		svc := NewCommentService(newFakeStore(), public, nil)

		comment := newTestComment(t, "pinA", "nice spot")
		require.NoError(t, svc.AddComment(context.Background(), comment, ""))

		thread := svc.Comments("pinA")
		require.Len(t, thread, 1)
		assert.Equal(t, "c-server", thread[0].ID)
		assert.Equal(t, "nice spot", thread[0].Text)
	})

	t.Run("falls back to the private store", func(t *testing.T) {
		private := newFakeStore()
		public := newFakeStore()
		public.setSaveErr(errors.New("quota exceeded"))
		svc := NewCommentService(private, public, nil)

		comment := newTestComment(t, "pinA", "fallback")
		require.NoError(t, svc.AddComment(context.Background(), comment, ""))

		assert.Len(t, svc.Comments("pinA"), 1)
		private.mu.Lock()
		assert.Len(t, private.recs, 1)
		private.mu.Unlock()
	})

	t.Run("rolls back when both stores fail", func(t *testing.T) {
		private := newFakeStore()
		private.setSaveErr(errors.New("offline"))
		public := newFakeStore()
		public.setSaveErr(errors.New("offline"))
		svc := NewCommentService(private, public, nil)

		comment := newTestComment(t, "pinA", "doomed")
		err := svc.AddComment(context.Background(), comment, "")

		require.Error(t, err)
		assert.Empty(t, svc.Comments("pinA"))
	})
}
