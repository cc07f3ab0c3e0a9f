package services

import (
	"context"
	"sort"
	"sync"

	"github.com/pinsync/client/internal/models"
	"github.com/pinsync/client/internal/observability"
	"github.com/pinsync/client/internal/records"
	"github.com/pinsync/client/internal/repository"
)

// CommentService owns the per-pin comment threads. Threads follow the same
// dual-store merge as the feed but narrowed to one parent pin, with no schema
// duplication and the opposite sort: oldest first, the way a thread reads.
type CommentService struct {
	private repository.RecordStore
	public  repository.RecordStore
	hub     *EventHub

	mu      sync.RWMutex
	threads map[string][]models.Comment
}

// NewCommentService creates a comment service over the two record stores.
func NewCommentService(private, public repository.RecordStore, hub *EventHub) *CommentService {
	return &CommentService{
		private: private,
		public:  public,
		hub:     hub,
		threads: make(map[string][]models.Comment),
	}
}

// Comments returns a snapshot of one pin's thread, oldest first.
func (s *CommentService) Comments(pinID string) []models.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	thread := s.threads[pinID]
	out := make([]models.Comment, len(thread))
	copy(out, thread)
	return out
}

// Refresh rebuilds one pin's thread from both stores.
//
// Both store queries run concurrently and fail independently. Every mapped
// comment's parent ID is checked against the requested pin even though the
// query already filters on it; a record that slips through store-side
// filtering must never land in the wrong thread. The merged thread replaces
// the cached one wholesale, which also clears any optimistic entry that has
// since round-tripped under a different ID.
func (s *CommentService) Refresh(ctx context.Context, pinID string) {
	ctx, span := observability.StartServiceSpan(ctx, "CommentService", "Refresh")
	defer span.End()

	stores := []struct {
		store repository.RecordStore
		kind  records.StoreKind
	}{
		{s.private, records.StorePrivate},
		{s.public, records.StorePublic},
	}

	results := make([][]models.Comment, len(stores))

	var wg sync.WaitGroup
	for i, b := range stores {
		wg.Add(1)
		go func(i int, store repository.RecordStore, kind records.StoreKind) {
			defer wg.Done()

			recs, err := store.Query(ctx, repository.Query{
				RecordType: records.TypeComment,
				ParentID:   pinID,
				Ascending:  true,
			})
			if err != nil {
				observability.WithField("store", string(kind)).Warnf("Comment query branch failed: %v", err)
				return
			}

			comments := make([]models.Comment, 0, len(recs))
			for _, r := range recs {
				c, ok := records.CommentFromRecord(r)
				if !ok {
					continue
				}
				if c.PinID != pinID {
					observability.Warnf("Dropping comment %s scoped to pin %s, requested %s", c.ID, c.PinID, pinID)
					continue
				}
				comments = append(comments, c)
			}
			results[i] = comments
		}(i, b.store, b.kind)
	}
	wg.Wait()

	seen := make(map[string]bool)
	merged := make([]models.Comment, 0)
	for _, comments := range results {
		for _, c := range comments {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			merged = append(merged, c)
		}
	}
	sortCommentsOldestFirst(merged)

	s.mu.Lock()
	s.threads[pinID] = merged
	s.mu.Unlock()

	observability.SetSuccess(span)
}

// FetchComments refreshes one pin's thread from both stores and returns the
// merged result, oldest first.
func (s *CommentService) FetchComments(ctx context.Context, pinID string) []models.Comment {
	s.Refresh(ctx, pinID)
	return s.Comments(pinID)
}

// AddComment appends the comment to its pin's thread immediately, then saves
// it to the shared store, falling back to the private store on failure. If
// both stores reject the write the optimistic entry is rolled back and the
// private store's error is returned.
func (s *CommentService) AddComment(ctx context.Context, comment *models.Comment, parentGroupID string) error {
	if comment == nil {
		return models.ErrEmptyCommentText
	}

	s.mu.Lock()
	s.threads[comment.PinID] = append(s.threads[comment.PinID], *comment)
	s.mu.Unlock()

	rec := records.NewCommentRecord(comment, parentGroupID)

	ctx, span := observability.StartStoreSpan(ctx, "save", string(records.StorePublic), records.TypeComment)
	defer span.End()

	stored, err := s.public.Save(ctx, rec)
	if err != nil {
		observability.Warnf("Public comment save failed, falling back to private store: %v", err)
		stored, err = s.private.Save(ctx, rec)
	}
	if err != nil {
		observability.RecordError(span, err)
		s.rollback(comment.PinID, comment.ID)
		return err
	}

	// Adopt the server identity so a later refetch deduplicates cleanly.
	s.mu.Lock()
	thread := s.threads[comment.PinID]
	for i := range thread {
		if thread[i].ID == comment.ID {
			thread[i].ID = stored.ID
			break
		}
	}
	s.mu.Unlock()

	observability.SetSuccess(span)
	s.hub.CommentAdded(comment.PinID, stored.ID)
	return nil
}

func (s *CommentService) rollback(pinID, commentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	thread := s.threads[pinID]
	for i := range thread {
		if thread[i].ID == commentID {
			s.threads[pinID] = append(thread[:i], thread[i+1:]...)
			return
		}
	}
}

func sortCommentsOldestFirst(comments []models.Comment) {
	sort.SliceStable(comments, func(i, j int) bool {
		if comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].ID < comments[j].ID
		}
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
}
