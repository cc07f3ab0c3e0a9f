package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/pinsync/client/internal/models"
	"github.com/pinsync/client/internal/observability"
	"github.com/pinsync/client/internal/records"
	"github.com/pinsync/client/internal/repository"
)

// GroupService reads group memberships from the shared store. Memberships
// only ever live in the public store, so unlike the feed there is no merge;
// one query, mapped and sorted by join time.
type GroupService struct {
	public repository.RecordStore
}

// NewGroupService creates a group service over the public record store.
func NewGroupService(public repository.RecordStore) *GroupService {
	return &GroupService{public: public}
}

// Members returns the members of one group, ordered by join time.
func (s *GroupService) Members(ctx context.Context, groupID string) ([]models.GroupMember, error) {
	if groupID == "" {
		return nil, models.ErrEmptyGroupID
	}

	ctx, span := observability.StartServiceSpan(ctx, "GroupService", "Members")
	defer span.End()

	recs, err := s.public.Query(ctx, repository.Query{
		RecordType: records.TypeGroupMember,
		GroupID:    groupID,
		Ascending:  true,
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("failed to fetch group members: %w", err)
	}

	members := make([]models.GroupMember, 0, len(recs))
	seen := make(map[string]bool)
	for _, r := range recs {
		m, ok := records.GroupMemberFromRecord(r)
		if !ok {
			continue
		}
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		members = append(members, m)
	}

	sort.SliceStable(members, func(i, j int) bool {
		if members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].ID < members[j].ID
		}
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})

	observability.SetSuccess(span)
	return members, nil
}
