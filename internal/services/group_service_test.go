package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinsync/client/internal/models"
	"github.com/pinsync/client/internal/records"
)

func memberRecord(id, userID, groupID string, joinedAt time.Time) records.Record {
	return records.Record{
		ID:        id,
		Type:      records.TypeGroupMember,
		CreatedAt: joinedAt,
		Fields: map[string]any{
			"userID":   userID,
			"userName": "Member " + userID,
			"groupID":  groupID,
			"joinedAt": joinedAt,
		},
	}
}

func TestGroupService_Members(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("returns members ordered by join time", func(t *testing.T) {
		public := newFakeStore(
			memberRecord("m2", "u2", "g1", base.Add(time.Hour)),
			memberRecord("m1", "u1", "g1", base),
		)
		svc := NewGroupService(public)

		members, err := svc.Members(context.Background(), "g1")
		require.NoError(t, err)

		require.Len(t, members, 2)
		assert.Equal(t, "u1", members[0].UserID)
		assert.Equal(t, "u2", members[1].UserID)
	})

	t.Run("scopes to the requested group", func(t *testing.T) {
		public := newFakeStore(
			memberRecord("m1", "u1", "g1", base),
			memberRecord("m2", "u2", "g2", base),
		)
		svc := NewGroupService(public)

		members, err := svc.Members(context.Background(), "g1")
		require.NoError(t, err)

		require.Len(t, members, 1)
		assert.Equal(t, "u1", members[0].UserID)
	})

	t.Run("rejects an empty group id", func(t *testing.T) {
		svc := NewGroupService(newFakeStore())

		_, err := svc.Members(context.Background(), "")
		assert.ErrorIs(t, err, models.ErrEmptyGroupID)
	})
}
