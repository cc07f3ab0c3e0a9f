package models

// Viewer is the identity context the visibility filter evaluates against:
// who is looking, which group they currently belong to (empty for none), and
// who their friends are. Read from the session/identity provider, never
// written by this layer.
type Viewer struct {
	ID        string   `json:"id"`
	GroupID   string   `json:"groupId,omitempty"`
	FriendIDs []string `json:"friendIds,omitempty"`
}

// IsFriend reports whether ownerID appears in the viewer's friend list.
func (v Viewer) IsFriend(ownerID string) bool {
	for _, id := range v.FriendIDs {
		if id == ownerID {
			return true
		}
	}
	return false
}
