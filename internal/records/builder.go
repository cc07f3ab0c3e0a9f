package records

import "github.com/pinsync/client/internal/models"

// NewPinRecord builds the remote payload for a pin write. New pins are always
// written in the current schema. The record carries no ID; the store assigns
// one on save, and the feed reconciles the placeholder against it.
func NewPinRecord(p *models.Pin) Record {
	fields := map[string]any{
		"userID": p.UserID,
		"location": map[string]any{
			"latitude":  p.Latitude,
			"longitude": p.Longitude,
		},
		"locationDescription": p.LocationDescription,
		"tpRating":            p.Ratings.TP,
		"cleanliness":         p.Ratings.Cleanliness,
		"privacy":             p.Ratings.Privacy,
		"plumbing":            p.Ratings.Plumbing,
		"overallVibes":        p.Ratings.OverallVibes,
		"comment":             p.Comment,
		"userName":            p.UserName,
		"createdAt":           p.CreatedAt,
		"userColorHex":        p.Color.Hex(),
	}
	if p.GroupID != "" {
		fields["groupID"] = p.GroupID
	}
	if p.PhotoURL != "" {
		fields["photoURL"] = p.PhotoURL
	}

	return Record{Type: TypePin, Fields: fields}
}

// NewCommentRecord builds the remote payload for a comment write. When the
// parent pin belongs to a group the comment carries the group too, keeping
// store-side filters usable.
func NewCommentRecord(c *models.Comment, parentGroupID string) Record {
	fields := map[string]any{
		"pinID":     c.PinID,
		"userID":    c.UserID,
		"userName":  c.UserName,
		"text":      c.Text,
		"createdAt": c.CreatedAt,
	}
	if parentGroupID != "" {
		fields["groupID"] = parentGroupID
	}

	return Record{Type: TypeComment, Fields: fields}
}
