package records

import (
	"time"

	"github.com/pinsync/client/internal/models"
)

// PinFromRecord converts one raw record into a canonical pin. The record's
// type tag selects the schema variant. Required fields are the owner ID, the
// display name, and a resolvable coordinate; everything else defaults.
// Returns false when a required field is absent or mistyped — callers drop
// such records silently.
func PinFromRecord(r Record) (models.Pin, bool) {
	switch r.Type {
	case TypePin, TypeLegacyPin:
	default:
		return models.Pin{}, false
	}

	userID, ok := r.stringField("userID")
	if !ok {
		return models.Pin{}, false
	}
	userName, ok := r.stringField("userName")
	if !ok {
		return models.Pin{}, false
	}
	lat, lon, ok := r.coordinate()
	if !ok {
		return models.Pin{}, false
	}

	groupID, _ := r.stringField("groupID")
	comment, _ := r.stringField("comment")
	locDesc, _ := r.stringField("locationDescription")

	createdAt, ok := r.timeField("createdAt")
	if !ok {
		createdAt = r.CreatedAt
	}
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	tp, _ := r.intField("tpRating")
	clean, _ := r.intField("cleanliness")
	priv, _ := r.intField("privacy")
	plumbing, _ := r.intField("plumbing")
	vibes, _ := r.intField("overallVibes")

	// The current schema stores color under userColorHex; the legacy schema
	// used userColor. Each accepts the other's key as a fallback.
	var colorHex string
	if r.Type == TypePin {
		colorHex = firstString(r, "userColorHex", "userColor")
	} else {
		colorHex = firstString(r, "userColor", "userColorHex")
	}
	color, parsed := models.ParseHex(colorHex)
	if !parsed {
		color = models.DefaultColor
	}

	// Photo: embedded asset reference first, plain URL string second.
	photoURL := firstString(r, "photo", "photoURL")

	return models.Pin{
		ID:                  r.ID,
		UserID:              userID,
		GroupID:             groupID,
		Latitude:            lat,
		Longitude:           lon,
		Ratings:             models.Ratings{TP: tp, Cleanliness: clean, Privacy: priv, Plumbing: plumbing, OverallVibes: vibes},
		Comment:             comment,
		Color:               color,
		UserName:            userName,
		LocationDescription: locDesc,
		CreatedAt:           createdAt,
		PhotoURL:            photoURL,
	}, true
}

// CommentFromRecord converts a raw comment record. The parent pin ID is
// required; author fields default so one sloppy record doesn't hide a thread.
func CommentFromRecord(r Record) (models.Comment, bool) {
	if r.Type != TypeComment {
		return models.Comment{}, false
	}

	pinID, ok := r.stringField("pinID")
	if !ok {
		return models.Comment{}, false
	}

	userID, ok := r.stringField("userID")
	if !ok {
		userID = "unknown"
	}
	userName, ok := r.stringField("userName")
	if !ok {
		userName = "User"
	}
	text, _ := r.stringField("text")

	createdAt, ok := r.timeField("createdAt")
	if !ok {
		createdAt = r.CreatedAt
	}
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	return models.Comment{
		ID:        r.ID,
		PinID:     pinID,
		UserID:    userID,
		UserName:  userName,
		Text:      text,
		CreatedAt: createdAt,
	}, true
}

// GroupMemberFromRecord converts a raw membership record. Member colors may
// carry an alpha byte (8 hex digits); ParseHex drops it.
func GroupMemberFromRecord(r Record) (models.GroupMember, bool) {
	if r.Type != TypeGroupMember {
		return models.GroupMember{}, false
	}

	userID, ok := r.stringField("userID")
	if !ok {
		userID = r.ID
	}
	name := firstString(r, "userName", "name")
	if name == "" {
		name = "User"
	}

	colorHex, _ := r.stringField("colorHex")
	color, parsed := models.ParseHex(colorHex)
	if !parsed {
		color = models.DefaultColor
	}

	joinedAt, ok := r.timeField("joinedAt")
	if !ok {
		joinedAt, ok = r.timeField("createdAt")
	}
	if !ok || joinedAt.IsZero() {
		joinedAt = r.CreatedAt
	}
	if joinedAt.IsZero() {
		joinedAt = time.Now().UTC()
	}

	return models.GroupMember{
		ID:       r.ID,
		UserID:   userID,
		Name:     name,
		Color:    color,
		JoinedAt: joinedAt,
	}, true
}

func firstString(r Record, keys ...string) string {
	for _, key := range keys {
		if v, ok := r.stringField(key); ok {
			return v
		}
	}
	return ""
}
