package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TempIDPrefix marks a locally generated placeholder ID. A pin keeps a
// placeholder ID until its first successful remote save, at which point the
// feed swaps it for the server-assigned ID in place.
const TempIDPrefix = "temp."

// MaxRating is the upper bound for every rating category.
const MaxRating = 5

// Ratings holds the five per-category scores of a pin, each in [0, MaxRating].
type Ratings struct {
	TP           int `json:"tpRating"`
	Cleanliness  int `json:"cleanliness"`
	Privacy      int `json:"privacy"`
	Plumbing     int `json:"plumbing"`
	OverallVibes int `json:"overallVibes"`
}

func (r Ratings) valid() bool {
	for _, v := range []int{r.TP, r.Cleanliness, r.Privacy, r.Plumbing, r.OverallVibes} {
		if v < 0 || v > MaxRating {
			return false
		}
	}
	return true
}

// Pin is a single logged event in the feed.
//
// GroupID empty means the pin is personal: it routes to the private store and
// only its owner (or friends of the owner) can see it. A non-empty GroupID
// routes the pin to the shared public store.
type Pin struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"userId"`
	GroupID             string    `json:"groupId,omitempty"`
	Latitude            float64   `json:"latitude"`
	Longitude           float64   `json:"longitude"`
	Ratings             Ratings   `json:"ratings"`
	Comment             string    `json:"comment"`
	Color               Color     `json:"color"`
	UserName            string    `json:"userName"`
	LocationDescription string    `json:"locationDescription"`
	CreatedAt           time.Time `json:"createdAt"`
	PhotoURL            string    `json:"photoUrl,omitempty"`
}

// NewPin builds a placeholder pin from caller-supplied fields. It validates
// preconditions synchronously; nothing here touches the network.
func NewPin(userID, userName, groupID string, lat, lon float64, ratings Ratings, comment, locationDescription string, color Color, photoURL string) (*Pin, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrEmptyUserID
	}
	if strings.TrimSpace(userName) == "" {
		return nil, ErrEmptyUserName
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, ErrInvalidCoordinate
	}
	if !ratings.valid() {
		return nil, ErrRatingOutOfRange
	}

	return &Pin{
		ID:                  NewTempID(),
		UserID:              userID,
		GroupID:             groupID,
		Latitude:            lat,
		Longitude:           lon,
		Ratings:             ratings,
		Comment:             comment,
		Color:               color,
		UserName:            userName,
		LocationDescription: locationDescription,
		CreatedAt:           time.Now().UTC(),
		PhotoURL:            photoURL,
	}, nil
}

// NewTempID generates a placeholder identity for a not-yet-saved pin.
func NewTempID() string {
	return TempIDPrefix + uuid.New().String()
}

// IsPlaceholder reports whether the pin still carries a local placeholder ID.
func (p *Pin) IsPlaceholder() bool {
	return strings.HasPrefix(p.ID, TempIDPrefix)
}

// Errors
type PinError struct {
	Message string
}

func (e PinError) Error() string {
	return e.Message
}

var (
	ErrEmptyUserID       = PinError{"user id cannot be empty"}
	ErrEmptyUserName     = PinError{"user name cannot be empty"}
	ErrInvalidCoordinate = PinError{"coordinate out of range"}
	ErrRatingOutOfRange  = PinError{"ratings must be between 0 and 5"}
	ErrEmptyCommentText  = PinError{"comment text cannot be empty"}
	ErrEmptyGroupID      = PinError{"group id cannot be empty"}
	ErrPinNotFound       = PinError{"pin not found"}
)
