package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Comment is a reply to a pin. Comments are always scoped to one parent pin;
// the fetch path re-checks PinID against the requested parent even when the
// backing store's own filter should have guaranteed it.
type Comment struct {
	ID        string    `json:"id"`
	PinID     string    `json:"pinId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewComment builds an optimistic local comment with validation.
func NewComment(pinID, userID, userName, text string) (*Comment, error) {
	if strings.TrimSpace(pinID) == "" {
		return nil, ErrPinNotFound
	}
	if strings.TrimSpace(userID) == "" {
		return nil, ErrEmptyUserID
	}
	if strings.TrimSpace(userName) == "" {
		return nil, ErrEmptyUserName
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyCommentText
	}

	return &Comment{
		ID:        uuid.New().String(),
		PinID:     pinID,
		UserID:    userID,
		UserName:  userName,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}, nil
}
