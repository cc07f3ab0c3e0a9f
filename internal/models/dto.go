package models

import "time"

// AddPinRequest is the request body for logging a new pin.
type AddPinRequest struct {
	UserID              string  `json:"userId"`
	UserName            string  `json:"userName"`
	GroupID             string  `json:"groupId,omitempty"`
	Latitude            float64 `json:"latitude"`
	Longitude           float64 `json:"longitude"`
	Ratings             Ratings `json:"ratings"`
	Comment             string  `json:"comment"`
	LocationDescription string  `json:"locationDescription"`
	ColorHex            string  `json:"colorHex,omitempty"`
	PhotoURL            string  `json:"photoUrl,omitempty"`
}

// AddCommentRequest is the request body for replying to a pin.
type AddCommentRequest struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Text     string `json:"text"`
}

// FeedResponse is returned when reading the feed.
type FeedResponse struct {
	Pins       []Pin `json:"pins"`
	TotalCount int   `json:"totalCount"`
}

// CommentListResponse is returned when reading a pin's comment thread.
type CommentListResponse struct {
	PinID    string    `json:"pinId"`
	Comments []Comment `json:"comments"`
}

// MemberListResponse is returned when listing a group's members.
type MemberListResponse struct {
	GroupID string        `json:"groupId"`
	Members []GroupMember `json:"members"`
}

// StatusResponse reports sync-layer state: store reachability and the
// number of writes still waiting in the retry queue.
type StatusResponse struct {
	Online        bool `json:"online"`
	PendingWrites int  `json:"pendingWrites"`
}

// HealthResponse is returned by health check
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse is returned on errors
type ErrorResponse struct {
	Error string `json:"error"`
}
