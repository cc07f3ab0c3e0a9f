package models

import "time"

// GroupMember is a member row of a shared group. This layer only reads
// memberships; they feed the visibility filter and the member list view.
type GroupMember struct {
	ID       string    `json:"id"`
	UserID   string    `json:"userId"`
	Name     string    `json:"name"`
	Color    Color     `json:"color"`
	JoinedAt time.Time `json:"joinedAt"`
}
