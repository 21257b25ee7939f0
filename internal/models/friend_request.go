package models

import "time"

const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestDeclined = "declined"
)

// FriendRequest is the two-party handshake attached to a session.
// A session holds at most one request at a time; accepted and
// declined are terminal, so a fresh request needs a fresh session.
type FriendRequest struct {
	// SessionID is the session this handshake belongs to. One per session.
	SessionID string `gorm:"primaryKey" json:"session_id"`
	// FromUserID sent the request.
	FromUserID string `gorm:"type:text;not null" json:"from_user_id"`
	// ToUserID must accept or decline it.
	ToUserID string `gorm:"type:text;not null;index" json:"to_user_id"`
	// Status is pending, accepted or declined.
	Status string `gorm:"type:text;not null" json:"status"`
	// CreatedAt is when the request was opened.
	CreatedAt time.Time `json:"created_at"`
}

// Terminal reports whether the request has been resolved.
func (r *FriendRequest) Terminal() bool {
	return r.Status == RequestAccepted || r.Status == RequestDeclined
}
