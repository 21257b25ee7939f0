package models

import "time"

const (
	SessionActive = "active"
	SessionEnded  = "ended"
)

// Session is one live anonymous conversation between a matched pair.
// Its identity never changes once created.
type Session struct {
	// SessionID is the unique identifier for the session (UUID).
	SessionID string `gorm:"primaryKey" json:"session_id"`
	// ListenerID is the anonymous ID of the listener participant.
	ListenerID string `gorm:"type:text;not null;index" json:"listener_id"`
	// SeekerID is the anonymous ID of the seeker participant.
	SeekerID string `gorm:"type:text;not null;index" json:"seeker_id"`
	// Status is either SessionActive or SessionEnded.
	Status string `gorm:"type:text;not null" json:"status"`
	// CreatedAt is the timestamp when the pairing succeeded.
	CreatedAt time.Time `json:"created_at"`
	// EndedAt is set when either participant leaves.
	EndedAt time.Time `json:"ended_at,omitempty"`
}

// HasParticipant reports whether userID is one of the session's two
// participants.
func (s *Session) HasParticipant(userID string) bool {
	return userID == s.ListenerID || userID == s.SeekerID
}

// PeerOf returns the other participant's ID, or "" if userID is not a
// participant.
func (s *Session) PeerOf(userID string) string {
	switch userID {
	case s.ListenerID:
		return s.SeekerID
	case s.SeekerID:
		return s.ListenerID
	}
	return ""
}

// Active reports whether the session still accepts messages.
func (s *Session) Active() bool {
	return s.Status == SessionActive
}
