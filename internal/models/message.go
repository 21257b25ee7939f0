package models

import "time"

// Viewpoint tags computed at read time, relative to the reading user.
// They are never stored.
const (
	ViewpointSelf = "self"
	ViewpointPeer = "peer"
)

// SessionMessage is one message in a session's append-only log.
// Sequence is assigned at append time and increases monotonically
// per session, starting at 1. Immutable once appended.
type SessionMessage struct {
	// ID is the unique message identifier (UUID).
	ID string `gorm:"primaryKey" json:"id"`
	// SessionID is the session this message belongs to.
	SessionID string `gorm:"type:uuid;not null;index:idx_session_seq" json:"session_id"`
	// SenderID is the anonymous ID of the sender.
	SenderID string `gorm:"type:text;not null" json:"sender_id"`
	// Text is the message content.
	Text string `gorm:"type:text;not null" json:"text"`
	// Sequence is the per-session append order.
	Sequence int64 `gorm:"not null;index:idx_session_seq" json:"sequence"`
	// CreatedAt is the append timestamp.
	CreatedAt time.Time `json:"created_at"`
}

// MessageView is a SessionMessage annotated with the reader's
// viewpoint ("self" when the reader sent it, "peer" otherwise).
type MessageView struct {
	SessionMessage
	Viewpoint string `json:"viewpoint"`
}

// ViewFor projects the message for a given reader.
func (m SessionMessage) ViewFor(asUserID string) MessageView {
	vp := ViewpointPeer
	if m.SenderID == asUserID {
		vp = ViewpointSelf
	}
	return MessageView{SessionMessage: m, Viewpoint: vp}
}
