package models

import (
	"time"

	"github.com/lib/pq"
)

// EmptyChatPreview is shown for a chat promoted from a session that
// had no messages yet.
const EmptyChatPreview = "No messages yet"

// PreviewLength caps the preview text copied from the last message.
const PreviewLength = 120

// SavedChat is the durable chat record created when a friend-request
// handshake succeeds. Its message log starts as a copy of the origin
// session's log and grows independently afterwards.
type SavedChat struct {
	// ChatID is the unique chat identifier (UUID).
	ChatID string `gorm:"primaryKey" json:"chat_id"`
	// SessionID links the chat to the session it was promoted from.
	// Exactly one chat is ever created per session.
	SessionID string `gorm:"type:uuid;uniqueIndex;not null" json:"session_id"`
	// ParticipantIDs are the two participants, copied from the session
	// at promotion time.
	ParticipantIDs pq.StringArray `gorm:"type:text[]" json:"participant_ids"`
	// Preview is the text of the most recent message, truncated.
	Preview string `gorm:"type:text" json:"preview"`
	// LastMessageAt is the timestamp of the most recent message.
	LastMessageAt time.Time `json:"last_message_at"`
	// CreatedAt is the promotion timestamp.
	CreatedAt time.Time `json:"created_at"`
}

// HasParticipant reports whether userID belongs to the chat.
func (c *SavedChat) HasParticipant(userID string) bool {
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// SavedChatMessage is one message in a saved chat's log. Sequence is
// per-chat and monotonic, mirroring the session log guarantee.
type SavedChatMessage struct {
	// ID is the unique message identifier (UUID).
	ID string `gorm:"primaryKey" json:"id"`
	// ChatID is the saved chat this message belongs to.
	ChatID string `gorm:"type:uuid;not null;index:idx_chat_seq" json:"chat_id"`
	// SenderID is the anonymous ID of the sender.
	SenderID string `gorm:"type:text;not null" json:"sender_id"`
	// Text is the message content.
	Text string `gorm:"type:text;not null" json:"text"`
	// Sequence is the per-chat append order.
	Sequence int64 `gorm:"not null;index:idx_chat_seq" json:"sequence"`
	// CreatedAt is the append timestamp.
	CreatedAt time.Time `json:"created_at"`
}

// ChatMember maps a user to a saved chat, forming the per-user chat
// index. Both participants get a row atomically with chat creation.
type ChatMember struct {
	ChatID string `gorm:"primaryKey;type:uuid" json:"chat_id"`
	UserID string `gorm:"primaryKey;type:text;index" json:"user_id"`
}

// PreviewOf truncates message text for use as a chat preview.
func PreviewOf(text string) string {
	if text == "" {
		return EmptyChatPreview
	}
	runes := []rune(text)
	if len(runes) <= PreviewLength {
		return text
	}
	return string(runes[:PreviewLength])
}
