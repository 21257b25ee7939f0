package models

// Event types pushed to connected clients and published on the
// cross-node pub/sub channel.
const (
	EventMatchFound            = "match_found"
	EventSessionMessage        = "session_message"
	EventSessionEnded          = "session_ended"
	EventFriendRequest         = "friend_request"
	EventFriendRequestResolved = "friend_request_resolved"
	EventChatMessage           = "chat_message"
)

// Event is one realtime notification. Recipients carries the target
// user IDs so any node's hub can deliver to whichever of them are
// connected locally.
type Event struct {
	Type       string   `json:"type"`
	SessionID  string   `json:"session_id,omitempty"`
	ChatID     string   `json:"chat_id,omitempty"`
	SenderID   string   `json:"sender_id,omitempty"`
	Text       string   `json:"text,omitempty"`
	Sequence   int64    `json:"sequence,omitempty"`
	Status     string   `json:"status,omitempty"`
	Recipients []string `json:"recipients"`
}
