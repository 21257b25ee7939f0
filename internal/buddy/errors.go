// Package buddy implements the anonymous peer matchmaking core:
// the match queue, live sessions, the friend-request handshake and
// the durable saved chats a successful handshake promotes into.
package buddy

import "errors"

// Typed failures returned to callers. The gateway maps these onto
// HTTP statuses; anything else is treated as an internal error.
var (
	// ErrInvalidRequest rejects missing or malformed fields before any
	// state is touched.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrAlreadyActive means the user is already queued or in an
	// active session and must leave first.
	ErrAlreadyActive = errors.New("user already queued or in a session")
	// ErrSessionNotFound means the session id is unknown.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionEnded means the session has been terminated.
	ErrSessionEnded = errors.New("session has ended")
	// ErrNotParticipant means the caller is not authorized for the
	// target session or chat.
	ErrNotParticipant = errors.New("user is not a participant")
	// ErrRequestNotFound means no pending friend request exists.
	ErrRequestNotFound = errors.New("friend request not found")
	// ErrConflict signals a state-machine violation, e.g. a duplicate
	// friend request for the same session.
	ErrConflict = errors.New("friend request already exists for this session")
	// ErrChatNotFound means the saved chat id is unknown.
	ErrChatNotFound = errors.New("chat not found")
)
