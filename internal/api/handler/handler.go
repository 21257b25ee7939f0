package handler

import (
	"talkbuddy/backend/internal/buddy"
	"talkbuddy/backend/internal/chathub"
)

// Handler wires the HTTP surface to the core services and the hub.
type Handler struct {
	Matchmaker *buddy.Matchmaker
	Sessions   *buddy.SessionService
	Requests   *buddy.FriendRequestService
	Chats      *buddy.SavedChatService
	Hub        *chathub.Manager

	jwtSecret []byte
}

// NewHandler creates the Handler.
func NewHandler(mm *buddy.Matchmaker, sessions *buddy.SessionService, requests *buddy.FriendRequestService, chats *buddy.SavedChatService, hub *chathub.Manager, jwtSecret []byte) *Handler {
	return &Handler{
		Matchmaker: mm,
		Sessions:   sessions,
		Requests:   requests,
		Chats:      chats,
		Hub:        hub,
		jwtSecret:  jwtSecret,
	}
}
