package buddy

import (
	"fmt"
	"log"

	"talkbuddy/backend/internal/storage"
)

// RestoreState rebuilds the in-memory core from storage after a
// restart: active sessions with their logs, friend requests, saved
// chats and the per-user chat index. The queue mirror is cleared
// instead of restored, since a waiting entry without its live caller
// is stale. Must run before traffic is served.
func RestoreState(sessions *SessionService, requests *FriendRequestService, chats *SavedChatService, s storage.Storage) error {
	log.Println("Starting state recovery...")

	active, err := s.GetActiveSessions()
	if err != nil {
		return fmt.Errorf("load active sessions: %w", err)
	}
	for _, session := range active {
		msgs, err := s.GetSessionMessages(session.SessionID)
		if err != nil {
			return fmt.Errorf("load messages for session %s: %w", session.SessionID, err)
		}
		sessions.Restore(session, msgs)
	}

	reqs, err := s.GetFriendRequests()
	if err != nil {
		return fmt.Errorf("load friend requests: %w", err)
	}
	requests.Restore(reqs)

	savedChats, err := s.GetChats()
	if err != nil {
		return fmt.Errorf("load chats: %w", err)
	}
	members, err := s.GetChatMembers()
	if err != nil {
		return fmt.Errorf("load chat members: %w", err)
	}
	chatMsgs, err := s.GetAllChatMessages()
	if err != nil {
		return fmt.Errorf("load chat messages: %w", err)
	}
	chats.Restore(savedChats, members, chatMsgs)

	if err := s.ClearSearchQueue(); err != nil {
		log.Printf("WARNING: Failed to clear stale queue mirror: %v", err)
	}

	log.Printf("Recovery complete: %d active sessions, %d friend requests, %d chats.",
		len(active), len(reqs), len(savedChats))
	return nil
}
