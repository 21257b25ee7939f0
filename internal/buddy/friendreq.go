package buddy

import (
	"fmt"
	"log"
	"sync"
	"time"

	"talkbuddy/backend/internal/models"
	"talkbuddy/backend/internal/storage"
)

// FriendRequestService runs the per-session handshake state machine:
// none -> pending -> accepted | declined. Terminal states are final
// for the session; a new conversation needs a new session.
type FriendRequestService struct {
	mu       sync.Mutex
	requests map[string]*models.FriendRequest // keyed by sessionID

	sessions *SessionService
	chats    *SavedChatService
	storage  storage.Storage
	notifier Notifier
}

// NewFriendRequestService creates a FriendRequestService.
func NewFriendRequestService(sessions *SessionService, chats *SavedChatService, s storage.Storage, n Notifier) *FriendRequestService {
	return &FriendRequestService{
		requests: make(map[string]*models.FriendRequest),
		sessions: sessions,
		chats:    chats,
		storage:  s,
		notifier: n,
	}
}

// SendRequest opens a pending friend request on a live session. The
// two user ids must be the session's two participants, and the
// session must not already carry a request.
func (f *FriendRequestService) SendRequest(sessionID, fromUserID, toUserID string) error {
	session, err := f.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	if !session.Active() {
		return ErrSessionEnded
	}
	if fromUserID == toUserID ||
		!session.HasParticipant(fromUserID) || !session.HasParticipant(toUserID) {
		return ErrNotParticipant
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.requests[sessionID]; exists {
		return ErrConflict
	}

	req := &models.FriendRequest{
		SessionID:  sessionID,
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Status:     models.RequestPending,
		CreatedAt:  time.Now(),
	}
	if err := f.storage.SaveFriendRequest(req); err != nil {
		return fmt.Errorf("save friend request: %w", err)
	}
	f.requests[sessionID] = req

	f.notify(models.Event{
		Type:       models.EventFriendRequest,
		SessionID:  sessionID,
		SenderID:   fromUserID,
		Recipients: []string{toUserID},
	})
	return nil
}

// Status returns a copy of the session's friend request, if any.
func (f *FriendRequestService) Status(sessionID string) (models.FriendRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[sessionID]
	if !ok {
		return models.FriendRequest{}, false
	}
	return *req, true
}

// Accept resolves the pending request and promotes the session into a
// saved chat, returning its chat id. Idempotent under retry: a second
// accept for an already-accepted request returns the same chat id
// instead of creating a second chat.
func (f *FriendRequestService) Accept(sessionID, byUserID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	req, ok := f.requests[sessionID]
	if !ok || req.Status == models.RequestDeclined {
		return "", ErrRequestNotFound
	}
	if byUserID != req.ToUserID {
		return "", ErrNotParticipant
	}

	// A retried accept must not depend on the session still being
	// loaded: after a restart only active sessions are recovered,
	// while the promoted chat survives. If the chat exists, reuse it.
	chat, promoted := f.chats.ChatForSession(sessionID)
	if !promoted {
		session, msgs, err := f.sessions.Snapshot(sessionID)
		if err != nil {
			return "", err
		}

		// Promote first: if it fails the request stays pending and
		// the caller can retry. Promotion itself is keyed on the
		// session id, so a retry after a partial failure cannot
		// duplicate the chat.
		chat, err = f.chats.Promote(session, msgs)
		if err != nil {
			return "", err
		}
	}

	if req.Status != models.RequestAccepted {
		req.Status = models.RequestAccepted
		if err := f.storage.SaveFriendRequest(req); err != nil {
			log.Printf("ERROR: Failed to persist accepted request for session %s: %v", sessionID, err)
		}
		f.notify(models.Event{
			Type:       models.EventFriendRequestResolved,
			SessionID:  sessionID,
			ChatID:     chat.ChatID,
			Status:     models.RequestAccepted,
			Recipients: []string{req.FromUserID, req.ToUserID},
		})
	}

	return chat.ChatID, nil
}

// Decline resolves the pending request negatively. Terminal: the
// session can never carry another request. Only the recipient can
// resolve the handshake; a sender cannot retract a request once
// offered.
func (f *FriendRequestService) Decline(sessionID, byUserID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	req, ok := f.requests[sessionID]
	if !ok || req.Terminal() {
		return ErrRequestNotFound
	}
	if byUserID != req.ToUserID {
		return ErrNotParticipant
	}

	req.Status = models.RequestDeclined
	if err := f.storage.SaveFriendRequest(req); err != nil {
		log.Printf("ERROR: Failed to persist declined request for session %s: %v", sessionID, err)
	}

	f.notify(models.Event{
		Type:       models.EventFriendRequestResolved,
		SessionID:  sessionID,
		Status:     models.RequestDeclined,
		Recipients: []string{req.FromUserID, req.ToUserID},
	})
	return nil
}

// Restore rebuilds request state from storage during boot recovery.
func (f *FriendRequestService) Restore(reqs []models.FriendRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range reqs {
		req := reqs[i]
		f.requests[req.SessionID] = &req
	}
}

func (f *FriendRequestService) notify(event models.Event) {
	if f.notifier != nil {
		f.notifier.Notify(event)
	}
}
