package buddy

import (
	"fmt"
	"log"
	"sync"
	"time"

	"talkbuddy/backend/internal/models"
	"talkbuddy/backend/internal/storage"
)

// Matchmaker holds the waiting queue and pairs opposite-role entries
// into sessions. The queue is the one piece of state needing global
// exclusion: pairing removes two entries and creates a session as a
// single atomic unit, so under concurrent joins exactly one of two
// racing candidates wins a given partner.
type Matchmaker struct {
	mu    sync.Mutex
	queue map[string]models.QueueEntry

	sessions *SessionService
	storage  storage.Storage
	notifier Notifier
}

// NewMatchmaker creates a Matchmaker over the given session service.
func NewMatchmaker(sessions *SessionService, s storage.Storage, n Notifier) *Matchmaker {
	return &Matchmaker{
		queue:    make(map[string]models.QueueEntry),
		sessions: sessions,
		storage:  s,
		notifier: n,
	}
}

// Join enqueues the user and attempts to pair them with the
// longest-waiting opposite-role entry. Returns immediately either
// way; the partner of a successful pairing learns of it via a push
// event or the state endpoint.
func (m *Matchmaker) Join(userID string, role models.Role) (models.JoinResult, error) {
	if userID == "" || !role.Valid() {
		return models.JoinResult{}, ErrInvalidRequest
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, queued := m.queue[userID]; queued {
		return models.JoinResult{}, ErrAlreadyActive
	}
	if _, active := m.sessions.ActiveSessionFor(userID); active {
		return models.JoinResult{}, ErrAlreadyActive
	}

	entry := models.QueueEntry{UserID: userID, Role: role, JoinedAt: time.Now()}
	m.queue[userID] = entry
	if err := m.storage.AddUserToSearchQueue(userID); err != nil {
		log.Printf("WARNING: Failed to mirror queue entry for %s: %v", userID, err)
	}

	partner, ok := m.oldestWaiting(role.Opposite())
	if !ok {
		return models.JoinResult{Matched: false}, nil
	}

	delete(m.queue, entry.UserID)
	delete(m.queue, partner.UserID)

	listenerID, seekerID := entry.UserID, partner.UserID
	if role == models.RoleSeeker {
		listenerID, seekerID = partner.UserID, entry.UserID
	}

	session, err := m.sessions.Create(listenerID, seekerID)
	if err != nil {
		// Requeue both rather than dropping the partner silently.
		m.queue[entry.UserID] = entry
		m.queue[partner.UserID] = partner
		return models.JoinResult{}, fmt.Errorf("create session: %w", err)
	}

	for _, id := range []string{entry.UserID, partner.UserID} {
		if err := m.storage.RemoveUserFromSearchQueue(id); err != nil {
			log.Printf("WARNING: Failed to clear queue mirror for %s: %v", id, err)
		}
	}

	m.notify(models.Event{
		Type:       models.EventMatchFound,
		SessionID:  session.SessionID,
		Recipients: []string{listenerID, seekerID},
	})

	return models.JoinResult{Matched: true, SessionID: session.SessionID}, nil
}

// Leave is the cancellation primitive: it removes any queue entry for
// the user and ends any session they participate in. Idempotent and
// always safe to call.
func (m *Matchmaker) Leave(userID string) error {
	m.mu.Lock()
	if _, queued := m.queue[userID]; queued {
		delete(m.queue, userID)
		if err := m.storage.RemoveUserFromSearchQueue(userID); err != nil {
			log.Printf("WARNING: Failed to clear queue mirror for %s: %v", userID, err)
		}
	}
	m.mu.Unlock()

	if sessionID, ok := m.sessions.ActiveSessionFor(userID); ok {
		return m.sessions.EndSession(sessionID)
	}
	return nil
}

// Waiting reports whether the user currently holds a queue entry.
func (m *Matchmaker) Waiting(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.queue[userID]
	return ok
}

// oldestWaiting picks the entry of the given role that has waited
// longest. Map iteration order is random, so ordering comes from
// JoinedAt, not insertion.
func (m *Matchmaker) oldestWaiting(role models.Role) (models.QueueEntry, bool) {
	var best models.QueueEntry
	found := false
	for _, e := range m.queue {
		if e.Role != role {
			continue
		}
		if !found || e.JoinedAt.Before(best.JoinedAt) {
			best = e
			found = true
		}
	}
	return best, found
}

func (m *Matchmaker) notify(event models.Event) {
	if m.notifier != nil {
		m.notifier.Notify(event)
	}
}
