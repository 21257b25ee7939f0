package buddy

import (
	"fmt"
	"log"
	"sync"
	"time"

	"talkbuddy/backend/internal/models"
	"talkbuddy/backend/internal/storage"

	"github.com/google/uuid"
)

// sessionState is one session plus its append-only log, guarded by
// its own mutex so appends to different sessions never block each
// other.
type sessionState struct {
	mu       sync.Mutex
	session  models.Session
	messages []models.SessionMessage
}

// SessionService owns the lifecycle of live sessions and their
// ordered message logs. In-memory state is authoritative; every
// mutation is written through to storage.
type SessionService struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState
	byUser   map[string]string // userID -> active sessionID

	storage  storage.Storage
	notifier Notifier
}

// NewSessionService creates a SessionService.
func NewSessionService(s storage.Storage, n Notifier) *SessionService {
	return &SessionService{
		sessions: make(map[string]*sessionState),
		byUser:   make(map[string]string),
		storage:  s,
		notifier: n,
	}
}

// Create opens a new active session for a matched pair. Called only
// by the Matchmaker inside its pairing critical section.
func (s *SessionService) Create(listenerID, seekerID string) (models.Session, error) {
	session := models.Session{
		SessionID:  uuid.New().String(),
		ListenerID: listenerID,
		SeekerID:   seekerID,
		Status:     models.SessionActive,
		CreatedAt:  time.Now(),
	}

	if err := s.storage.SaveSession(&session); err != nil {
		return models.Session{}, fmt.Errorf("save session: %w", err)
	}

	s.mu.Lock()
	s.sessions[session.SessionID] = &sessionState{session: session}
	s.byUser[listenerID] = session.SessionID
	s.byUser[seekerID] = session.SessionID
	s.mu.Unlock()

	return session, nil
}

// Get returns a copy of the session record.
func (s *SessionService) Get(sessionID string) (models.Session, error) {
	st := s.state(sessionID)
	if st == nil {
		return models.Session{}, ErrSessionNotFound
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.session, nil
}

// ActiveSessionFor returns the session the user currently
// participates in, if any.
func (s *SessionService) ActiveSessionFor(userID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUser[userID]
	return id, ok
}

// AppendMessage assigns the next sequence number for the session and
// appends. Appends to the same session are serialized by the session
// mutex; different sessions proceed independently.
func (s *SessionService) AppendMessage(sessionID, senderID, text string) (models.SessionMessage, error) {
	if text == "" {
		return models.SessionMessage{}, ErrInvalidRequest
	}
	st := s.state(sessionID)
	if st == nil {
		return models.SessionMessage{}, ErrSessionNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if !st.session.Active() {
		return models.SessionMessage{}, ErrSessionEnded
	}
	if !st.session.HasParticipant(senderID) {
		return models.SessionMessage{}, ErrNotParticipant
	}

	msg := models.SessionMessage{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		SenderID:  senderID,
		Text:      text,
		Sequence:  int64(len(st.messages)) + 1,
		CreatedAt: time.Now(),
	}
	if err := s.storage.SaveSessionMessage(&msg); err != nil {
		return models.SessionMessage{}, fmt.Errorf("save message: %w", err)
	}
	st.messages = append(st.messages, msg)

	// Emitted under the session mutex so clients observe events in
	// sequence order.
	s.notify(models.Event{
		Type:       models.EventSessionMessage,
		SessionID:  sessionID,
		SenderID:   senderID,
		Text:       msg.Text,
		Sequence:   msg.Sequence,
		Recipients: []string{st.session.ListenerID, st.session.SeekerID},
	})

	return msg, nil
}

// ListMessages returns the session log annotated with the reader's
// viewpoint. The tag is a pure read-time projection, never stored.
func (s *SessionService) ListMessages(sessionID, asUserID string) ([]models.MessageView, error) {
	st := s.state(sessionID)
	if st == nil {
		return nil, ErrSessionNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	views := make([]models.MessageView, 0, len(st.messages))
	for _, m := range st.messages {
		views = append(views, m.ViewFor(asUserID))
	}
	return views, nil
}

// EndSession transitions the session to ended. Idempotent; the log is
// kept. Further appends fail with ErrSessionEnded.
func (s *SessionService) EndSession(sessionID string) error {
	st := s.state(sessionID)
	if st == nil {
		return ErrSessionNotFound
	}

	st.mu.Lock()
	if !st.session.Active() {
		st.mu.Unlock()
		return nil
	}
	st.session.Status = models.SessionEnded
	st.session.EndedAt = time.Now()
	listenerID, seekerID := st.session.ListenerID, st.session.SeekerID
	st.mu.Unlock()

	s.mu.Lock()
	if s.byUser[listenerID] == sessionID {
		delete(s.byUser, listenerID)
	}
	if s.byUser[seekerID] == sessionID {
		delete(s.byUser, seekerID)
	}
	s.mu.Unlock()

	if err := s.storage.CloseSession(sessionID); err != nil {
		log.Printf("ERROR: Failed to close session %s in storage: %v", sessionID, err)
	}

	s.notify(models.Event{
		Type:       models.EventSessionEnded,
		SessionID:  sessionID,
		Recipients: []string{listenerID, seekerID},
	})
	return nil
}

// Snapshot returns copies of the session and its full log, for
// promotion into a saved chat.
func (s *SessionService) Snapshot(sessionID string) (models.Session, []models.SessionMessage, error) {
	st := s.state(sessionID)
	if st == nil {
		return models.Session{}, nil, ErrSessionNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	msgs := make([]models.SessionMessage, len(st.messages))
	copy(msgs, st.messages)
	return st.session, msgs, nil
}

// Restore rebuilds one session's in-memory state from storage.
// Called during boot recovery, before any traffic is served.
func (s *SessionService) Restore(session models.Session, msgs []models.SessionMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.SessionID] = &sessionState{session: session, messages: msgs}
	if session.Active() {
		s.byUser[session.ListenerID] = session.SessionID
		s.byUser[session.SeekerID] = session.SessionID
	}
}

func (s *SessionService) state(sessionID string) *sessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[sessionID]
}

func (s *SessionService) notify(event models.Event) {
	if s.notifier != nil {
		s.notifier.Notify(event)
	}
}
