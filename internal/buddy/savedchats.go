package buddy

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"talkbuddy/backend/internal/models"
	"talkbuddy/backend/internal/storage"

	"github.com/google/uuid"
)

// chatState is one saved chat plus its log, guarded by its own mutex.
type chatState struct {
	mu       sync.Mutex
	chat     models.SavedChat
	messages []models.SavedChatMessage
}

// SavedChatService owns the durable per-user chat index and the chat
// logs created by promotion. Chats outlive the sessions they came
// from.
type SavedChatService struct {
	mu        sync.RWMutex
	chats     map[string]*chatState
	bySession map[string]string   // sessionID -> chatID
	byUser    map[string][]string // userID -> chatIDs

	storage  storage.Storage
	notifier Notifier
}

// NewSavedChatService creates a SavedChatService.
func NewSavedChatService(s storage.Storage, n Notifier) *SavedChatService {
	return &SavedChatService{
		chats:     make(map[string]*chatState),
		bySession: make(map[string]string),
		byUser:    make(map[string][]string),
		storage:   s,
		notifier:  n,
	}
}

// Promote converts an accepted session into a saved chat: the log is
// copied by value, the preview computed from the last message, and
// the chat registered under both participants. Idempotent keyed on
// the session id: a second promotion returns the existing chat.
func (c *SavedChatService) Promote(session models.Session, sessionLog []models.SessionMessage) (models.SavedChat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if chatID, ok := c.bySession[session.SessionID]; ok {
		return c.copyChat(chatID)
	}

	now := time.Now()
	chat := models.SavedChat{
		ChatID:         uuid.New().String(),
		SessionID:      session.SessionID,
		ParticipantIDs: []string{session.ListenerID, session.SeekerID},
		Preview:        models.EmptyChatPreview,
		LastMessageAt:  now,
		CreatedAt:      now,
	}

	msgs := make([]models.SavedChatMessage, 0, len(sessionLog))
	for _, m := range sessionLog {
		msgs = append(msgs, models.SavedChatMessage{
			ID:        m.ID,
			ChatID:    chat.ChatID,
			SenderID:  m.SenderID,
			Text:      m.Text,
			Sequence:  m.Sequence,
			CreatedAt: m.CreatedAt,
		})
	}
	if len(msgs) > 0 {
		last := msgs[len(msgs)-1]
		chat.Preview = models.PreviewOf(last.Text)
		chat.LastMessageAt = last.CreatedAt
	}

	if err := c.storage.SaveChat(&chat); err != nil {
		return models.SavedChat{}, fmt.Errorf("save chat: %w", err)
	}
	if err := c.storage.SaveChatMembers(chat.ChatID, session.ListenerID, session.SeekerID); err != nil {
		return models.SavedChat{}, fmt.Errorf("save chat members: %w", err)
	}
	for i := range msgs {
		if err := c.storage.SaveChatMessage(&msgs[i]); err != nil {
			return models.SavedChat{}, fmt.Errorf("copy chat message: %w", err)
		}
	}

	c.register(chat, msgs)
	return chat, nil
}

// Append adds a message to a saved chat, updating the preview and
// last-activity timestamp. Sequence is per-chat and monotonic, same
// guarantee as the session log.
func (c *SavedChatService) Append(chatID, senderID, text string) (models.SavedChat, error) {
	if text == "" {
		return models.SavedChat{}, ErrInvalidRequest
	}
	st := c.state(chatID)
	if st == nil {
		return models.SavedChat{}, ErrChatNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if !st.chat.HasParticipant(senderID) {
		return models.SavedChat{}, ErrNotParticipant
	}

	msg := models.SavedChatMessage{
		ID:        uuid.New().String(),
		ChatID:    chatID,
		SenderID:  senderID,
		Text:      text,
		Sequence:  int64(len(st.messages)) + 1,
		CreatedAt: time.Now(),
	}
	if err := c.storage.SaveChatMessage(&msg); err != nil {
		return models.SavedChat{}, fmt.Errorf("save chat message: %w", err)
	}
	st.messages = append(st.messages, msg)
	st.chat.Preview = models.PreviewOf(msg.Text)
	st.chat.LastMessageAt = msg.CreatedAt
	if err := c.storage.SaveChat(&st.chat); err != nil {
		log.Printf("ERROR: Failed to persist chat summary %s: %v", chatID, err)
	}

	c.notify(models.Event{
		Type:       models.EventChatMessage,
		ChatID:     chatID,
		SenderID:   senderID,
		Text:       msg.Text,
		Sequence:   msg.Sequence,
		Recipients: st.chat.ParticipantIDs,
	})

	return st.chat, nil
}

// Messages returns a copy of the chat log in sequence order.
func (c *SavedChatService) Messages(chatID string) ([]models.SavedChatMessage, error) {
	st := c.state(chatID)
	if st == nil {
		return nil, ErrChatNotFound
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	msgs := make([]models.SavedChatMessage, len(st.messages))
	copy(msgs, st.messages)
	return msgs, nil
}

// ListFor returns summaries of the user's saved chats, most recent
// activity first. A chat id in the index with no backing chat is
// skipped rather than failing the whole call.
func (c *SavedChatService) ListFor(userID string) []models.SavedChat {
	c.mu.RLock()
	ids := c.byUser[userID]
	chats := make([]models.SavedChat, 0, len(ids))
	for _, id := range ids {
		st, ok := c.chats[id]
		if !ok {
			continue
		}
		st.mu.Lock()
		chats = append(chats, st.chat)
		st.mu.Unlock()
	}
	c.mu.RUnlock()

	sort.Slice(chats, func(i, j int) bool {
		return chats[i].LastMessageAt.After(chats[j].LastMessageAt)
	})
	return chats
}

// ChatForSession returns the chat promoted from the given session.
func (c *SavedChatService) ChatForSession(sessionID string) (models.SavedChat, bool) {
	c.mu.RLock()
	chatID, ok := c.bySession[sessionID]
	c.mu.RUnlock()
	if !ok {
		return models.SavedChat{}, false
	}
	st := c.state(chatID)
	if st == nil {
		return models.SavedChat{}, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.chat, true
}

// Restore rebuilds chat state from storage during boot recovery.
// Messages must arrive grouped by chat in sequence order. Index rows
// may reference chats that no longer exist; they are kept and skipped
// at read time.
func (c *SavedChatService) Restore(chats []models.SavedChat, members []models.ChatMember, msgs []models.SavedChatMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, chat := range chats {
		c.chats[chat.ChatID] = &chatState{chat: chat}
		c.bySession[chat.SessionID] = chat.ChatID
	}
	for _, m := range msgs {
		if st, ok := c.chats[m.ChatID]; ok {
			st.messages = append(st.messages, m)
		}
	}
	for _, mem := range members {
		c.byUser[mem.UserID] = append(c.byUser[mem.UserID], mem.ChatID)
	}
}

func (c *SavedChatService) register(chat models.SavedChat, msgs []models.SavedChatMessage) {
	c.chats[chat.ChatID] = &chatState{chat: chat, messages: msgs}
	c.bySession[chat.SessionID] = chat.ChatID
	for _, id := range chat.ParticipantIDs {
		c.byUser[id] = append(c.byUser[id], chat.ChatID)
	}
}

// copyChat requires c.mu held.
func (c *SavedChatService) copyChat(chatID string) (models.SavedChat, error) {
	st, ok := c.chats[chatID]
	if !ok {
		return models.SavedChat{}, ErrChatNotFound
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.chat, nil
}

func (c *SavedChatService) state(chatID string) *chatState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.chats[chatID]
}

func (c *SavedChatService) notify(event models.Event) {
	if c.notifier != nil {
		c.notifier.Notify(event)
	}
}
