package buddy_test

import (
	"sync"

	"talkbuddy/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify mock of the storage.Storage interface.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) SaveSession(session *models.Session) error {
	args := m.Called(session)
	return args.Error(0)
}

func (m *MockStorage) CloseSession(sessionID string) error {
	args := m.Called(sessionID)
	return args.Error(0)
}

func (m *MockStorage) SaveSessionMessage(msg *models.SessionMessage) error {
	args := m.Called(msg)
	return args.Error(0)
}

func (m *MockStorage) SaveFriendRequest(req *models.FriendRequest) error {
	args := m.Called(req)
	return args.Error(0)
}

func (m *MockStorage) SaveChat(chat *models.SavedChat) error {
	args := m.Called(chat)
	return args.Error(0)
}

func (m *MockStorage) SaveChatMessage(msg *models.SavedChatMessage) error {
	args := m.Called(msg)
	return args.Error(0)
}

func (m *MockStorage) SaveChatMembers(chatID string, userIDs ...string) error {
	args := m.Called(chatID, userIDs)
	return args.Error(0)
}

func (m *MockStorage) GetActiveSessions() ([]models.Session, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Session), args.Error(1)
}

func (m *MockStorage) GetSessionMessages(sessionID string) ([]models.SessionMessage, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SessionMessage), args.Error(1)
}

func (m *MockStorage) GetFriendRequests() ([]models.FriendRequest, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FriendRequest), args.Error(1)
}

func (m *MockStorage) GetChats() ([]models.SavedChat, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SavedChat), args.Error(1)
}

func (m *MockStorage) GetChatMembers() ([]models.ChatMember, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatMember), args.Error(1)
}

func (m *MockStorage) GetAllChatMessages() ([]models.SavedChatMessage, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SavedChatMessage), args.Error(1)
}

func (m *MockStorage) GetChatsForUser(userID string) ([]models.SavedChat, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SavedChat), args.Error(1)
}

func (m *MockStorage) AddUserToSearchQueue(userID string) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockStorage) RemoveUserFromSearchQueue(userID string) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockStorage) ClearSearchQueue() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockStorage) PublishEvent(event models.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

func (m *MockStorage) SubscribeEvents() *redis.PubSub {
	m.Called()
	return &redis.PubSub{}
}

// newPermissiveStorage returns a MockStorage that accepts every
// write; tests that care about specific calls set their own
// expectations on a fresh mock instead.
func newPermissiveStorage() *MockStorage {
	s := new(MockStorage)
	s.On("SaveSession", mock.Anything).Return(nil)
	s.On("CloseSession", mock.Anything).Return(nil)
	s.On("SaveSessionMessage", mock.Anything).Return(nil)
	s.On("SaveFriendRequest", mock.Anything).Return(nil)
	s.On("SaveChat", mock.Anything).Return(nil)
	s.On("SaveChatMessage", mock.Anything).Return(nil)
	s.On("SaveChatMembers", mock.Anything, mock.Anything).Return(nil)
	s.On("AddUserToSearchQueue", mock.Anything).Return(nil)
	s.On("RemoveUserFromSearchQueue", mock.Anything).Return(nil)
	s.On("ClearSearchQueue").Return(nil)
	s.On("PublishEvent", mock.Anything).Return(nil)
	return s
}

// recordingNotifier captures events emitted by the core for
// assertions. Safe for concurrent use.
type recordingNotifier struct {
	mu     sync.Mutex
	events []models.Event
}

func (n *recordingNotifier) Notify(event models.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) Events() []models.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]models.Event, len(n.events))
	copy(out, n.events)
	return out
}

func (n *recordingNotifier) ofType(eventType string) []models.Event {
	var out []models.Event
	for _, e := range n.Events() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
