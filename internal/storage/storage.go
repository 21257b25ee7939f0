package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"talkbuddy/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// EventsChannel is the Redis pub/sub channel all nodes publish
// realtime events to.
const EventsChannel = "buddy:events"

// searchQueueKey is the Redis set mirroring the in-memory match queue.
const searchQueueKey = "search_queue"

// Storage is the persistence surface consumed by the core services
// and the hub. The in-memory state is authoritative; these calls keep
// Postgres/Redis in sync so state survives a restart and events reach
// other nodes.
type Storage interface {
	SaveSession(session *models.Session) error
	CloseSession(sessionID string) error
	SaveSessionMessage(msg *models.SessionMessage) error

	SaveFriendRequest(req *models.FriendRequest) error

	SaveChat(chat *models.SavedChat) error
	SaveChatMessage(msg *models.SavedChatMessage) error
	SaveChatMembers(chatID string, userIDs ...string) error

	GetActiveSessions() ([]models.Session, error)
	GetSessionMessages(sessionID string) ([]models.SessionMessage, error)
	GetFriendRequests() ([]models.FriendRequest, error)
	GetChats() ([]models.SavedChat, error)
	GetChatMembers() ([]models.ChatMember, error)
	GetAllChatMessages() ([]models.SavedChatMessage, error)
	GetChatsForUser(userID string) ([]models.SavedChat, error)

	AddUserToSearchQueue(userID string) error
	RemoveUserFromSearchQueue(userID string) error
	ClearSearchQueue() error

	PublishEvent(event models.Event) error
	SubscribeEvents() *redis.PubSub
}

// Service implements Storage over PostgreSQL (GORM) and Redis.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewStorageService constructor.
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// SaveSession upserts a session record.
func (s *Service) SaveSession(session *models.Session) error {
	return s.DB.Save(session).Error
}

// CloseSession marks a session ended without touching its log.
func (s *Service) CloseSession(sessionID string) error {
	return s.DB.Model(&models.Session{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"status":   models.SessionEnded,
			"ended_at": gorm.Expr("NOW()"),
		}).Error
}

// SaveSessionMessage appends one session message row.
func (s *Service) SaveSessionMessage(msg *models.SessionMessage) error {
	if err := s.DB.Create(msg).Error; err != nil {
		log.Printf("ERROR: Failed to save message for session %s: %v", msg.SessionID, err)
		return err
	}
	return nil
}

// SaveFriendRequest upserts the session's friend request.
func (s *Service) SaveFriendRequest(req *models.FriendRequest) error {
	return s.DB.Save(req).Error
}

// SaveChat upserts a saved chat record.
func (s *Service) SaveChat(chat *models.SavedChat) error {
	return s.DB.Save(chat).Error
}

// SaveChatMessage appends one saved-chat message row.
func (s *Service) SaveChatMessage(msg *models.SavedChatMessage) error {
	if err := s.DB.Create(msg).Error; err != nil {
		log.Printf("ERROR: Failed to save message for chat %s: %v", msg.ChatID, err)
		return err
	}
	return nil
}

// SaveChatMembers registers a chat in each user's chat index.
func (s *Service) SaveChatMembers(chatID string, userIDs ...string) error {
	members := make([]models.ChatMember, 0, len(userIDs))
	for _, id := range userIDs {
		members = append(members, models.ChatMember{ChatID: chatID, UserID: id})
	}
	return s.DB.Save(&members).Error
}

// GetActiveSessions returns all sessions still marked active, used to
// rebuild in-memory state after a restart.
func (s *Service) GetActiveSessions() ([]models.Session, error) {
	var sessions []models.Session
	if err := s.DB.Where("status = ?", models.SessionActive).Find(&sessions).Error; err != nil {
		log.Printf("ERROR: Failed to retrieve active sessions: %v", err)
		return nil, err
	}
	return sessions, nil
}

// GetSessionMessages returns a session's log in append order.
func (s *Service) GetSessionMessages(sessionID string) ([]models.SessionMessage, error) {
	var msgs []models.SessionMessage
	err := s.DB.Where("session_id = ?", sessionID).Order("sequence asc").Find(&msgs).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return msgs, nil
		}
		log.Printf("ERROR: Failed to get messages for session %s: %v", sessionID, err)
		return nil, err
	}
	return msgs, nil
}

// GetFriendRequests returns every stored friend request.
func (s *Service) GetFriendRequests() ([]models.FriendRequest, error) {
	var reqs []models.FriendRequest
	if err := s.DB.Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

// GetChats returns every saved chat.
func (s *Service) GetChats() ([]models.SavedChat, error) {
	var chats []models.SavedChat
	if err := s.DB.Find(&chats).Error; err != nil {
		return nil, err
	}
	return chats, nil
}

// GetChatMembers returns the full per-user chat index.
func (s *Service) GetChatMembers() ([]models.ChatMember, error) {
	var members []models.ChatMember
	if err := s.DB.Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// GetAllChatMessages returns every saved-chat message, grouped by chat
// and ordered by sequence, for boot-time restore.
func (s *Service) GetAllChatMessages() ([]models.SavedChatMessage, error) {
	var msgs []models.SavedChatMessage
	if err := s.DB.Order("chat_id, sequence asc").Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// GetChatsForUser resolves the user's chat index into chat records,
// newest activity first.
func (s *Service) GetChatsForUser(userID string) ([]models.SavedChat, error) {
	var chats []models.SavedChat
	err := s.DB.
		Joins("JOIN chat_members ON chat_members.chat_id = saved_chats.chat_id").
		Where("chat_members.user_id = ?", userID).
		Order("saved_chats.last_message_at desc").
		Find(&chats).Error
	if err != nil {
		log.Printf("ERROR: Failed to get chats for user %s: %v", userID, err)
		return nil, err
	}
	return chats, nil
}

// AddUserToSearchQueue mirrors a queue entry into Redis.
func (s *Service) AddUserToSearchQueue(userID string) error {
	return s.Redis.SAdd(s.Ctx, searchQueueKey, userID).Err()
}

// RemoveUserFromSearchQueue removes the Redis queue mirror entry.
func (s *Service) RemoveUserFromSearchQueue(userID string) error {
	return s.Redis.SRem(s.Ctx, searchQueueKey, userID).Err()
}

// ClearSearchQueue drops the whole queue mirror. Called on boot:
// a queue entry without its live caller is stale.
func (s *Service) ClearSearchQueue() error {
	return s.Redis.Del(s.Ctx, searchQueueKey).Err()
}

// PublishEvent broadcasts a realtime event to every node's hub.
func (s *Service) PublishEvent(event models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.Redis.Publish(s.Ctx, EventsChannel, payload).Err()
}

// SubscribeEvents subscribes to the realtime event channel.
func (s *Service) SubscribeEvents() *redis.PubSub {
	return s.Redis.Subscribe(s.Ctx, EventsChannel)
}
