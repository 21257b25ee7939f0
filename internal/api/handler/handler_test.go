package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"talkbuddy/backend/internal/api/handler"
	"talkbuddy/backend/internal/buddy"
	"talkbuddy/backend/internal/chathub"
	"talkbuddy/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubStorage is a no-op storage.Storage for handler tests; the core
// keeps authoritative state in memory, so persistence can be inert.
type stubStorage struct{}

func (stubStorage) SaveSession(*models.Session) error                          { return nil }
func (stubStorage) CloseSession(string) error                                  { return nil }
func (stubStorage) SaveSessionMessage(*models.SessionMessage) error            { return nil }
func (stubStorage) SaveFriendRequest(*models.FriendRequest) error              { return nil }
func (stubStorage) SaveChat(*models.SavedChat) error                           { return nil }
func (stubStorage) SaveChatMessage(*models.SavedChatMessage) error             { return nil }
func (stubStorage) SaveChatMembers(string, ...string) error                    { return nil }
func (stubStorage) GetActiveSessions() ([]models.Session, error)               { return nil, nil }
func (stubStorage) GetSessionMessages(string) ([]models.SessionMessage, error) { return nil, nil }
func (stubStorage) GetFriendRequests() ([]models.FriendRequest, error)         { return nil, nil }
func (stubStorage) GetChats() ([]models.SavedChat, error)                      { return nil, nil }
func (stubStorage) GetChatMembers() ([]models.ChatMember, error)               { return nil, nil }
func (stubStorage) GetAllChatMessages() ([]models.SavedChatMessage, error)     { return nil, nil }
func (stubStorage) GetChatsForUser(string) ([]models.SavedChat, error)         { return nil, nil }
func (stubStorage) AddUserToSearchQueue(string) error                          { return nil }
func (stubStorage) RemoveUserFromSearchQueue(string) error                     { return nil }
func (stubStorage) ClearSearchQueue() error                                    { return nil }
func (stubStorage) PublishEvent(models.Event) error                            { return nil }
func (stubStorage) SubscribeEvents() *redis.PubSub                             { return &redis.PubSub{} }

type fixture struct {
	router *gin.Engine
	h      *handler.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := stubStorage{}
	sessions := buddy.NewSessionService(s, nil)
	chats := buddy.NewSavedChatService(s, nil)
	requests := buddy.NewFriendRequestService(sessions, chats, s, nil)
	mm := buddy.NewMatchmaker(sessions, s, nil)
	hub := chathub.NewManager(s)

	h := handler.NewHandler(mm, sessions, requests, chats, hub, []byte("test-secret"))

	r := gin.New()
	r.GET("/anonid", h.GetAnonID)
	auth := r.Group("/", h.AuthRequired())
	auth.GET("/state", h.State)
	auth.POST("/queue/join", h.Join)
	auth.POST("/queue/leave", h.Leave)
	auth.POST("/sessions/:id/messages", h.SendMessage)
	auth.GET("/sessions/:id/messages", h.ListMessages)
	auth.POST("/sessions/:id/friend-request", h.SendFriendRequest)
	auth.GET("/sessions/:id/friend-request", h.FriendRequestStatus)
	auth.POST("/sessions/:id/friend-request/accept", h.AcceptFriendRequest)
	auth.POST("/sessions/:id/friend-request/decline", h.DeclineFriendRequest)
	auth.GET("/chats", h.ListSavedChats)
	auth.POST("/chats/:id/messages", h.SendSavedChatMessage)

	return &fixture{router: r, h: h}
}

// newIdentity mints a token via the anonid endpoint.
func (f *fixture) newIdentity(t *testing.T) (userID, token string) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/anonid", nil)
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["anon_id"], body["token"]
}

func (f *fixture) do(t *testing.T, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body := bytes.NewBuffer(nil)
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(data)
	}
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/queue/join", "", gin.H{"role": "seeker"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodPost, "/queue/join", "not-a-jwt", gin.H{"role": "seeker"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJoinValidation(t *testing.T) {
	f := newFixture(t)
	_, token := f.newIdentity(t)

	w := f.do(t, http.MethodPost, "/queue/join", token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/queue/join", token, gin.H{"role": "moderator"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMatchAndMessageOverHTTP(t *testing.T) {
	f := newFixture(t)
	idA, tokenA := f.newIdentity(t)
	_, tokenB := f.newIdentity(t)

	w := f.do(t, http.MethodPost, "/queue/join", tokenA, gin.H{"role": "seeker"})
	require.Equal(t, http.StatusOK, w.Code)
	var join models.JoinResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &join))
	assert.False(t, join.Matched)

	// Joining twice is a conflict.
	w = f.do(t, http.MethodPost, "/queue/join", tokenA, gin.H{"role": "seeker"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodPost, "/queue/join", tokenB, gin.H{"role": "listener"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &join))
	require.True(t, join.Matched)
	sessionID := join.SessionID

	// A discovers the match by polling state.
	w = f.do(t, http.MethodGet, "/state", tokenA, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var state map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, sessionID, state["session_id"])
	assert.Equal(t, false, state["queued"])

	// B sends; A reads it tagged peer.
	w = f.do(t, http.MethodPost, fmt.Sprintf("/sessions/%s/messages", sessionID), tokenB, gin.H{"text": "hello"})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, fmt.Sprintf("/sessions/%s/messages", sessionID), tokenA, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listing struct {
		Messages []models.MessageView `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	require.Len(t, listing.Messages, 1)
	assert.Equal(t, models.ViewpointPeer, listing.Messages[0].Viewpoint)

	// Stranger in the session is rejected.
	_, tokenC := f.newIdentity(t)
	w = f.do(t, http.MethodPost, fmt.Sprintf("/sessions/%s/messages", sessionID), tokenC, gin.H{"text": "intruding"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Handshake over HTTP: B offers, A accepts, both list the chat.
	w = f.do(t, http.MethodPost, fmt.Sprintf("/sessions/%s/friend-request", sessionID), tokenB, gin.H{"to_user_id": idA})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, fmt.Sprintf("/sessions/%s/friend-request", sessionID), tokenB, gin.H{"to_user_id": idA})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodPost, fmt.Sprintf("/sessions/%s/friend-request/accept", sessionID), tokenA, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var accept map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accept))
	chatID := accept["chat_id"]
	require.NotEmpty(t, chatID)

	for _, token := range []string{tokenA, tokenB} {
		w = f.do(t, http.MethodGet, "/chats", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var chats struct {
			Chats []models.SavedChat `json:"chats"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &chats))
		require.Len(t, chats.Chats, 1)
		assert.Equal(t, chatID, chats.Chats[0].ChatID)
	}

	// Leaving ends the session; messaging it is now gone.
	w = f.do(t, http.MethodPost, "/queue/leave", tokenA, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = f.do(t, http.MethodPost, fmt.Sprintf("/sessions/%s/messages", sessionID), tokenB, gin.H{"text": "late"})
	assert.Equal(t, http.StatusGone, w.Code)

	// The saved chat still accepts messages.
	w = f.do(t, http.MethodPost, fmt.Sprintf("/chats/%s/messages", chatID), tokenB, gin.H{"text": "still here"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNotFoundMappings(t *testing.T) {
	f := newFixture(t)
	_, token := f.newIdentity(t)

	w := f.do(t, http.MethodGet, "/sessions/unknown/messages", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodPost, "/sessions/unknown/friend-request/accept", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodPost, "/chats/unknown/messages", token, gin.H{"text": "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodGet, "/sessions/unknown/friend-request", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"friend_request": null}`, w.Body.String())
}
