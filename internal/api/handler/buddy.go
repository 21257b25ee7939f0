package handler

import (
	"errors"
	"log"
	"net/http"

	"talkbuddy/backend/internal/buddy"
	"talkbuddy/backend/internal/models"

	"github.com/gin-gonic/gin"
)

type joinRequest struct {
	Role string `json:"role" binding:"required"`
}

type textRequest struct {
	Text string `json:"text" binding:"required"`
}

type friendRequestBody struct {
	ToUserID string `json:"to_user_id" binding:"required"`
}

// Join enqueues the caller for matchmaking.
func (h *Handler) Join(c *gin.Context) {
	var body joinRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role is required"})
		return
	}
	role, ok := models.ParseRole(body.Role)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be listener or seeker"})
		return
	}

	result, err := h.Matchmaker.Join(callerID(c), role)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Leave removes the caller from the queue and ends any live session.
// Always acks.
func (h *Handler) Leave(c *gin.Context) {
	if err := h.Matchmaker.Leave(callerID(c)); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// State returns the caller's current queue membership, active session
// and pending friend request. Server state is the source of truth;
// reconnecting clients resync here instead of trusting local caches.
func (h *Handler) State(c *gin.Context) {
	userID := callerID(c)
	resp := gin.H{
		"queued":     h.Matchmaker.Waiting(userID),
		"session_id": nil,
	}
	if sessionID, ok := h.Sessions.ActiveSessionFor(userID); ok {
		resp["session_id"] = sessionID
		if req, ok := h.Requests.Status(sessionID); ok {
			resp["friend_request"] = req
		}
	}
	c.JSON(http.StatusOK, resp)
}

// SendMessage appends a message to the caller's session.
func (h *Handler) SendMessage(c *gin.Context) {
	var body textRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	msg, err := h.Sessions.AppendMessage(c.Param("id"), callerID(c), body.Text)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// ListMessages returns the session log from the caller's viewpoint.
func (h *Handler) ListMessages(c *gin.Context) {
	views, err := h.Sessions.ListMessages(c.Param("id"), callerID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": views})
}

// SendFriendRequest opens the handshake on the caller's session.
func (h *Handler) SendFriendRequest(c *gin.Context) {
	var body friendRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to_user_id is required"})
		return
	}

	if err := h.Requests.SendRequest(c.Param("id"), callerID(c), body.ToUserID); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// FriendRequestStatus returns the session's request, or null.
func (h *Handler) FriendRequestStatus(c *gin.Context) {
	req, ok := h.Requests.Status(c.Param("id"))
	if !ok {
		c.JSON(http.StatusOK, gin.H{"friend_request": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"friend_request": req})
}

// AcceptFriendRequest resolves the handshake and returns the chat id
// the session was promoted into.
func (h *Handler) AcceptFriendRequest(c *gin.Context) {
	chatID, err := h.Requests.Accept(c.Param("id"), callerID(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chat_id": chatID})
}

// DeclineFriendRequest resolves the handshake negatively.
func (h *Handler) DeclineFriendRequest(c *gin.Context) {
	if err := h.Requests.Decline(c.Param("id"), callerID(c)); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ListSavedChats returns the caller's saved chat summaries.
func (h *Handler) ListSavedChats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"chats": h.Chats.ListFor(callerID(c))})
}

// SendSavedChatMessage appends to a saved chat and returns the
// updated summary.
func (h *Handler) SendSavedChatMessage(c *gin.Context) {
	var body textRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	chat, err := h.Chats.Append(c.Param("id"), callerID(c), body.Text)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

// abortWithError maps core failures onto HTTP statuses. Unknown
// errors are internal: logged, and never leaked to the caller.
func abortWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, buddy.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, buddy.ErrAlreadyActive), errors.Is(err, buddy.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, buddy.ErrSessionNotFound),
		errors.Is(err, buddy.ErrRequestNotFound),
		errors.Is(err, buddy.ErrChatNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, buddy.ErrSessionEnded):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	case errors.Is(err, buddy.ErrNotParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		log.Printf("ERROR: internal failure on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
