package buddy_test

import (
	"testing"

	"talkbuddy/backend/internal/buddy"
	"talkbuddy/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFullConversationFlow walks the whole feature: two users match,
// talk, shake hands and end up with a durable chat.
func TestFullConversationFlow(t *testing.T) {
	storageMock := newPermissiveStorage()
	notifier := &recordingNotifier{}
	sessions := buddy.NewSessionService(storageMock, notifier)
	chats := buddy.NewSavedChatService(storageMock, notifier)
	requests := buddy.NewFriendRequestService(sessions, chats, storageMock, notifier)
	mm := buddy.NewMatchmaker(sessions, storageMock, notifier)

	// A joins as seeker and waits; B joins as listener and matches.
	resA, err := mm.Join("user_A", models.RoleSeeker)
	require.NoError(t, err)
	assert.False(t, resA.Matched)

	resB, err := mm.Join("user_B", models.RoleListener)
	require.NoError(t, err)
	require.True(t, resB.Matched)
	sessionID := resB.SessionID

	// A sends a message; B reads it tagged peer.
	_, err = sessions.AppendMessage(sessionID, "user_A", "hi")
	require.NoError(t, err)

	asB, err := sessions.ListMessages(sessionID, "user_B")
	require.NoError(t, err)
	require.Len(t, asB, 1)
	assert.Equal(t, models.ViewpointPeer, asB[0].Viewpoint)
	assert.Equal(t, "hi", asB[0].Text)

	// B offers the handshake, A accepts, both get the chat.
	require.NoError(t, requests.SendRequest(sessionID, "user_B", "user_A"))
	chatID, err := requests.Accept(sessionID, "user_A")
	require.NoError(t, err)
	require.NotEmpty(t, chatID)

	for _, userID := range []string{"user_A", "user_B"} {
		list := chats.ListFor(userID)
		require.Len(t, list, 1, "user %s should see the promoted chat", userID)
		assert.Equal(t, chatID, list[0].ChatID)
		assert.Equal(t, "hi", list[0].Preview)
	}

	// The chat log carries the session history and keeps growing
	// after the session is gone.
	require.NoError(t, mm.Leave("user_A"))
	_, err = sessions.AppendMessage(sessionID, "user_B", "gone?")
	assert.ErrorIs(t, err, buddy.ErrSessionEnded)

	updated, err := chats.Append(chatID, "user_B", "nice meeting you")
	require.NoError(t, err)
	assert.Equal(t, "nice meeting you", updated.Preview)

	msgs, err := chats.Messages(chatID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, int64(1), msgs[0].Sequence)
	assert.Equal(t, int64(2), msgs[1].Sequence)

	// Both users are free to queue again.
	_, err = mm.Join("user_A", models.RoleListener)
	require.NoError(t, err)
	resB, err = mm.Join("user_B", models.RoleSeeker)
	require.NoError(t, err)
	assert.True(t, resB.Matched)
	assert.NotEqual(t, sessionID, resB.SessionID)
}
