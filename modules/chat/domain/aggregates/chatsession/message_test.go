package chatsession_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opdesk-io/opdesk/modules/chat/domain/aggregates/chatsession"
)

func TestNewMessage(t *testing.T) {
	t.Parallel()
	sessionID := uuid.New()

	msg, err := chatsession.NewMessage(sessionID, chatsession.SenderClient, "hello")
	require.NoError(t, err)
	assert.Equal(t, sessionID, msg.SessionID())
	assert.Equal(t, chatsession.SenderClient, msg.Sender())
	assert.Equal(t, "hello", msg.Body())
	assert.NotEqual(t, uuid.Nil, msg.ID())
}

func TestNewMessage_RejectsBlankBodies(t *testing.T) {
	t.Parallel()

	for _, body := range []string{"", "   ", "\n\t "} {
		_, err := chatsession.NewMessage(uuid.New(), chatsession.SenderManager, body)
		require.ErrorIs(t, err, chatsession.ErrEmptyMessage)
	}
}

func TestNewSession_StartsInBotMode(t *testing.T) {
	t.Parallel()

	s := chatsession.New(uuid.New(), 42)
	assert.Equal(t, chatsession.ModeBot, s.Mode())
	assert.False(t, s.IsTakenOver())
	assert.Nil(t, s.ManagerUserID())
	assert.Nil(t, s.TakenOverAt())
	assert.Nil(t, s.TakeoverEpoch())
	assert.Zero(t, s.Version())
}
