package chatbot

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aakashmid/Ecommerce-chatbot/pkg/db/models"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/enums"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/llm"
)

func TestHistoryAppendAndLoad(t *testing.T) {
	h := newChatHarness(t)
	ctx := context.Background()
	session := h.newSession(t, uuid.New())

	require.NoError(t, h.svc.history.Append(ctx, session.SessionID,
		Turn{Role: llm.RoleUser, Content: "first"},
		Turn{Role: llm.RoleAssistant, Content: "second"},
	))

	turns, err := h.svc.history.Load(ctx, session.SessionID, session.ID)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, llm.RoleUser, turns[0].Role)
	assert.Equal(t, "first", turns[0].Content)
	assert.Equal(t, llm.RoleAssistant, turns[1].Role)
}

func TestHistoryLoadHydratesFromTranscript(t *testing.T) {
	h := newChatHarness(t)
	ctx := context.Background()
	session := h.newSession(t, uuid.New())

	base := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	rows := []models.ChatMessage{
		{SessionID: session.ID, MessageType: enums.MessageTypeUser, Content: "where is my order?", Timestamp: base},
		{SessionID: session.ID, MessageType: enums.MessageTypeBot, Content: "Let me check that for you.", Timestamp: base.Add(time.Millisecond)},
	}
	require.NoError(t, h.conn.Create(&rows).Error)

	// cache is empty, so Load must fall back to the transcript
	turns, err := h.svc.history.Load(ctx, session.SessionID, session.ID)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, llm.RoleUser, turns[0].Role)
	assert.Equal(t, llm.RoleAssistant, turns[1].Role)
	assert.Equal(t, "Let me check that for you.", turns[1].Content)

	// hydration warms the cache for the next read
	cached, err := h.cache.ChatTurns(ctx, session.SessionID)
	require.NoError(t, err)
	assert.Len(t, cached, 2)
}

func TestHistoryBounded(t *testing.T) {
	h := newChatHarness(t)
	ctx := context.Background()
	session := h.newSession(t, uuid.New())

	for i := 0; i < 15; i++ {
		require.NoError(t, h.svc.history.Append(ctx, session.SessionID,
			Turn{Role: llm.RoleUser, Content: string(rune('a' + i))}))
	}

	turns, err := h.svc.history.Load(ctx, session.SessionID, session.ID)
	require.NoError(t, err)
	// harness configures maxTurns = 10; the oldest entries fall off
	require.Len(t, turns, 10)
	assert.Equal(t, "f", turns[0].Content)
	assert.Equal(t, "o", turns[9].Content)
}

func TestHistoryClear(t *testing.T) {
	h := newChatHarness(t)
	ctx := context.Background()
	session := h.newSession(t, uuid.New())

	require.NoError(t, h.svc.history.Append(ctx, session.SessionID, Turn{Role: llm.RoleUser, Content: "hi"}))
	require.NoError(t, h.svc.history.Clear(ctx, session.SessionID))

	cached, err := h.cache.ChatTurns(ctx, session.SessionID)
	require.NoError(t, err)
	assert.Empty(t, cached)
}
