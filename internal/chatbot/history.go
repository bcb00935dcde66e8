package chatbot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Aakashmid/Ecommerce-chatbot/pkg/enums"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/llm"
)

// HistoryCache is the Redis surface the conversation history needs.
type HistoryCache interface {
	PushChatTurns(ctx context.Context, sessionID string, maxLen int, ttl time.Duration, turns ...any) error
	ChatTurns(ctx context.Context, sessionID string) ([]string, error)
	ClearChatHistory(ctx context.Context, sessionID string) error
}

// Turn is one serialized history entry.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// History is the shared, bounded, expiring conversation cache. Entries live
// in a Redis list per session so every process sees the same context; the
// list is trimmed to maxTurns and expires after ttl of inactivity.
type History struct {
	cache    HistoryCache
	repo     Repository
	maxTurns int
	ttl      time.Duration
}

// NewHistory builds the history cache around the provided stores.
func NewHistory(cache HistoryCache, repo Repository, maxTurns int, ttl time.Duration) (*History, error) {
	if cache == nil {
		return nil, fmt.Errorf("history cache required")
	}
	if repo == nil {
		return nil, fmt.Errorf("chatbot repository required")
	}
	return &History{
		cache:    cache,
		repo:     repo,
		maxTurns: maxTurns,
		ttl:      ttl,
	}, nil
}

// Load returns the session's turns oldest first. A cache miss hydrates the
// list from the persisted transcript: user messages keep the user role,
// everything else becomes an assistant turn.
func (h *History) Load(ctx context.Context, sessionID string, sessionRowID uuid.UUID) ([]Turn, error) {
	raw, err := h.cache.ChatTurns(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("reading chat history: %w", err)
	}
	if len(raw) > 0 {
		return decodeTurns(raw)
	}

	messages, err := h.repo.ListMessagesBySession(ctx, sessionRowID)
	if err != nil {
		return nil, fmt.Errorf("hydrating chat history: %w", err)
	}
	if len(messages) == 0 {
		return nil, nil
	}

	turns := make([]Turn, 0, len(messages))
	for i := range messages {
		role := llm.RoleAssistant
		if messages[i].MessageType == enums.MessageTypeUser {
			role = llm.RoleUser
		}
		turns = append(turns, Turn{Role: role, Content: messages[i].Content})
	}
	if err := h.Append(ctx, sessionID, turns...); err != nil {
		return nil, err
	}
	return turns, nil
}

// Append pushes turns onto the session list, trimming and refreshing the TTL.
func (h *History) Append(ctx context.Context, sessionID string, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}
	encoded := make([]any, 0, len(turns))
	for _, turn := range turns {
		data, err := json.Marshal(turn)
		if err != nil {
			return fmt.Errorf("encoding history turn: %w", err)
		}
		encoded = append(encoded, string(data))
	}
	if err := h.cache.PushChatTurns(ctx, sessionID, h.maxTurns, h.ttl, encoded...); err != nil {
		return fmt.Errorf("appending chat history: %w", err)
	}
	return nil
}

// Clear drops the cached list, forcing the next Load to hydrate from the DB.
func (h *History) Clear(ctx context.Context, sessionID string) error {
	return h.cache.ClearChatHistory(ctx, sessionID)
}

func decodeTurns(raw []string) ([]Turn, error) {
	turns := make([]Turn, 0, len(raw))
	for _, entry := range raw {
		var turn Turn
		if err := json.Unmarshal([]byte(entry), &turn); err != nil {
			return nil, fmt.Errorf("decoding history turn: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}
