package chatbot

import (
	"time"

	"github.com/google/uuid"

	"github.com/Aakashmid/Ecommerce-chatbot/pkg/db/models"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/enums"
)

// SessionDTO is the session payload returned to clients. Clients address
// sessions by the opaque SessionID, never the row ID.
type SessionDTO struct {
	SessionID    string              `json:"session_id"`
	Status       enums.SessionStatus `json:"status"`
	StartedAt    time.Time           `json:"started_at"`
	LastActivity time.Time           `json:"last_activity"`
	EndedAt      *time.Time          `json:"ended_at,omitempty"`
	MessageCount int64               `json:"message_count,omitempty"`
}

// MessageDTO is one transcript entry.
type MessageDTO struct {
	ID          uuid.UUID         `json:"id"`
	MessageType enums.MessageType `json:"message_type"`
	Content     string            `json:"content"`
	Timestamp   time.Time         `json:"timestamp"`
}

// PostMessageResult bundles the persisted turns returned by the REST endpoint.
type PostMessageResult struct {
	SessionID   string     `json:"session_id"`
	UserMessage MessageDTO `json:"user_message"`
	BotResponse MessageDTO `json:"bot_response"`
}

// CreateSessionInput captures the optional client-chosen session identifier.
type CreateSessionInput struct {
	SessionID string `json:"session_id,omitempty" validate:"omitempty,max=100"`
}

// PostMessageInput is the REST message payload.
type PostMessageInput struct {
	Message string `json:"message" validate:"required"`
}

// NewSessionDTO builds a DTO from the persisted model.
func NewSessionDTO(session *models.ChatbotSession) *SessionDTO {
	return &SessionDTO{
		SessionID:    session.SessionID,
		Status:       session.Status,
		StartedAt:    session.StartedAt,
		LastActivity: session.LastActivity,
		EndedAt:      session.EndedAt,
	}
}

// NewMessageDTO builds a DTO from the persisted model.
func NewMessageDTO(message *models.ChatMessage) MessageDTO {
	return MessageDTO{
		ID:          message.ID,
		MessageType: message.MessageType,
		Content:     message.Content,
		Timestamp:   message.Timestamp,
	}
}
