package chatbot

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Aakashmid/Ecommerce-chatbot/pkg/db/models"
)

// Repository defines persistence operations for chat sessions and transcripts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateSession(ctx context.Context, session *models.ChatbotSession) (*models.ChatbotSession, error)
	FindSessionForUser(ctx context.Context, sessionID string, userID uuid.UUID) (*models.ChatbotSession, error)
	ListSessionsByUser(ctx context.Context, userID uuid.UUID) ([]models.ChatbotSession, error)
	UpdateSession(ctx context.Context, id uuid.UUID, updates map[string]any) error

	CreateMessages(ctx context.Context, messages []models.ChatMessage) error
	ListMessagesBySession(ctx context.Context, sessionID uuid.UUID) ([]models.ChatMessage, error)
	CountMessagesBySession(ctx context.Context, sessionID uuid.UUID) (int64, error)
}
