package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Aakashmid/Ecommerce-chatbot/pkg/enums"
)

// ChatbotSession is a durable conversation record keyed by an opaque
// session identifier. Completed is terminal; there is no automatic timeout
// transition.
type ChatbotSession struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID       uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	SessionID    string              `gorm:"column:session_id;not null;uniqueIndex" json:"session_id"`
	Status       enums.SessionStatus `gorm:"column:status;not null;default:'active'" json:"status"`
	StartedAt    time.Time           `gorm:"column:started_at;autoCreateTime" json:"started_at"`
	LastActivity time.Time           `gorm:"column:last_activity;autoUpdateTime;index" json:"last_activity"`
	EndedAt      *time.Time          `gorm:"column:ended_at" json:"ended_at,omitempty"`
}

// Duration returns how long the session has run, using EndedAt when set.
func (s *ChatbotSession) Duration(now time.Time) time.Duration {
	end := now
	if s.EndedAt != nil {
		end = *s.EndedAt
	}
	return end.Sub(s.StartedAt)
}

// IsActive reports whether the session accepts new messages.
func (s *ChatbotSession) IsActive() bool {
	return s.Status == enums.SessionStatusActive
}
