package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Aakashmid/Ecommerce-chatbot/pkg/enums"
)

// ChatMessage is one turn of a chatbot conversation. Transcript order is
// by Timestamp ascending, not insertion order.
type ChatMessage struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SessionID   uuid.UUID         `gorm:"column:session_id;type:uuid;not null;index" json:"session_id"`
	Session     *ChatbotSession   `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
	MessageType enums.MessageType `gorm:"column:message_type;not null" json:"message_type"`
	Content     string            `gorm:"column:content;not null" json:"content"`
	Timestamp   time.Time         `gorm:"column:timestamp;autoCreateTime;index" json:"timestamp"`
}

// IsFromUser reports whether the message was authored by the end user.
func (m *ChatMessage) IsFromUser() bool {
	return m.MessageType == enums.MessageTypeUser
}
