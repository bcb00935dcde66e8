package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents the canonical identity entity.
type User struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email        string     `gorm:"column:email;type:text;not null;uniqueIndex" json:"email"`
	PasswordHash string     `gorm:"column:password_hash;not null" json:"-"`
	FirstName    string     `gorm:"column:first_name;not null" json:"first_name"`
	LastName     string     `gorm:"column:last_name;not null" json:"last_name"`
	Phone        *string    `gorm:"column:phone" json:"phone_number,omitempty"`
	IsAdmin      bool       `gorm:"column:is_admin;not null;default:false" json:"is_admin"`
	IsActive     bool       `gorm:"column:is_active;not null;default:true" json:"is_active"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at" json:"last_login,omitempty"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime" json:"date_joined"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}
