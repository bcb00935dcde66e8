package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/Aakashmid/Ecommerce-chatbot/pkg/enums"
)

// Address is a shipping or billing record owned by a user. At most one
// address per (user, type) carries the default flag.
type Address struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	Type       enums.AddressType `gorm:"column:address_type;not null" json:"address_type"`
	FullName   string            `gorm:"column:full_name;not null" json:"full_name"`
	Line1      string            `gorm:"column:address_line1;not null" json:"address_line1"`
	Line2      *string           `gorm:"column:address_line2" json:"address_line2,omitempty"`
	City       string            `gorm:"column:city;not null" json:"city"`
	State      string            `gorm:"column:state;not null" json:"state"`
	PostalCode string            `gorm:"column:postal_code;not null" json:"postal_code"`
	Country    string            `gorm:"column:country;not null" json:"country"`
	Phone      *string           `gorm:"column:phone" json:"phone_number,omitempty"`
	IsDefault  bool              `gorm:"column:is_default;not null;default:false" json:"is_default"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
