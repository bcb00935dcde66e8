package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/Aakashmid/Ecommerce-chatbot/pkg/db/models"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/enums"
)

// UserDTO is the user payload returned to clients. The password hash never
// leaves the service layer.
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Phone       string     `json:"phone,omitempty"`
	IsAdmin     bool       `json:"is_admin"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	DateJoined  time.Time  `json:"date_joined"`
}

// AddressDTO is the address payload returned to clients.
type AddressDTO struct {
	ID         uuid.UUID         `json:"id"`
	Type       enums.AddressType `json:"type"`
	FullName   string            `json:"full_name"`
	Line1      string            `json:"line1"`
	Line2      string            `json:"line2,omitempty"`
	City       string            `json:"city"`
	State      string            `json:"state"`
	PostalCode string            `json:"postal_code"`
	Country    string            `json:"country"`
	Phone      string            `json:"phone,omitempty"`
	IsDefault  bool              `json:"is_default"`
	CreatedAt  time.Time         `json:"created_at"`
}

// UserList is one page of users plus the cursor for the next page.
type UserList struct {
	Users      []models.User
	NextCursor string
}

// NewUserDTO builds a DTO from the persisted model.
func NewUserDTO(user *models.User) *UserDTO {
	dto := &UserDTO{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		IsAdmin:     user.IsAdmin,
		IsActive:    user.IsActive,
		LastLoginAt: user.LastLoginAt,
		DateJoined:  user.CreatedAt,
	}
	if user.Phone != nil {
		dto.Phone = *user.Phone
	}
	return dto
}

// NewAddressDTO builds a DTO from the persisted model.
func NewAddressDTO(address *models.Address) *AddressDTO {
	dto := &AddressDTO{
		ID:         address.ID,
		Type:       address.Type,
		FullName:   address.FullName,
		Line1:      address.Line1,
		City:       address.City,
		State:      address.State,
		PostalCode: address.PostalCode,
		Country:    address.Country,
		IsDefault:  address.IsDefault,
		CreatedAt:  address.CreatedAt,
	}
	if address.Line2 != nil {
		dto.Line2 = *address.Line2
	}
	if address.Phone != nil {
		dto.Phone = *address.Phone
	}
	return dto
}
