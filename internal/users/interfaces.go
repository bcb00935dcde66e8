package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Aakashmid/Ecommerce-chatbot/pkg/db/models"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/enums"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/pagination"
)

// Repository defines persistence operations for users and their addresses.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context, params pagination.Params) (*UserList, error)
	UpdateUser(ctx context.Context, id uuid.UUID, updates map[string]any) error

	CreateAddress(ctx context.Context, address *models.Address) (*models.Address, error)
	FindAddressByID(ctx context.Context, id uuid.UUID) (*models.Address, error)
	ListAddressesByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	UpdateAddress(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteAddress(ctx context.Context, id uuid.UUID) error
	ClearDefaultAddresses(ctx context.Context, userID uuid.UUID, addressType enums.AddressType, exceptID uuid.UUID) error
}
