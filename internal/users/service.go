package users

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Aakashmid/Ecommerce-chatbot/pkg/db"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/db/models"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/enums"
	pkgerrors "github.com/Aakashmid/Ecommerce-chatbot/pkg/errors"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes profile and address operations.
type Service interface {
	Me(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateMe(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error)
	List(ctx context.Context, params pagination.Params) ([]UserDTO, string, error)

	ListAddresses(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error)
	GetAddress(ctx context.Context, userID, addressID uuid.UUID) (*AddressDTO, error)
	CreateAddress(ctx context.Context, userID uuid.UUID, input AddressInput) (*AddressDTO, error)
	UpdateAddress(ctx context.Context, userID, addressID uuid.UUID, input UpdateAddressInput) (*AddressDTO, error)
	DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error
}

// UpdateProfileInput captures the self-service profile fields.
type UpdateProfileInput struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=20"`
}

// AddressInput captures the fields accepted when creating an address.
type AddressInput struct {
	Type       enums.AddressType `json:"type" validate:"required"`
	FullName   string            `json:"full_name" validate:"required,max=200"`
	Line1      string            `json:"line1" validate:"required,max=255"`
	Line2      string            `json:"line2,omitempty" validate:"omitempty,max=255"`
	City       string            `json:"city" validate:"required,max=100"`
	State      string            `json:"state" validate:"required,max=100"`
	PostalCode string            `json:"postal_code" validate:"required,max=20"`
	Country    string            `json:"country" validate:"required,max=100"`
	Phone      string            `json:"phone,omitempty" validate:"omitempty,max=20"`
	IsDefault  bool              `json:"is_default"`
}

// UpdateAddressInput captures the partial-update fields for an address.
type UpdateAddressInput struct {
	Type       *enums.AddressType `json:"type,omitempty"`
	FullName   *string            `json:"full_name,omitempty" validate:"omitempty,max=200"`
	Line1      *string            `json:"line1,omitempty" validate:"omitempty,max=255"`
	Line2      *string            `json:"line2,omitempty" validate:"omitempty,max=255"`
	City       *string            `json:"city,omitempty" validate:"omitempty,max=100"`
	State      *string            `json:"state,omitempty" validate:"omitempty,max=100"`
	PostalCode *string            `json:"postal_code,omitempty" validate:"omitempty,max=20"`
	Country    *string            `json:"country,omitempty" validate:"omitempty,max=100"`
	Phone      *string            `json:"phone,omitempty" validate:"omitempty,max=20"`
	IsDefault  *bool              `json:"is_default,omitempty"`
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds the users service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}
	return NewUserDTO(user), nil
}

func (s *service) UpdateMe(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error) {
	updates := map[string]any{}
	if input.FirstName != nil {
		updates["first_name"] = *input.FirstName
	}
	if input.LastName != nil {
		updates["last_name"] = *input.LastName
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}

	if err := s.repo.UpdateUser(ctx, userID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating user")
	}
	return s.Me(ctx, userID)
}

func (s *service) List(ctx context.Context, params pagination.Params) ([]UserDTO, string, error) {
	list, err := s.repo.ListUsers(ctx, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing users")
	}
	dtos := make([]UserDTO, 0, len(list.Users))
	for i := range list.Users {
		dtos = append(dtos, *NewUserDTO(&list.Users[i]))
	}
	return dtos, list.NextCursor, nil
}

func (s *service) ListAddresses(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error) {
	addresses, err := s.repo.ListAddressesByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing addresses")
	}
	dtos := make([]AddressDTO, 0, len(addresses))
	for i := range addresses {
		dtos = append(dtos, *NewAddressDTO(&addresses[i]))
	}
	return dtos, nil
}

func (s *service) GetAddress(ctx context.Context, userID, addressID uuid.UUID) (*AddressDTO, error) {
	address, err := s.ownedAddress(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}
	return NewAddressDTO(address), nil
}

// CreateAddress persists the address; marking it default clears any previous
// default of the same type in the same transaction.
func (s *service) CreateAddress(ctx context.Context, userID uuid.UUID, input AddressInput) (*AddressDTO, error) {
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid address type")
	}

	address := &models.Address{
		UserID:     userID,
		Type:       input.Type,
		FullName:   input.FullName,
		Line1:      input.Line1,
		City:       input.City,
		State:      input.State,
		PostalCode: input.PostalCode,
		Country:    input.Country,
		IsDefault:  input.IsDefault,
	}
	if input.Line2 != "" {
		address.Line2 = &input.Line2
	}
	if input.Phone != "" {
		address.Phone = &input.Phone
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.CreateAddress(ctx, address); err != nil {
			return err
		}
		if address.IsDefault {
			return repo.ClearDefaultAddresses(ctx, userID, address.Type, address.ID)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating address")
	}
	return NewAddressDTO(address), nil
}

func (s *service) UpdateAddress(ctx context.Context, userID, addressID uuid.UUID, input UpdateAddressInput) (*AddressDTO, error) {
	address, err := s.ownedAddress(ctx, userID, addressID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	addressType := address.Type
	if input.Type != nil {
		if !input.Type.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid address type")
		}
		updates["address_type"] = *input.Type
		addressType = *input.Type
	}
	if input.FullName != nil {
		updates["full_name"] = *input.FullName
	}
	if input.Line1 != nil {
		updates["address_line1"] = *input.Line1
	}
	if input.Line2 != nil {
		updates["address_line2"] = *input.Line2
	}
	if input.City != nil {
		updates["city"] = *input.City
	}
	if input.State != nil {
		updates["state"] = *input.State
	}
	if input.PostalCode != nil {
		updates["postal_code"] = *input.PostalCode
	}
	if input.Country != nil {
		updates["country"] = *input.Country
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if input.IsDefault != nil {
		updates["is_default"] = *input.IsDefault
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateAddress(ctx, addressID, updates); err != nil {
			return err
		}
		if input.IsDefault != nil && *input.IsDefault {
			return repo.ClearDefaultAddresses(ctx, userID, addressType, addressID)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating address")
	}

	updated, err := s.repo.FindAddressByID(ctx, addressID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading address")
	}
	return NewAddressDTO(updated), nil
}

func (s *service) DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error {
	if _, err := s.ownedAddress(ctx, userID, addressID); err != nil {
		return err
	}
	if err := s.repo.DeleteAddress(ctx, addressID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting address")
	}
	return nil
}

func (s *service) ownedAddress(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	address, err := s.repo.FindAddressByID(ctx, addressID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading address")
	}
	if address.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return address, nil
}
