package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Aakashmid/Ecommerce-chatbot/pkg/db"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/db/models"
	pkgerrors "github.com/Aakashmid/Ecommerce-chatbot/pkg/errors"
)

// ProductFinder is the slice of the catalog the cart needs.
type ProductFinder interface {
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes cart operations to controllers and the chatbot tools.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	Add(ctx context.Context, userID uuid.UUID, input AddItemInput) (*ItemDTO, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*ItemDTO, error)
	Remove(ctx context.Context, userID, itemID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

// AddItemInput captures the fields accepted when adding to the cart.
type AddItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"omitempty,gte=1"`
}

type service struct {
	repo     Repository
	products ProductFinder
}

// NewService builds the cart service.
func NewService(repo Repository, products ProductFinder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product finder required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing cart items")
	}
	return NewCartDTO(items), nil
}

// Add upserts a cart row: adding a product already in the cart increments
// its quantity instead of creating a second row.
func (s *service) Add(ctx context.Context, userID uuid.UUID, input AddItemInput) (*ItemDTO, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	quantity := input.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	product, err := s.products.FindProductByID(ctx, input.ProductID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	if !product.InStock() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is out of stock")
	}

	existing, err := s.repo.FindByUserAndProduct(ctx, userID, input.ProductID)
	switch {
	case err == nil:
		newQty := existing.Quantity + quantity
		if err := s.repo.UpdateQuantity(ctx, existing.ID, newQty); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "incrementing cart quantity")
		}
		existing.Quantity = newQty
		dto := NewItemDTO(existing)
		return &dto, nil
	case db.IsNotFound(err):
		item := &models.CartItem{
			UserID:    userID,
			ProductID: input.ProductID,
			Quantity:  quantity,
		}
		created, err := s.repo.Create(ctx, item)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating cart item")
		}
		created.Product = product
		dto := NewItemDTO(created)
		return &dto, nil
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart item")
	}
}

func (s *service) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*ItemDTO, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateQuantity(ctx, item.ID, quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating cart quantity")
	}
	item.Quantity = quantity
	dto := NewItemDTO(item)
	return &dto, nil
}

func (s *service) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, item.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "removing cart item")
	}
	return nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.DeleteByUser(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing cart")
	}
	return nil
}

func (s *service) ownedItem(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error) {
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart item")
	}
	if item.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return item, nil
}
