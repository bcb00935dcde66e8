package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
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

// ProductFinder is the slice of the catalog order creation needs.
type ProductFinder interface {
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service defines order operations.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*OrderDTO, error)
	List(ctx context.Context, userID uuid.UUID, params pagination.Params, filters Filters) ([]OrderDTO, string, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	GetByNumber(ctx context.Context, userID uuid.UUID, orderNumber string) (*OrderDTO, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
}

// CreateOrderItemInput is one requested line. Price is optional; when absent
// the product's current price is snapshotted.
type CreateOrderItemInput struct {
	ProductID uuid.UUID        `json:"product_id" validate:"required"`
	Quantity  int              `json:"quantity" validate:"required,gte=1"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}

// CreateOrderInput captures the fields accepted when placing an order.
type CreateOrderInput struct {
	Items             []CreateOrderItemInput `json:"items" validate:"required,min=1,dive"`
	PaymentMethod     enums.PaymentMethod    `json:"payment_method" validate:"required"`
	ShippingAddressID *uuid.UUID             `json:"shipping_address_id,omitempty"`
	BillingAddressID  *uuid.UUID             `json:"billing_address_id,omitempty"`
	Subtotal          *decimal.Decimal       `json:"subtotal,omitempty"`
	ShippingCost      decimal.Decimal        `json:"shipping_cost"`
	Tax               decimal.Decimal        `json:"tax"`
	Discount          decimal.Decimal        `json:"discount"`
	Total             *decimal.Decimal       `json:"total,omitempty"`
	Notes             string                 `json:"notes,omitempty"`
}

type service struct {
	repo     Repository
	tx       txRunner
	products ProductFinder
	now      func() time.Time
}

// NewService builds the orders service with the required dependencies.
func NewService(repo Repository, tx txRunner, products ProductFinder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product finder required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		products: products,
		now:      time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateOrderInput) (*OrderDTO, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one order item is required")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	now := s.now().UTC()
	order := &models.Order{
		UserID:            userID,
		OrderNumber:       GenerateOrderNumber(now),
		Status:            enums.OrderStatusPending,
		PaymentMethod:     input.PaymentMethod,
		ShippingAddressID: input.ShippingAddressID,
		BillingAddressID:  input.BillingAddressID,
		ShippingCost:      input.ShippingCost,
		Tax:               input.Tax,
		Discount:          input.Discount,
	}
	if input.Notes != "" {
		order.Notes = &input.Notes
	}

	subtotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(input.Items))
	for _, line := range input.Items {
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be at least 1")
		}
		product, err := s.products.FindProductByID(ctx, line.ProductID)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product %s does not exist", line.ProductID))
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
		}

		price := product.EffectivePrice()
		if line.Price != nil {
			price = *line.Price
		}
		if price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item price cannot be negative")
		}

		item := models.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     price,
		}
		subtotal = subtotal.Add(item.Total())
		items = append(items, item)
	}

	if input.Subtotal != nil {
		order.Subtotal = *input.Subtotal
	} else {
		order.Subtotal = subtotal
	}
	if input.Total != nil {
		order.Total = *input.Total
	} else {
		order.Total = order.CalculateTotal()
	}
	order.Items = items

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := s.repo.WithTx(tx).Create(ctx, order)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
	}

	created, err := s.repo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading order")
	}
	return NewOrderDTO(created), nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params, filters Filters) ([]OrderDTO, string, error) {
	list, err := s.repo.ListByUser(ctx, userID, params, filters)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	dtos := make([]OrderDTO, 0, len(list.Orders))
	for i := range list.Orders {
		dtos = append(dtos, *NewOrderDTO(&list.Orders[i]))
	}
	return dtos, list.NextCursor, nil
}

func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.ownedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	return NewOrderDTO(order), nil
}

func (s *service) GetByNumber(ctx context.Context, userID uuid.UUID, orderNumber string) (*OrderDTO, error) {
	order, err := s.repo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return NewOrderDTO(order), nil
}

// Cancel moves a pending or processing order to cancelled. Shipped and
// delivered orders cannot be cancelled.
func (s *service) Cancel(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.ownedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	switch order.Status {
	case enums.OrderStatusPending, enums.OrderStatusProcessing:
	case enums.OrderStatusCancelled:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is already cancelled")
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot cancel a %s order", order.Status))
	}

	if err := s.repo.UpdateStatus(ctx, order.ID, enums.OrderStatusCancelled, nil); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancelling order")
	}

	updated, err := s.repo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading order")
	}
	return NewOrderDTO(updated), nil
}

func (s *service) ownedOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

// GenerateOrderNumber derives the human-facing order number from the
// creation time, matching the ORD-YYYYMMDDHHMMSS convention.
func GenerateOrderNumber(now time.Time) string {
	return "ORD-" + now.Format("20060102150405")
}
