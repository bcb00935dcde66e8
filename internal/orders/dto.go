package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Aakashmid/Ecommerce-chatbot/pkg/db/models"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/enums"
)

// Filters describe the inputs supported by the order list endpoint.
type Filters struct {
	Status   *enums.OrderStatus
	DateFrom *time.Time
	DateTo   *time.Time
}

// OrderList is one page of orders plus the cursor for the next page.
type OrderList struct {
	Orders     []models.Order
	NextCursor string
}

// ItemDTO is one invoiced line with the price frozen at purchase time.
type ItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// OrderDTO is the order payload returned to clients.
type OrderDTO struct {
	ID                uuid.UUID           `json:"id"`
	OrderNumber       string              `json:"order_number"`
	Status            enums.OrderStatus   `json:"status"`
	PaymentMethod     enums.PaymentMethod `json:"payment_method"`
	ShippingAddressID *uuid.UUID          `json:"shipping_address_id,omitempty"`
	BillingAddressID  *uuid.UUID          `json:"billing_address_id,omitempty"`
	Subtotal          decimal.Decimal     `json:"subtotal"`
	ShippingCost      decimal.Decimal     `json:"shipping_cost"`
	Tax               decimal.Decimal     `json:"tax"`
	Discount          decimal.Decimal     `json:"discount"`
	Total             decimal.Decimal     `json:"total"`
	Notes             string              `json:"notes,omitempty"`
	TrackingNumber    string              `json:"tracking_number,omitempty"`
	Items             []ItemDTO           `json:"items"`
	PaidAt            *time.Time          `json:"paid_at,omitempty"`
	ShippedAt         *time.Time          `json:"shipped_at,omitempty"`
	DeliveredAt       *time.Time          `json:"delivered_at,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// NewOrderDTO builds a DTO from the persisted model.
func NewOrderDTO(order *models.Order) *OrderDTO {
	dto := &OrderDTO{
		ID:                order.ID,
		OrderNumber:       order.OrderNumber,
		Status:            order.Status,
		PaymentMethod:     order.PaymentMethod,
		ShippingAddressID: order.ShippingAddressID,
		BillingAddressID:  order.BillingAddressID,
		Subtotal:          order.Subtotal,
		ShippingCost:      order.ShippingCost,
		Tax:               order.Tax,
		Discount:          order.Discount,
		Total:             order.Total,
		Items:             make([]ItemDTO, 0, len(order.Items)),
		PaidAt:            order.PaidAt,
		ShippedAt:         order.ShippedAt,
		DeliveredAt:       order.DeliveredAt,
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
	if order.Notes != nil {
		dto.Notes = *order.Notes
	}
	if order.TrackingNumber != nil {
		dto.TrackingNumber = *order.TrackingNumber
	}
	for i := range order.Items {
		item := &order.Items[i]
		line := ItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			LineTotal: item.Total(),
		}
		if item.Product != nil {
			line.Name = item.Product.Name
		}
		dto.Items = append(dto.Items, line)
	}
	return dto
}
