package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Aakashmid/Ecommerce-chatbot/pkg/enums"
)

// Order snapshots monetary totals and a human-readable order number at
// creation time. Invariant: Total = Subtotal + ShippingCost + Tax - Discount
// unless a total was supplied explicitly.
type Order struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID            uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	OrderNumber       string              `gorm:"column:order_number;not null;uniqueIndex" json:"order_number"`
	Status            enums.OrderStatus   `gorm:"column:status;not null;default:'pending';index" json:"status"`
	PaymentMethod     enums.PaymentMethod `gorm:"column:payment_method;not null;default:'cod'" json:"payment_method"`
	ShippingAddressID *uuid.UUID          `gorm:"column:shipping_address_id;type:uuid" json:"shipping_address_id,omitempty"`
	BillingAddressID  *uuid.UUID          `gorm:"column:billing_address_id;type:uuid" json:"billing_address_id,omitempty"`
	Subtotal          decimal.Decimal     `gorm:"column:subtotal;type:numeric(10,2);not null" json:"subtotal"`
	ShippingCost      decimal.Decimal     `gorm:"column:shipping_cost;type:numeric(10,2);not null;default:0" json:"shipping_cost"`
	Tax               decimal.Decimal     `gorm:"column:tax;type:numeric(10,2);not null;default:0" json:"tax"`
	Discount          decimal.Decimal     `gorm:"column:discount;type:numeric(10,2);not null;default:0" json:"discount"`
	Total             decimal.Decimal     `gorm:"column:total;type:numeric(10,2);not null" json:"total"`
	Notes             *string             `gorm:"column:notes" json:"notes,omitempty"`
	TrackingNumber    *string             `gorm:"column:tracking_number" json:"tracking_number,omitempty"`
	Items             []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	PaidAt            *time.Time          `gorm:"column:paid_at" json:"paid_at,omitempty"`
	ShippedAt         *time.Time          `gorm:"column:shipped_at" json:"shipped_at,omitempty"`
	DeliveredAt       *time.Time          `gorm:"column:delivered_at" json:"delivered_at,omitempty"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// CalculateTotal derives the invariant total from the snapshot components.
func (o *Order) CalculateTotal() decimal.Decimal {
	return o.Subtotal.Add(o.ShippingCost).Add(o.Tax).Sub(o.Discount)
}

// IsPaid reports whether a payment timestamp was recorded.
func (o *Order) IsPaid() bool {
	return o.PaidAt != nil
}

// IsShipped reports whether a shipping timestamp was recorded.
func (o *Order) IsShipped() bool {
	return o.ShippedAt != nil
}

// IsDelivered reports whether a delivery timestamp was recorded.
func (o *Order) IsDelivered() bool {
	return o.DeliveredAt != nil
}
