package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product represents a catalog item. Cart and order line items reference it
// with cascading deletes; order items keep their own price snapshot so later
// edits here never rewrite purchase history.
type Product struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name          string           `gorm:"column:name;not null" json:"name"`
	Slug          string           `gorm:"column:slug;not null;uniqueIndex" json:"slug"`
	Description   *string          `gorm:"column:description" json:"description,omitempty"`
	Price         decimal.Decimal  `gorm:"column:price;type:numeric(10,2);not null" json:"price"`
	DiscountPrice *decimal.Decimal `gorm:"column:discount_price;type:numeric(10,2)" json:"discount_price,omitempty"`
	Stock         int              `gorm:"column:stock;not null;default:0" json:"stock"`
	IsFeatured    bool             `gorm:"column:is_featured;not null;default:false" json:"is_featured"`
	ImageURL      *string          `gorm:"column:image_url" json:"image,omitempty"`
	GalleryImages pq.StringArray   `gorm:"column:gallery_images;type:text[]" json:"addition_images,omitempty"`
	CategoryID    uuid.UUID        `gorm:"column:category_id;type:uuid;not null" json:"category_id"`
	Category      *Category        `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// InStock reports whether any units remain.
func (p *Product) InStock() bool {
	return p.Stock > 0
}

// EffectivePrice returns the discount price when set, otherwise the list price.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPrice != nil {
		return *p.DiscountPrice
	}
	return p.Price
}
