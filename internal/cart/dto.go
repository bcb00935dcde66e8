package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Aakashmid/Ecommerce-chatbot/pkg/db/models"
)

// ItemDTO is one cart row with its line total.
type ItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
	InStock   bool            `json:"in_stock"`
	AddedAt   time.Time       `json:"added_at"`
}

// CartDTO is the user's full cart with the summed total.
type CartDTO struct {
	Items []ItemDTO       `json:"items"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// NewItemDTO builds a DTO from the persisted row; Product must be preloaded.
func NewItemDTO(item *models.CartItem) ItemDTO {
	dto := ItemDTO{
		ID:        item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		AddedAt:   item.CreatedAt,
	}
	if item.Product != nil {
		dto.Name = item.Product.Name
		dto.UnitPrice = item.Product.EffectivePrice()
		dto.LineTotal = dto.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		dto.InStock = item.Product.InStock()
	}
	return dto
}

// NewCartDTO aggregates the rows into the payload returned to clients.
func NewCartDTO(items []models.CartItem) *CartDTO {
	dto := &CartDTO{Items: make([]ItemDTO, 0, len(items)), Total: decimal.Zero}
	for i := range items {
		item := NewItemDTO(&items[i])
		dto.Items = append(dto.Items, item)
		dto.Total = dto.Total.Add(item.LineTotal)
		dto.Count += item.Quantity
	}
	return dto
}
