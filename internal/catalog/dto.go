package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Aakashmid/Ecommerce-chatbot/pkg/db/models"
)

// ProductDTO represents the product payload returned to clients.
type ProductDTO struct {
	ID            uuid.UUID        `json:"id"`
	Name          string           `json:"name"`
	Slug          string           `json:"slug"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price,omitempty"`
	Stock         int              `json:"stock"`
	InStock       bool             `json:"in_stock"`
	IsFeatured    bool             `json:"is_featured"`
	ImageURL      string           `json:"image_url,omitempty"`
	GalleryImages []string         `json:"gallery_images,omitempty"`
	Category      *CategoryDTO     `json:"category,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// CategoryDTO represents the category payload returned to clients.
type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(product *models.Product) *ProductDTO {
	dto := &ProductDTO{
		ID:            product.ID,
		Name:          product.Name,
		Slug:          product.Slug,
		Price:         product.Price,
		DiscountPrice: product.DiscountPrice,
		Stock:         product.Stock,
		InStock:       product.InStock(),
		IsFeatured:    product.IsFeatured,
		GalleryImages: append([]string{}, product.GalleryImages...),
		CreatedAt:     product.CreatedAt,
		UpdatedAt:     product.UpdatedAt,
	}
	if product.Description != nil {
		dto.Description = *product.Description
	}
	if product.ImageURL != nil {
		dto.ImageURL = *product.ImageURL
	}
	if product.Category != nil {
		dto.Category = NewCategoryDTO(product.Category)
	}
	return dto
}

// NewCategoryDTO builds a DTO from the persisted model.
func NewCategoryDTO(category *models.Category) *CategoryDTO {
	return &CategoryDTO{
		ID:          category.ID,
		Name:        category.Name,
		Slug:        category.Slug,
		Description: category.Description,
	}
}

// ProductFilters describe the supported filter knobs for the browse endpoint.
type ProductFilters struct {
	CategorySlug string
	PriceMin     *decimal.Decimal
	PriceMax     *decimal.Decimal
	Featured     *bool
	InStock      *bool
	Query        string
}

// SearchFilters are the looser inputs accepted by the chatbot search tool.
type SearchFilters struct {
	Category   string
	PriceLimit *decimal.Decimal
	Keyword    string
}

// ProductList is one page of products plus the cursor for the next page.
type ProductList struct {
	Products   []models.Product
	NextCursor string
}
