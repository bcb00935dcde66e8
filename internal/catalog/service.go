package catalog

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/Aakashmid/Ecommerce-chatbot/pkg/db"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/db/models"
	pkgerrors "github.com/Aakashmid/Ecommerce-chatbot/pkg/errors"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/pagination"
)

// Service exposes catalog operations to controllers and the chatbot tools.
type Service interface {
	ListProducts(ctx context.Context, params pagination.Params, filters ProductFilters) ([]ProductDTO, string, error)
	GetProduct(ctx context.Context, idOrSlug string) (*ProductDTO, error)
	SearchProducts(ctx context.Context, filters SearchFilters, limit int) ([]ProductDTO, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	ListCategories(ctx context.Context) ([]CategoryDTO, error)
	GetCategory(ctx context.Context, idOrSlug string) (*CategoryDTO, error)
	CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, input UpdateCategoryInput) (*CategoryDTO, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

// CreateProductInput captures the fields accepted when creating a product.
type CreateProductInput struct {
	Name          string           `json:"name" validate:"required,min=2,max=200"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price" validate:"required"`
	DiscountPrice *decimal.Decimal `json:"discount_price,omitempty"`
	Stock         int              `json:"stock" validate:"gte=0"`
	IsFeatured    bool             `json:"is_featured"`
	ImageURL      string           `json:"image_url,omitempty" validate:"omitempty,url"`
	GalleryImages []string         `json:"gallery_images,omitempty" validate:"dive,url"`
	CategoryID    uuid.UUID        `json:"category_id" validate:"required"`
}

// UpdateProductInput captures the partial-update fields for a product.
type UpdateProductInput struct {
	Name          *string          `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Description   *string          `json:"description,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	DiscountPrice *decimal.Decimal `json:"discount_price,omitempty"`
	Stock         *int             `json:"stock,omitempty" validate:"omitempty,gte=0"`
	IsFeatured    *bool            `json:"is_featured,omitempty"`
	ImageURL      *string          `json:"image_url,omitempty" validate:"omitempty,url"`
	GalleryImages []string         `json:"gallery_images,omitempty" validate:"dive,url"`
	CategoryID    *uuid.UUID       `json:"category_id,omitempty"`
}

// CreateCategoryInput captures the fields accepted when creating a category.
type CreateCategoryInput struct {
	Name        string  `json:"name" validate:"required,min=2,max=100"`
	Description *string `json:"description,omitempty"`
}

// UpdateCategoryInput captures the partial-update fields for a category.
type UpdateCategoryInput struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Description *string `json:"description,omitempty"`
}

type service struct {
	repo Repository
}

// NewService builds the catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListProducts(ctx context.Context, params pagination.Params, filters ProductFilters) ([]ProductDTO, string, error) {
	list, err := s.repo.ListProducts(ctx, params, filters)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing products")
	}
	dtos := make([]ProductDTO, 0, len(list.Products))
	for i := range list.Products {
		dtos = append(dtos, *NewProductDTO(&list.Products[i]))
	}
	return dtos, list.NextCursor, nil
}

func (s *service) GetProduct(ctx context.Context, idOrSlug string) (*ProductDTO, error) {
	product, err := s.findProduct(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	return NewProductDTO(product), nil
}

func (s *service) SearchProducts(ctx context.Context, filters SearchFilters, limit int) ([]ProductDTO, error) {
	products, err := s.repo.SearchProducts(ctx, filters, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "searching products")
	}
	dtos := make([]ProductDTO, 0, len(products))
	for i := range products {
		dtos = append(dtos, *NewProductDTO(&products[i]))
	}
	return dtos, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if _, err := s.repo.FindCategoryByID(ctx, input.CategoryID); err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking category")
	}

	product := &models.Product{
		Name:          input.Name,
		Slug:          Slugify(input.Name),
		Price:         input.Price,
		DiscountPrice: input.DiscountPrice,
		Stock:         input.Stock,
		IsFeatured:    input.IsFeatured,
		GalleryImages: pq.StringArray(input.GalleryImages),
		CategoryID:    input.CategoryID,
	}
	if input.Description != "" {
		product.Description = &input.Description
	}
	if input.ImageURL != "" {
		product.ImageURL = &input.ImageURL
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a product with this name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating product")
	}
	return NewProductDTO(created), nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	if _, err := s.repo.FindProductByID(ctx, id); err != nil {
		return nil, notFoundOrInternal(err, "product")
	}

	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = *input.Name
		updates["slug"] = Slugify(*input.Name)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		updates["price"] = *input.Price
	}
	if input.DiscountPrice != nil {
		updates["discount_price"] = *input.DiscountPrice
	}
	if input.Stock != nil {
		updates["stock"] = *input.Stock
	}
	if input.IsFeatured != nil {
		updates["is_featured"] = *input.IsFeatured
	}
	if input.ImageURL != nil {
		updates["image_url"] = *input.ImageURL
	}
	if input.GalleryImages != nil {
		updates["gallery_images"] = pq.StringArray(input.GalleryImages)
	}
	if input.CategoryID != nil {
		if _, err := s.repo.FindCategoryByID(ctx, *input.CategoryID); err != nil {
			if db.IsNotFound(err) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking category")
		}
		updates["category_id"] = *input.CategoryID
	}

	if err := s.repo.UpdateProduct(ctx, id, updates); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a product with this name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating product")
	}

	product, err := s.repo.FindProductByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading product")
	}
	return NewProductDTO(product), nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindProductByID(ctx, id); err != nil {
		return notFoundOrInternal(err, "product")
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting product")
	}
	return nil
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing categories")
	}
	dtos := make([]CategoryDTO, 0, len(categories))
	for i := range categories {
		dtos = append(dtos, *NewCategoryDTO(&categories[i]))
	}
	return dtos, nil
}

func (s *service) GetCategory(ctx context.Context, idOrSlug string) (*CategoryDTO, error) {
	category, err := s.findCategory(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	return NewCategoryDTO(category), nil
}

func (s *service) CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error) {
	category := &models.Category{
		Name:        input.Name,
		Slug:        Slugify(input.Name),
		Description: input.Description,
	}
	created, err := s.repo.CreateCategory(ctx, category)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a category with this name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating category")
	}
	return NewCategoryDTO(created), nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, input UpdateCategoryInput) (*CategoryDTO, error) {
	if _, err := s.repo.FindCategoryByID(ctx, id); err != nil {
		return nil, notFoundOrInternal(err, "category")
	}

	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = *input.Name
		updates["slug"] = Slugify(*input.Name)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}

	if err := s.repo.UpdateCategory(ctx, id, updates); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a category with this name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating category")
	}

	category, err := s.repo.FindCategoryByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading category")
	}
	return NewCategoryDTO(category), nil
}

func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindCategoryByID(ctx, id); err != nil {
		return notFoundOrInternal(err, "category")
	}
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting category")
	}
	return nil
}

func (s *service) findProduct(ctx context.Context, idOrSlug string) (*models.Product, error) {
	var (
		product *models.Product
		err     error
	)
	if id, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		product, err = s.repo.FindProductByID(ctx, id)
	} else {
		product, err = s.repo.FindProductBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return nil, notFoundOrInternal(err, "product")
	}
	return product, nil
}

func (s *service) findCategory(ctx context.Context, idOrSlug string) (*models.Category, error) {
	var (
		category *models.Category
		err      error
	)
	if id, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		category, err = s.repo.FindCategoryByID(ctx, id)
	} else {
		category, err = s.repo.FindCategoryBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return nil, notFoundOrInternal(err, "category")
	}
	return category, nil
}

func notFoundOrInternal(err error, resource string) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, resource+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading "+resource)
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases the name and collapses non-alphanumerics into hyphens.
func Slugify(name string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
