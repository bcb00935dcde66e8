package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Aakashmid/Ecommerce-chatbot/pkg/db/models"
	pkgerrors "github.com/Aakashmid/Ecommerce-chatbot/pkg/errors"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/pagination"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	categories := `
CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  slug TEXT NOT NULL UNIQUE,
  description TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT,
  price NUMERIC NOT NULL,
  discount_price NUMERIC,
  stock INTEGER NOT NULL DEFAULT 0,
  is_featured INTEGER NOT NULL DEFAULT 0,
  image_url TEXT,
  gallery_images TEXT,
  category_id TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(categories).Error)
	require.NoError(t, db.Exec(products).Error)
	return db
}

func newCatalogService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	db := setupCatalogTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	return svc, db
}

func seedCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()

	category := &models.Category{
		ID:   uuid.New(),
		Name: name,
		Slug: Slugify(name),
	}
	require.NoError(t, db.Create(category).Error)
	return category
}

func seedProduct(t *testing.T, db *gorm.DB, category *models.Category, name, description string, price decimal.Decimal, stock int) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:         uuid.New(),
		Name:       name,
		Slug:       Slugify(name),
		Price:      price,
		Stock:      stock,
		CategoryID: category.ID,
	}
	if description != "" {
		product.Description = &description
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Wireless Mouse", "wireless-mouse"},
		{"  USB-C  Hub!! ", "usb-c-hub"},
		{"ALLCAPS", "allcaps"},
		{"100% Cotton T-Shirt", "100-cotton-t-shirt"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Slugify(tc.in))
	}
}

func TestCreateCategory(t *testing.T) {
	svc, _ := newCatalogService(t)
	ctx := context.Background()

	created, err := svc.CreateCategory(ctx, CreateCategoryInput{Name: "Gaming Laptops"})
	require.NoError(t, err)
	assert.Equal(t, "gaming-laptops", created.Slug)
	assert.NotEqual(t, uuid.Nil, created.ID)

	_, err = svc.CreateCategory(ctx, CreateCategoryInput{Name: "Gaming Laptops"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestGetCategoryByIDOrSlug(t *testing.T) {
	svc, db := newCatalogService(t)
	ctx := context.Background()

	category := seedCategory(t, db, "Desk Accessories")

	byID, err := svc.GetCategory(ctx, category.ID.String())
	require.NoError(t, err)
	assert.Equal(t, category.Name, byID.Name)

	bySlug, err := svc.GetCategory(ctx, "desk-accessories")
	require.NoError(t, err)
	assert.Equal(t, category.ID, bySlug.ID)

	_, err = svc.GetCategory(ctx, "no-such-category")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestCreateProduct(t *testing.T) {
	svc, db := newCatalogService(t)
	ctx := context.Background()

	category := seedCategory(t, db, "Audio Gear")

	created, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:        "Studio Headphones MK2",
		Description: "closed-back monitoring headphones",
		Price:       decimal.RequireFromString("149.99"),
		Stock:       12,
		CategoryID:  category.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "studio-headphones-mk2", created.Slug)
	assert.Equal(t, "closed-back monitoring headphones", created.Description)
	assert.True(t, created.InStock)

	t.Run("duplicate name conflicts", func(t *testing.T) {
		_, err := svc.CreateProduct(ctx, CreateProductInput{
			Name:       "Studio Headphones MK2",
			Price:      decimal.RequireFromString("99.00"),
			CategoryID: category.ID,
		})
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	})

	t.Run("unknown category rejected", func(t *testing.T) {
		_, err := svc.CreateProduct(ctx, CreateProductInput{
			Name:       "Orphaned Product",
			Price:      decimal.RequireFromString("10.00"),
			CategoryID: uuid.New(),
		})
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		assert.Equal(t, "category does not exist", typed.Message())
	})

	t.Run("negative price rejected", func(t *testing.T) {
		_, err := svc.CreateProduct(ctx, CreateProductInput{
			Name:       "Negative Price Product",
			Price:      decimal.RequireFromString("-1.00"),
			CategoryID: category.ID,
		})
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	})
}

func TestGetProductByIDOrSlug(t *testing.T) {
	svc, db := newCatalogService(t)
	ctx := context.Background()

	category := seedCategory(t, db, "Keyboards")
	product := seedProduct(t, db, category, "Tenkeyless Keyboard", "87-key mechanical board", decimal.RequireFromString("89.00"), 5)

	byID, err := svc.GetProduct(ctx, product.ID.String())
	require.NoError(t, err)
	assert.Equal(t, product.Name, byID.Name)
	require.NotNil(t, byID.Category)
	assert.Equal(t, "keyboards", byID.Category.Slug)

	bySlug, err := svc.GetProduct(ctx, "tenkeyless-keyboard")
	require.NoError(t, err)
	assert.Equal(t, product.ID, bySlug.ID)

	_, err = svc.GetProduct(ctx, uuid.NewString())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestUpdateProduct(t *testing.T) {
	svc, db := newCatalogService(t)
	ctx := context.Background()

	category := seedCategory(t, db, "Monitors")
	product := seedProduct(t, db, category, "27in 4K Monitor", "", decimal.RequireFromString("399.00"), 3)

	newName := "27in 4K Monitor v2"
	newPrice := decimal.RequireFromString("359.00")
	newStock := 7
	updated, err := svc.UpdateProduct(ctx, product.ID, UpdateProductInput{
		Name:  &newName,
		Price: &newPrice,
		Stock: &newStock,
	})
	require.NoError(t, err)
	assert.Equal(t, "27in-4k-monitor-v2", updated.Slug)
	assert.True(t, newPrice.Equal(updated.Price))
	assert.Equal(t, 7, updated.Stock)

	t.Run("unknown category rejected", func(t *testing.T) {
		missing := uuid.New()
		_, err := svc.UpdateProduct(ctx, product.ID, UpdateProductInput{CategoryID: &missing})
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	})

	t.Run("missing product not found", func(t *testing.T) {
		_, err := svc.UpdateProduct(ctx, uuid.New(), UpdateProductInput{Name: &newName})
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	})
}

func TestSearchProducts(t *testing.T) {
	svc, db := newCatalogService(t)
	ctx := context.Background()

	category := seedCategory(t, db, "Camping Gear")
	other := seedCategory(t, db, "Kitchenware")
	seedProduct(t, db, category, "Trail Tent 2P", "two person backpacking tent", decimal.RequireFromString("220.00"), 4)
	seedProduct(t, db, category, "Trail Stove", "compact camping stove", decimal.RequireFromString("45.00"), 10)
	seedProduct(t, db, other, "Cast Iron Skillet", "pre-seasoned skillet", decimal.RequireFromString("35.00"), 8)

	t.Run("keyword", func(t *testing.T) {
		results, err := svc.SearchProducts(ctx, SearchFilters{Keyword: "trail"}, 10)
		require.NoError(t, err)
		require.Len(t, results, 2)
	})

	t.Run("price limit", func(t *testing.T) {
		limit := decimal.RequireFromString("50.00")
		results, err := svc.SearchProducts(ctx, SearchFilters{Keyword: "trail", PriceLimit: &limit}, 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "Trail Stove", results[0].Name)
	})

	t.Run("category filter", func(t *testing.T) {
		results, err := svc.SearchProducts(ctx, SearchFilters{Category: "camping"}, 10)
		require.NoError(t, err)
		require.Len(t, results, 2)
		for _, dto := range results {
			assert.NotEqual(t, "Cast Iron Skillet", dto.Name)
		}
	})
}

func TestListProductsFilters(t *testing.T) {
	svc, db := newCatalogService(t)
	ctx := context.Background()

	category := seedCategory(t, db, "Cycling")
	seedProduct(t, db, category, "Road Helmet", "ventilated road helmet", decimal.RequireFromString("120.00"), 2)
	sold := seedProduct(t, db, category, "Clip Pedals", "two bolt clipless pedals", decimal.RequireFromString("60.00"), 0)

	inStock := true
	dtos, next, err := svc.ListProducts(ctx, pagination.Params{Limit: 20}, ProductFilters{CategorySlug: "cycling", InStock: &inStock})
	require.NoError(t, err)
	assert.Empty(t, next)
	require.Len(t, dtos, 1)
	assert.Equal(t, "Road Helmet", dtos[0].Name)
	assert.NotEqual(t, sold.ID, dtos[0].ID)
}

func TestDeleteProduct(t *testing.T) {
	svc, db := newCatalogService(t)
	ctx := context.Background()

	category := seedCategory(t, db, "Office Chairs")
	product := seedProduct(t, db, category, "Mesh Task Chair", "", decimal.RequireFromString("180.00"), 6)

	require.NoError(t, svc.DeleteProduct(ctx, product.ID))

	_, err := svc.GetProduct(ctx, product.ID.String())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	err = svc.DeleteProduct(ctx, uuid.New())
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
