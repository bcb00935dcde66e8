package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Aakashmid/Ecommerce-chatbot/internal/catalog"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/db"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/db/models"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/enums"
	pkgerrors "github.com/Aakashmid/Ecommerce-chatbot/pkg/errors"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
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
	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  order_number TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_method TEXT NOT NULL DEFAULT 'cod',
  shipping_address_id TEXT,
  billing_address_id TEXT,
  subtotal NUMERIC NOT NULL,
  shipping_cost NUMERIC NOT NULL DEFAULT 0,
  tax NUMERIC NOT NULL DEFAULT 0,
  discount NUMERIC NOT NULL DEFAULT 0,
  total NUMERIC NOT NULL,
  notes TEXT,
  tracking_number TEXT,
  paid_at DATETIME,
  shipped_at DATETIME,
  delivered_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1,
  price NUMERIC NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, conn.Exec(categories).Error)
	require.NoError(t, conn.Exec(products).Error)
	require.NoError(t, conn.Exec(orders).Error)
	require.NoError(t, conn.Exec(orderItems).Error)
	return conn
}

func newOrdersService(t *testing.T) (*service, *gorm.DB) {
	t.Helper()

	conn := setupOrdersTestDB(t)
	svc, err := NewService(NewRepository(conn), db.FromGorm(conn), catalog.NewRepository(conn))
	require.NoError(t, err)
	return svc.(*service), conn
}

func seedOrderProduct(t *testing.T, conn *gorm.DB, name, price string, stock int) *models.Product {
	t.Helper()

	category := &models.Category{ID: uuid.New(), Name: name + " category", Slug: catalog.Slugify(name + " category")}
	require.NoError(t, conn.Create(category).Error)

	product := &models.Product{
		ID:         uuid.New(),
		Name:       name,
		Slug:       catalog.Slugify(name),
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
		CategoryID: category.ID,
	}
	require.NoError(t, conn.Create(product).Error)
	return product
}

func paginationParams(limit int) pagination.Params {
	return pagination.Params{Limit: limit}
}

// fixedClock pins the order-number clock; numbers are second-precision and
// unique, so every created order needs its own timestamp.
func fixedClock(svc *service, stamp time.Time) {
	svc.now = func() time.Time { return stamp }
}

func TestGenerateOrderNumber(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	assert.Equal(t, "ORD-20250314092653", GenerateOrderNumber(at))
}

func TestCreateOrderTotals(t *testing.T) {
	svc, conn := newOrdersService(t)
	ctx := context.Background()
	userID := uuid.New()
	fixedClock(svc, time.Date(2025, 5, 1, 10, 0, 1, 0, time.UTC))

	product := seedOrderProduct(t, conn, "Espresso Grinder", "150.00", 10)

	created, err := svc.Create(ctx, userID, CreateOrderInput{
		Items: []CreateOrderItemInput{
			{ProductID: product.ID, Quantity: 2},
		},
		PaymentMethod: enums.PaymentMethodCard,
		ShippingCost:  decimal.RequireFromString("12.00"),
		Tax:           decimal.RequireFromString("24.00"),
		Discount:      decimal.RequireFromString("6.00"),
	})
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusPending, created.Status)
	assert.True(t, decimal.RequireFromString("300.00").Equal(created.Subtotal), "got subtotal %s", created.Subtotal)
	// 300 + 12 + 24 - 6
	assert.True(t, decimal.RequireFromString("330.00").Equal(created.Total), "got total %s", created.Total)
	require.Len(t, created.Items, 1)
	assert.Equal(t, 2, created.Items[0].Quantity)
}

func TestCreateOrderHonoursExplicitTotals(t *testing.T) {
	svc, conn := newOrdersService(t)
	ctx := context.Background()

	fixedClock(svc, time.Date(2025, 5, 1, 10, 0, 2, 0, time.UTC))
	product := seedOrderProduct(t, conn, "Pour Over Kettle", "60.00", 10)

	subtotal := decimal.RequireFromString("55.00")
	total := decimal.RequireFromString("70.00")
	created, err := svc.Create(ctx, uuid.New(), CreateOrderInput{
		Items:         []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
		PaymentMethod: enums.PaymentMethodCOD,
		Subtotal:      &subtotal,
		Total:         &total,
	})
	require.NoError(t, err)
	assert.True(t, subtotal.Equal(created.Subtotal))
	assert.True(t, total.Equal(created.Total))
}

func TestCreateOrderNumberFromClock(t *testing.T) {
	svc, conn := newOrdersService(t)
	ctx := context.Background()

	fixedClock(svc, time.Date(2025, 7, 1, 18, 4, 5, 0, time.UTC))

	product := seedOrderProduct(t, conn, "Ceramic Dripper", "24.00", 10)
	created, err := svc.Create(ctx, uuid.New(), CreateOrderInput{
		Items:         []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
		PaymentMethod: enums.PaymentMethodCOD,
	})
	require.NoError(t, err)
	assert.Equal(t, "ORD-20250701180405", created.OrderNumber)
}

func TestOrderItemPriceSnapshot(t *testing.T) {
	svc, conn := newOrdersService(t)
	ctx := context.Background()
	userID := uuid.New()
	fixedClock(svc, time.Date(2025, 5, 1, 10, 0, 3, 0, time.UTC))

	product := seedOrderProduct(t, conn, "Burr Set", "80.00", 10)
	created, err := svc.Create(ctx, userID, CreateOrderInput{
		Items:         []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
		PaymentMethod: enums.PaymentMethodCard,
	})
	require.NoError(t, err)

	// later catalog edits must not rewrite the purchased line
	require.NoError(t, conn.Model(product).Update("price", decimal.RequireFromString("99.00")).Error)

	reloaded, err := svc.Get(ctx, userID, created.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 1)
	assert.True(t, decimal.RequireFromString("80.00").Equal(reloaded.Items[0].Price))
}

func TestCreateOrderValidation(t *testing.T) {
	svc, conn := newOrdersService(t)
	ctx := context.Background()

	product := seedOrderProduct(t, conn, "Hand Mill", "45.00", 10)

	t.Run("no items", func(t *testing.T) {
		_, err := svc.Create(ctx, uuid.New(), CreateOrderInput{PaymentMethod: enums.PaymentMethodCOD})
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := svc.Create(ctx, uuid.New(), CreateOrderInput{
			Items:         []CreateOrderItemInput{{ProductID: uuid.New(), Quantity: 1}},
			PaymentMethod: enums.PaymentMethodCOD,
		})
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	})

	t.Run("invalid payment method", func(t *testing.T) {
		_, err := svc.Create(ctx, uuid.New(), CreateOrderInput{
			Items:         []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
			PaymentMethod: enums.PaymentMethod("barter"),
		})
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	})
}

func TestGetByNumberScopedToOwner(t *testing.T) {
	svc, conn := newOrdersService(t)
	ctx := context.Background()
	owner := uuid.New()

	fixedClock(svc, time.Date(2025, 2, 2, 2, 2, 2, 0, time.UTC))
	product := seedOrderProduct(t, conn, "Scale 0.1g", "35.00", 10)
	created, err := svc.Create(ctx, owner, CreateOrderInput{
		Items:         []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
		PaymentMethod: enums.PaymentMethodCOD,
	})
	require.NoError(t, err)

	found, err := svc.GetByNumber(ctx, owner, created.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = svc.GetByNumber(ctx, uuid.New(), created.OrderNumber)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestCancelOrder(t *testing.T) {
	svc, conn := newOrdersService(t)
	ctx := context.Background()
	userID := uuid.New()

	product := seedOrderProduct(t, conn, "Cupping Spoon", "14.00", 10)
	fixedClock(svc, time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC))
	created, err := svc.Create(ctx, userID, CreateOrderInput{
		Items:         []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
		PaymentMethod: enums.PaymentMethodCOD,
	})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, userID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)

	t.Run("already cancelled", func(t *testing.T) {
		_, err := svc.Cancel(ctx, userID, created.ID)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
		assert.Equal(t, "order is already cancelled", typed.Message())
	})

	t.Run("shipped cannot be cancelled", func(t *testing.T) {
		fixedClock(svc, time.Date(2025, 6, 10, 9, 0, 1, 0, time.UTC))
		shipped, err := svc.Create(ctx, userID, CreateOrderInput{
			Items:         []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
			PaymentMethod: enums.PaymentMethodCOD,
		})
		require.NoError(t, err)
		require.NoError(t, conn.Model(&models.Order{}).Where("id = ?", shipped.ID).
			Update("status", enums.OrderStatusShipped).Error)

		_, err = svc.Cancel(ctx, userID, shipped.ID)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
		assert.Equal(t, "cannot cancel a shipped order", typed.Message())
	})
}

func TestListOrdersFilters(t *testing.T) {
	svc, conn := newOrdersService(t)
	ctx := context.Background()
	userID := uuid.New()

	product := seedOrderProduct(t, conn, "Server Carafe", "28.00", 10)
	for i := 0; i < 3; i++ {
		fixedClock(svc, time.Date(2025, 4, 10+i, 12, 0, 0, 0, time.UTC))
		_, err := svc.Create(ctx, userID, CreateOrderInput{
			Items:         []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
			PaymentMethod: enums.PaymentMethodCOD,
		})
		require.NoError(t, err)
	}

	status := enums.OrderStatusPending
	dtos, next, err := svc.List(ctx, userID, paginationParams(10), Filters{Status: &status})
	require.NoError(t, err)
	assert.Empty(t, next)
	assert.Len(t, dtos, 3)

	other, _, err := svc.List(ctx, uuid.New(), paginationParams(10), Filters{})
	require.NoError(t, err)
	assert.Empty(t, other)
}
