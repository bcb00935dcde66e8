package chatbot

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aakashmid/Ecommerce-chatbot/internal/catalog"
	"github.com/Aakashmid/Ecommerce-chatbot/internal/orders"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/db"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/enums"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/llm"
)

func toolCall(name, arguments string) llm.ToolCall {
	return llm.ToolCall{
		ID:       "call_test",
		Type:     "function",
		Function: llm.FunctionCall{Name: name, Arguments: arguments},
	}
}

func TestToolSchemasAdvertiseAllTools(t *testing.T) {
	h := newChatHarness(t)

	schemas := h.svc.tools.Schemas()
	names := make([]string, 0, len(schemas))
	for _, schema := range schemas {
		assert.Equal(t, "function", schema.Type)
		names = append(names, schema.Function.Name)
	}
	assert.ElementsMatch(t, []string{
		toolSearchProducts, toolAddToCart, toolShowCart, toolShowOrderDetails,
	}, names)
}

func TestDispatchSearchProducts(t *testing.T) {
	h := newChatHarness(t)
	ctx := context.Background()

	h.seedProduct(t, "Induction Hob", "299.00", 3)
	h.seedProduct(t, "Camping Hob", "59.00", 8)

	result, err := h.svc.tools.Dispatch(ctx, uuid.New(), toolCall(toolSearchProducts, `{"keyword":"hob","price_limit":100}`))
	require.NoError(t, err)

	var products []map[string]any
	require.NoError(t, json.Unmarshal([]byte(result), &products))
	require.Len(t, products, 1)
	assert.Equal(t, "Camping Hob", products[0]["name"])
}

func TestDispatchAddToCartIsDurable(t *testing.T) {
	h := newChatHarness(t)
	ctx := context.Background()
	userID := uuid.New()

	product := h.seedProduct(t, "Stock Pot", "42.00", 6)

	result, err := h.svc.tools.Dispatch(ctx, userID, toolCall(toolAddToCart,
		`{"product_id":"`+product.ID.String()+`","quantity":3}`))
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(result), &payload))
	assert.Equal(t, true, payload["success"])

	// the mutation outlives the tool call
	cartState, err := h.cartSvc.Get(ctx, userID)
	require.NoError(t, err)
	require.Len(t, cartState.Items, 1)
	assert.Equal(t, 3, cartState.Items[0].Quantity)
}

func TestDispatchShowCart(t *testing.T) {
	h := newChatHarness(t)
	ctx := context.Background()
	userID := uuid.New()

	product := h.seedProduct(t, "Chef Knife", "89.00", 4)
	_, err := h.svc.tools.Dispatch(ctx, userID, toolCall(toolAddToCart,
		`{"product_id":"`+product.ID.String()+`"}`))
	require.NoError(t, err)

	result, err := h.svc.tools.Dispatch(ctx, userID, toolCall(toolShowCart, ""))
	require.NoError(t, err)

	var cartPayload map[string]any
	require.NoError(t, json.Unmarshal([]byte(result), &cartPayload))
	items, ok := cartPayload["items"].([]any)
	require.True(t, ok)
	assert.Len(t, items, 1)
}

func TestDispatchShowOrderDetailsByNumber(t *testing.T) {
	h := newChatHarness(t)
	ctx := context.Background()
	userID := uuid.New()

	product := h.seedProduct(t, "Paring Knife", "19.00", 9)

	ordersSvc, err := orders.NewService(orders.NewRepository(h.conn), db.FromGorm(h.conn), catalog.NewRepository(h.conn))
	require.NoError(t, err)
	created, err := ordersSvc.Create(ctx, userID, orders.CreateOrderInput{
		Items:         []orders.CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
		PaymentMethod: enums.PaymentMethodCOD,
	})
	require.NoError(t, err)

	byNumber, err := h.svc.tools.Dispatch(ctx, userID, toolCall(toolShowOrderDetails,
		`{"order_id":"`+created.OrderNumber+`"}`))
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(byNumber), &payload))
	assert.Equal(t, created.OrderNumber, payload["order_number"])

	byID, err := h.svc.tools.Dispatch(ctx, userID, toolCall(toolShowOrderDetails,
		`{"order_id":"`+created.ID.String()+`"}`))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(byID), &payload))
	assert.Equal(t, created.OrderNumber, payload["order_number"])

	// someone else's orders stay hidden
	_, err = h.svc.tools.Dispatch(ctx, uuid.New(), toolCall(toolShowOrderDetails,
		`{"order_id":"`+created.OrderNumber+`"}`))
	require.Error(t, err)
}

func TestDispatchRejectsUnknownToolAndBadArgs(t *testing.T) {
	h := newChatHarness(t)
	ctx := context.Background()

	_, err := h.svc.tools.Dispatch(ctx, uuid.New(), toolCall("delete_everything", "{}"))
	require.Error(t, err)

	_, err = h.svc.tools.Dispatch(ctx, uuid.New(), toolCall(toolAddToCart, `{"product_id":`))
	require.Error(t, err)

	_, err = h.svc.tools.Dispatch(ctx, uuid.New(), toolCall(toolAddToCart, `{"product_id":"not-a-uuid"}`))
	require.Error(t, err)
}
