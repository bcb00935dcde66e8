package chatbot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Aakashmid/Ecommerce-chatbot/internal/cart"
	"github.com/Aakashmid/Ecommerce-chatbot/internal/catalog"
	"github.com/Aakashmid/Ecommerce-chatbot/internal/orders"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/llm"
)

const (
	toolSearchProducts   = "search_products"
	toolAddToCart        = "add_to_cart"
	toolShowCart         = "show_cart"
	toolShowOrderDetails = "show_order_details"
)

const toolSearchLimit = 10

// ToolDispatcher executes the model's tool calls against live application
// state on behalf of the connected user.
type ToolDispatcher struct {
	catalog catalog.Service
	cart    cart.Service
	orders  orders.Service
}

// NewToolDispatcher wires the dispatcher to the domain services.
func NewToolDispatcher(catalogSvc catalog.Service, cartSvc cart.Service, ordersSvc orders.Service) (*ToolDispatcher, error) {
	if catalogSvc == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if cartSvc == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if ordersSvc == nil {
		return nil, fmt.Errorf("orders service required")
	}
	return &ToolDispatcher{catalog: catalogSvc, cart: cartSvc, orders: ordersSvc}, nil
}

// Schemas returns the function declarations advertised to the model.
func (d *ToolDispatcher) Schemas() []llm.Tool {
	return []llm.Tool{
		{
			Type: "function",
			Function: llm.FunctionDefinition{
				Name:        toolSearchProducts,
				Description: "Search for products by category, price limit, or keyword.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"category":    map[string]any{"type": "string"},
						"price_limit": map[string]any{"type": "number"},
						"keyword":     map[string]any{"type": "string"},
					},
					"required": []string{},
				},
			},
		},
		{
			Type: "function",
			Function: llm.FunctionDefinition{
				Name:        toolAddToCart,
				Description: "Add a product to the user's cart.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"product_id": map[string]any{"type": "string"},
						"quantity":   map[string]any{"type": "integer"},
					},
					"required": []string{"product_id"},
				},
			},
		},
		{
			Type: "function",
			Function: llm.FunctionDefinition{
				Name:        toolShowCart,
				Description: "Show the user's current cart details.",
				Parameters: map[string]any{
					"type":       "object",
					"properties": map[string]any{},
				},
			},
		},
		{
			Type: "function",
			Function: llm.FunctionDefinition{
				Name:        toolShowOrderDetails,
				Description: "Show details for a specific order.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"order_id": map[string]any{"type": "string"},
					},
					"required": []string{"order_id"},
				},
			},
		},
	}
}

// Dispatch runs the named tool and returns its JSON-encoded result.
func (d *ToolDispatcher) Dispatch(ctx context.Context, userID uuid.UUID, call llm.ToolCall) (string, error) {
	params := map[string]any{}
	if args := strings.TrimSpace(call.Function.Arguments); args != "" {
		if err := json.Unmarshal([]byte(args), &params); err != nil {
			return "", fmt.Errorf("parsing %s arguments: %w", call.Function.Name, err)
		}
	}

	var (
		result any
		err    error
	)
	switch call.Function.Name {
	case toolSearchProducts:
		result, err = d.searchProducts(ctx, params)
	case toolAddToCart:
		result, err = d.addToCart(ctx, userID, params)
	case toolShowCart:
		result, err = d.cart.Get(ctx, userID)
	case toolShowOrderDetails:
		result, err = d.showOrderDetails(ctx, userID, params)
	default:
		return "", fmt.Errorf("unknown tool %q", call.Function.Name)
	}
	if err != nil {
		return "", err
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encoding %s result: %w", call.Function.Name, err)
	}
	return string(encoded), nil
}

func (d *ToolDispatcher) searchProducts(ctx context.Context, params map[string]any) (any, error) {
	filters := catalog.SearchFilters{
		Category: stringParam(params, "category"),
		Keyword:  stringParam(params, "keyword"),
	}
	if limit, ok := numberParam(params, "price_limit"); ok {
		price := decimal.NewFromFloat(limit)
		filters.PriceLimit = &price
	}
	return d.catalog.SearchProducts(ctx, filters, toolSearchLimit)
}

func (d *ToolDispatcher) addToCart(ctx context.Context, userID uuid.UUID, params map[string]any) (any, error) {
	productID, err := uuidParam(params, "product_id")
	if err != nil {
		return nil, err
	}
	quantity := 1
	if qty, ok := numberParam(params, "quantity"); ok && qty > 0 {
		quantity = int(qty)
	}
	item, err := d.cart.Add(ctx, userID, cart.AddItemInput{ProductID: productID, Quantity: quantity})
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"success": true,
		"message": fmt.Sprintf("Added %s to cart.", item.Name),
		"item":    item,
	}, nil
}

func (d *ToolDispatcher) showOrderDetails(ctx context.Context, userID uuid.UUID, params map[string]any) (any, error) {
	raw := stringParam(params, "order_id")
	if raw == "" {
		return nil, fmt.Errorf("order_id is required")
	}
	if orderID, err := uuid.Parse(raw); err == nil {
		return d.orders.Get(ctx, userID, orderID)
	}
	return d.orders.GetByNumber(ctx, userID, raw)
}

func stringParam(params map[string]any, key string) string {
	if value, ok := params[key].(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

func numberParam(params map[string]any, key string) (float64, bool) {
	switch value := params[key].(type) {
	case float64:
		return value, true
	case json.Number:
		f, err := value.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func uuidParam(params map[string]any, key string) (uuid.UUID, error) {
	raw := stringParam(params, key)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%s is required", key)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s must be a valid id", key)
	}
	return id, nil
}
