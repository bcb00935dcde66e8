package chatbot

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Aakashmid/Ecommerce-chatbot/internal/cart"
	"github.com/Aakashmid/Ecommerce-chatbot/internal/catalog"
	"github.com/Aakashmid/Ecommerce-chatbot/internal/orders"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/config"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/db"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/db/models"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/enums"
	pkgerrors "github.com/Aakashmid/Ecommerce-chatbot/pkg/errors"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/llm"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/logger"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/metrics"
)

// fakeHistoryCache is an in-memory stand-in for the Redis list behaviour.
type fakeHistoryCache struct {
	mu    sync.Mutex
	lists map[string][]string
}

func newFakeHistoryCache() *fakeHistoryCache {
	return &fakeHistoryCache{lists: map[string][]string{}}
}

func (f *fakeHistoryCache) PushChatTurns(_ context.Context, sessionID string, maxLen int, _ time.Duration, turns ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, turn := range turns {
		f.lists[sessionID] = append(f.lists[sessionID], turn.(string))
	}
	if maxLen > 0 && len(f.lists[sessionID]) > maxLen {
		f.lists[sessionID] = f.lists[sessionID][len(f.lists[sessionID])-maxLen:]
	}
	return nil
}

func (f *fakeHistoryCache) ChatTurns(_ context.Context, sessionID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.lists[sessionID]...), nil
}

func (f *fakeHistoryCache) ClearChatHistory(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.lists, sessionID)
	return nil
}

// stubLLM replays scripted completions and records every request it saw.
type stubLLM struct {
	mu          sync.Mutex
	completions []*llm.Completion
	errs        []error
	requests    []llm.Request
}

func (s *stubLLM) CreateChatCompletion(_ context.Context, req llm.Request) (*llm.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	if len(s.completions) == 0 {
		return &llm.Completion{Message: llm.Message{Role: llm.RoleAssistant, Content: "ok"}}, nil
	}
	next := s.completions[0]
	s.completions = s.completions[1:]
	return next, nil
}

func (s *stubLLM) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func setupChatTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{`
CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  slug TEXT NOT NULL UNIQUE,
  description TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
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
);`, `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (user_id, product_id)
);`, `
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
);`, `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1,
  price NUMERIC NOT NULL,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS chatbot_sessions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  session_id TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'active',
  started_at DATETIME,
  last_activity DATETIME,
  ended_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS chat_messages (
  id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL,
  message_type TEXT NOT NULL,
  content TEXT NOT NULL,
  timestamp DATETIME
);`}
	for _, stmt := range ddl {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

type chatHarness struct {
	svc     *service
	conn    *gorm.DB
	cache   *fakeHistoryCache
	llm     *stubLLM
	cartSvc cart.Service
}

func newChatHarness(t *testing.T) *chatHarness {
	t.Helper()

	conn := setupChatTestDB(t)
	repo := NewRepository(conn)
	cache := newFakeHistoryCache()

	history, err := NewHistory(cache, repo, 10, time.Hour)
	require.NoError(t, err)

	catalogSvc, err := catalog.NewService(catalog.NewRepository(conn))
	require.NoError(t, err)
	cartSvc, err := cart.NewService(cart.NewRepository(conn), catalog.NewRepository(conn))
	require.NoError(t, err)
	ordersSvc, err := orders.NewService(orders.NewRepository(conn), db.FromGorm(conn), catalog.NewRepository(conn))
	require.NoError(t, err)

	tools, err := NewToolDispatcher(catalogSvc, cartSvc, ordersSvc)
	require.NoError(t, err)

	stub := &stubLLM{}
	logg := logger.New(logger.Options{ServiceName: "chat-test", Output: io.Discard})
	svc, err := NewService(repo, db.FromGorm(conn), history, stub, tools, metrics.NewChatMetrics(nil), logg,
		config.ChatConfig{SystemPrompt: "You are a shopping assistant.", CompletionTimeout: 5 * time.Second}, "test-model")
	require.NoError(t, err)

	return &chatHarness{
		svc:     svc.(*service),
		conn:    conn,
		cache:   cache,
		llm:     stub,
		cartSvc: cartSvc,
	}
}

func (h *chatHarness) newSession(t *testing.T, userID uuid.UUID) *models.ChatbotSession {
	t.Helper()

	dto, err := h.svc.CreateSession(context.Background(), userID, CreateSessionInput{})
	require.NoError(t, err)
	session, err := h.svc.FindSessionForUser(context.Background(), dto.SessionID, userID)
	require.NoError(t, err)
	return session
}

func (h *chatHarness) seedProduct(t *testing.T, name, price string, stock int) *models.Product {
	t.Helper()

	category := &models.Category{ID: uuid.New(), Name: name + " category", Slug: catalog.Slugify(name + " category")}
	require.NoError(t, h.conn.Create(category).Error)
	product := &models.Product{
		ID:         uuid.New(),
		Name:       name,
		Slug:       catalog.Slugify(name),
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
		CategoryID: category.ID,
	}
	require.NoError(t, h.conn.Create(product).Error)
	return product
}

func TestGenerateRuleBasedReply(t *testing.T) {
	cases := []struct {
		message string
		want    string
	}{
		{"hello there", "Hello! How can I help you today?"},
		{"do you have this product?", "I can help you find products. What are you looking for?"},
		{"what is the price", "I can help you with pricing information. Which product are you interested in?"},
		{"I need help", "I'm here to help! You can ask me about products, prices, orders, or anything else."},
		{"something else entirely", "Thank you for your message. How can I assist you further?"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, GenerateRuleBasedReply(tc.message))
	}
}

func TestCreateAndGetSession(t *testing.T) {
	h := newChatHarness(t)
	ctx := context.Background()
	userID := uuid.New()

	created, err := h.svc.CreateSession(ctx, userID, CreateSessionInput{})
	require.NoError(t, err)
	assert.NotEmpty(t, created.SessionID)
	assert.Equal(t, enums.SessionStatusActive, created.Status)

	fetched, err := h.svc.GetSession(ctx, userID, created.SessionID)
	require.NoError(t, err)
	assert.Equal(t, created.SessionID, fetched.SessionID)

	// sessions belong to their creator
	_, err = h.svc.GetSession(ctx, uuid.New(), created.SessionID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestCreateSessionDuplicateID(t *testing.T) {
	h := newChatHarness(t)
	ctx := context.Background()

	_, err := h.svc.CreateSession(ctx, uuid.New(), CreateSessionInput{SessionID: "chosen-session-id"})
	require.NoError(t, err)

	_, err = h.svc.CreateSession(ctx, uuid.New(), CreateSessionInput{SessionID: "chosen-session-id"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestPostMessagePersistsBothTurns(t *testing.T) {
	h := newChatHarness(t)
	ctx := context.Background()
	userID := uuid.New()
	session := h.newSession(t, userID)

	result, err := h.svc.PostMessage(ctx, userID, session.SessionID, PostMessageInput{Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, enums.MessageTypeUser, result.UserMessage.MessageType)
	assert.Equal(t, enums.MessageTypeBot, result.BotResponse.MessageType)
	assert.Equal(t, "Hello! How can I help you today?", result.BotResponse.Content)
	assert.True(t, result.UserMessage.Timestamp.Before(result.BotResponse.Timestamp))

	messages, err := h.svc.ListMessages(ctx, userID, session.SessionID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "hello", messages[0].Content)
}

func TestPostMessageInactiveSessionWritesNothing(t *testing.T) {
	h := newChatHarness(t)
	ctx := context.Background()
	userID := uuid.New()
	session := h.newSession(t, userID)

	_, err := h.svc.EndSession(ctx, userID, session.SessionID)
	require.NoError(t, err)

	_, err = h.svc.PostMessage(ctx, userID, session.SessionID, PostMessageInput{Message: "anyone there?"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	// rejection happens before any write
	var count int64
	require.NoError(t, h.conn.Model(&models.ChatMessage{}).Where("session_id = ?", session.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEndSessionIsTerminal(t *testing.T) {
	h := newChatHarness(t)
	ctx := context.Background()
	userID := uuid.New()
	session := h.newSession(t, userID)

	// prime the cache so ending can clear it
	require.NoError(t, h.svc.history.Append(ctx, session.SessionID, Turn{Role: llm.RoleUser, Content: "hi"}))

	ended, err := h.svc.EndSession(ctx, userID, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, enums.SessionStatusCompleted, ended.Status)
	require.NotNil(t, ended.EndedAt)

	cached, err := h.cache.ChatTurns(ctx, session.SessionID)
	require.NoError(t, err)
	assert.Empty(t, cached)

	_, err = h.svc.EndSession(ctx, userID, session.SessionID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestHandleTurnPersistsAndReplies(t *testing.T) {
	h := newChatHarness(t)
	ctx := context.Background()
	userID := uuid.New()
	session := h.newSession(t, userID)

	h.llm.completions = []*llm.Completion{
		{Message: llm.Message{Role: llm.RoleAssistant, Content: "We have three kettles in stock."}},
	}

	reply, err := h.svc.HandleTurn(ctx, session, "do you sell kettles?")
	require.NoError(t, err)
	assert.Equal(t, "We have three kettles in stock.", reply)

	messages, err := h.svc.ListMessages(ctx, userID, session.SessionID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, enums.MessageTypeUser, messages[0].MessageType)
	assert.Equal(t, enums.MessageTypeBot, messages[1].MessageType)
	assert.True(t, messages[0].Timestamp.Before(messages[1].Timestamp))

	// system prompt leads the outbound conversation
	require.NotEmpty(t, h.llm.requests)
	first := h.llm.requests[0]
	require.NotEmpty(t, first.Messages)
	assert.Equal(t, llm.RoleSystem, first.Messages[0].Role)
	assert.NotEmpty(t, first.Tools)
}

func TestHandleTurnApologizesOnCompletionFailure(t *testing.T) {
	h := newChatHarness(t)
	ctx := context.Background()
	userID := uuid.New()
	session := h.newSession(t, userID)

	h.llm.errs = []error{context.DeadlineExceeded}

	reply, err := h.svc.HandleTurn(ctx, session, "hello?")
	require.NoError(t, err)
	assert.Equal(t, apologyMessage, reply)

	// the apology is part of the durable transcript
	messages, err := h.svc.ListMessages(ctx, userID, session.SessionID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, apologyMessage, messages[1].Content)
}

func TestHandleTurnDispatchesToolCalls(t *testing.T) {
	h := newChatHarness(t)
	ctx := context.Background()
	userID := uuid.New()
	session := h.newSession(t, userID)

	product := h.seedProduct(t, "Electric Kettle", "49.00", 5)

	h.llm.completions = []*llm.Completion{
		{
			Message: llm.Message{
				Role: llm.RoleAssistant,
				ToolCalls: []llm.ToolCall{{
					ID:   "call_1",
					Type: "function",
					Function: llm.FunctionCall{
						Name:      toolAddToCart,
						Arguments: `{"product_id":"` + product.ID.String() + `","quantity":2}`,
					},
				}},
			},
			FinishReason: llm.FinishReasonToolCalls,
		},
		{Message: llm.Message{Role: llm.RoleAssistant, Content: "Added the kettle to your cart."}},
	}

	reply, err := h.svc.HandleTurn(ctx, session, "add the kettle to my cart")
	require.NoError(t, err)
	assert.Equal(t, "Added the kettle to your cart.", reply)

	// exactly one follow-up completion after the tool round
	assert.Equal(t, 2, h.llm.calls())

	// the tool ran against live state
	cartState, err := h.cartSvc.Get(ctx, userID)
	require.NoError(t, err)
	require.Len(t, cartState.Items, 1)
	assert.Equal(t, product.ID, cartState.Items[0].ProductID)
	assert.Equal(t, 2, cartState.Items[0].Quantity)

	// the follow-up call carried the tool result back to the model
	second := h.llm.requests[1]
	var sawToolRole bool
	for _, message := range second.Messages {
		if message.Role == llm.RoleTool && message.ToolCallID == "call_1" {
			sawToolRole = true
		}
	}
	assert.True(t, sawToolRole)
}

func TestListSessionsNewestFirst(t *testing.T) {
	h := newChatHarness(t)
	ctx := context.Background()
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		_, err := h.svc.CreateSession(ctx, userID, CreateSessionInput{})
		require.NoError(t, err)
	}

	sessions, err := h.svc.ListSessions(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, sessions, 3)

	none, err := h.svc.ListSessions(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)
}
