package chatbot

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgauth "github.com/Aakashmid/Ecommerce-chatbot/pkg/auth"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/config"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/llm"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/logger"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/metrics"
)

func relayJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "relay-test-secret",
		Issuer:            "ecommerce-chatbot",
		ExpirationMinutes: 60,
	}
}

func newRelayServer(t *testing.T, h *chatHarness) *httptest.Server {
	t.Helper()

	logg := logger.New(logger.Options{ServiceName: "relay-test", Output: io.Discard})
	relay := NewRelay(h.svc, relayJWTConfig(), metrics.NewChatMetrics(nil), logg)

	router := chi.NewRouter()
	router.Get("/ws/chatbot/message/{sessionID}", relay.Handle)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func mintRelayToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()

	token, err := pkgauth.MintAccessToken(relayJWTConfig(), time.Now(), pkgauth.AccessTokenPayload{
		UserID: userID,
		Email:  "relay@example.com",
	})
	require.NoError(t, err)
	return token
}

func wsURL(server *httptest.Server, sessionID, token string) string {
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/chatbot/message/" + sessionID
	if token != "" {
		url += "?token=" + token
	}
	return url
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame Frame
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

func TestRelayRejectsMissingToken(t *testing.T) {
	h := newChatHarness(t)
	server := newRelayServer(t, h)

	session := h.newSession(t, uuid.New())

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(server, session.SessionID, ""), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestRelayRejectsUnknownSession(t *testing.T) {
	h := newChatHarness(t)
	server := newRelayServer(t, h)

	token := mintRelayToken(t, uuid.New())

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(server, "no-such-session", token), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestRelayRejectsForeignSession(t *testing.T) {
	h := newChatHarness(t)
	server := newRelayServer(t, h)

	session := h.newSession(t, uuid.New())
	token := mintRelayToken(t, uuid.New())

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(server, session.SessionID, token), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestRelayEchoesUserAndBotFrames(t *testing.T) {
	h := newChatHarness(t)
	server := newRelayServer(t, h)

	userID := uuid.New()
	session := h.newSession(t, userID)
	token := mintRelayToken(t, userID)

	h.llm.completions = []*llm.Completion{
		{Message: llm.Message{Role: llm.RoleAssistant, Content: "Happy to help with that."}},
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, session.SessionID, token), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(Frame{Message: "what can you do?"}))

	echo := readFrame(t, conn)
	assert.False(t, echo.IsBot)
	assert.Equal(t, "what can you do?", echo.Message)

	bot := readFrame(t, conn)
	assert.True(t, bot.IsBot)
	assert.Equal(t, "Happy to help with that.", bot.Message)

	// both turns made it into the durable transcript
	messages, err := h.svc.ListMessages(context.Background(), userID, session.SessionID)
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}

func TestRelaySkipsUnusableFrames(t *testing.T) {
	h := newChatHarness(t)
	server := newRelayServer(t, h)

	userID := uuid.New()
	session := h.newSession(t, userID)
	token := mintRelayToken(t, userID)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, session.SessionID, token), nil)
	require.NoError(t, err)
	defer conn.Close()

	// malformed JSON, bot-authored, and empty frames are dropped silently
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	require.NoError(t, conn.WriteJSON(Frame{Message: "spoofed", IsBot: true}))
	require.NoError(t, conn.WriteJSON(Frame{Message: "   "}))
	require.NoError(t, conn.WriteJSON(Frame{Message: "a real question"}))

	echo := readFrame(t, conn)
	assert.Equal(t, "a real question", echo.Message)
	assert.False(t, echo.IsBot)

	bot := readFrame(t, conn)
	assert.True(t, bot.IsBot)
	assert.NotEmpty(t, bot.Message)
}

func TestRelayApologizesWhenInferenceFails(t *testing.T) {
	h := newChatHarness(t)
	server := newRelayServer(t, h)

	userID := uuid.New()
	session := h.newSession(t, userID)
	token := mintRelayToken(t, userID)

	h.llm.errs = []error{context.DeadlineExceeded}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, session.SessionID, token), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(Frame{Message: "hello?"}))

	_ = readFrame(t, conn) // echo
	bot := readFrame(t, conn)
	assert.True(t, bot.IsBot)
	assert.Equal(t, apologyMessage, bot.Message)
}
