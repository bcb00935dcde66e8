package chatbot

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	pkgauth "github.com/Aakashmid/Ecommerce-chatbot/pkg/auth"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/config"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/logger"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/metrics"
)

const relayTransport = "websocket"

// Frame is the wire format exchanged over the chat websocket.
type Frame struct {
	Message string `json:"message"`
	IsBot   bool   `json:"isBot"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Relay serves the chat websocket endpoint.
type Relay struct {
	service Service
	jwtCfg  config.JWTConfig
	metrics *metrics.ChatMetrics
	logg    *logger.Logger
}

// NewRelay wires the websocket endpoint to the chatbot service.
func NewRelay(service Service, jwtCfg config.JWTConfig, chatMetrics *metrics.ChatMetrics, logg *logger.Logger) *Relay {
	return &Relay{
		service: service,
		jwtCfg:  jwtCfg,
		metrics: chatMetrics,
		logg:    logg,
	}
}

// Handle authenticates the connection, resolves the session, and runs the
// read loop. Missing sessions and bad credentials refuse the connection with
// no application-level error frame.
func (r *Relay) Handle(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	claims, err := r.authenticate(req)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	ctx = r.logg.WithUserID(ctx, claims.UserID.String())

	sessionID := chi.URLParam(req, "sessionID")
	session, err := r.service.FindSessionForUser(ctx, sessionID, claims.UserID)
	if err != nil {
		r.logg.Warn(r.logg.WithSessionID(ctx, sessionID), "refusing chat connection: session not found")
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	ctx = r.logg.WithSessionID(ctx, session.SessionID)

	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logg.Error(ctx, "websocket upgrade failed", err)
		return
	}
	defer conn.Close()

	r.metrics.ConnOpened(relayTransport)
	defer r.metrics.ConnClosed(relayTransport)
	r.logg.Info(ctx, "chat connection established")

	// Single read loop: frames are processed strictly in order.
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				r.logg.Warn(ctx, "chat connection closed unexpectedly")
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		if frame.IsBot {
			continue
		}
		message := strings.TrimSpace(frame.Message)
		if message == "" {
			continue
		}

		r.metrics.IncMessage("inbound")
		if err := r.writeFrame(conn, Frame{Message: message, IsBot: false}); err != nil {
			return
		}

		botContent, err := r.service.HandleTurn(ctx, session, message)
		if err != nil {
			r.logg.Error(ctx, "chat turn failed", err)
		}
		if botContent == "" {
			botContent = apologyMessage
		}

		r.metrics.IncMessage("outbound")
		if err := r.writeFrame(conn, Frame{Message: botContent, IsBot: true}); err != nil {
			return
		}
	}
}

func (r *Relay) writeFrame(conn *websocket.Conn, frame Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

// authenticate accepts the JWT from the bearer header or, for browser
// websocket clients that cannot set headers, a token query parameter.
func (r *Relay) authenticate(req *http.Request) (*pkgauth.AccessTokenClaims, error) {
	tokenString := ""
	if header := req.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		tokenString = strings.TrimPrefix(header, "Bearer ")
	}
	if tokenString == "" {
		tokenString = req.URL.Query().Get("token")
	}
	return pkgauth.ParseAccessToken(r.jwtCfg, tokenString)
}
