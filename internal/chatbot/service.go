package chatbot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Aakashmid/Ecommerce-chatbot/pkg/config"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/db"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/db/models"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/enums"
	pkgerrors "github.com/Aakashmid/Ecommerce-chatbot/pkg/errors"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/llm"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/logger"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/metrics"
)

// apologyMessage is sent whenever inference or tool execution fails.
const apologyMessage = "I'm sorry, I'm having trouble responding right now. Please try again in a moment."

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes chatbot session, transcript, and relay operations.
type Service interface {
	CreateSession(ctx context.Context, userID uuid.UUID, input CreateSessionInput) (*SessionDTO, error)
	ListSessions(ctx context.Context, userID uuid.UUID) ([]SessionDTO, error)
	GetSession(ctx context.Context, userID uuid.UUID, sessionID string) (*SessionDTO, error)
	EndSession(ctx context.Context, userID uuid.UUID, sessionID string) (*SessionDTO, error)

	ListMessages(ctx context.Context, userID uuid.UUID, sessionID string) ([]MessageDTO, error)
	PostMessage(ctx context.Context, userID uuid.UUID, sessionID string, input PostMessageInput) (*PostMessageResult, error)

	FindSessionForUser(ctx context.Context, sessionID string, userID uuid.UUID) (*models.ChatbotSession, error)
	HandleTurn(ctx context.Context, session *models.ChatbotSession, message string) (string, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	history *History
	llm     llm.Client
	tools   *ToolDispatcher
	metrics *metrics.ChatMetrics
	logg    *logger.Logger
	cfg     config.ChatConfig
	model   string
	now     func() time.Time
}

// NewService builds the chatbot service with the required dependencies.
func NewService(
	repo Repository,
	tx txRunner,
	history *History,
	llmClient llm.Client,
	tools *ToolDispatcher,
	chatMetrics *metrics.ChatMetrics,
	logg *logger.Logger,
	chatCfg config.ChatConfig,
	model string,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("chatbot repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if history == nil {
		return nil, fmt.Errorf("history cache required")
	}
	if llmClient == nil {
		return nil, fmt.Errorf("llm client required")
	}
	if tools == nil {
		return nil, fmt.Errorf("tool dispatcher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		history: history,
		llm:     llmClient,
		tools:   tools,
		metrics: chatMetrics,
		logg:    logg,
		cfg:     chatCfg,
		model:   model,
		now:     time.Now,
	}, nil
}

func (s *service) CreateSession(ctx context.Context, userID uuid.UUID, input CreateSessionInput) (*SessionDTO, error) {
	sessionID := strings.TrimSpace(input.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	session := &models.ChatbotSession{
		UserID:    userID,
		SessionID: sessionID,
		Status:    enums.SessionStatusActive,
	}
	created, err := s.repo.CreateSession(ctx, session)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a session with this id already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating session")
	}
	return NewSessionDTO(created), nil
}

func (s *service) ListSessions(ctx context.Context, userID uuid.UUID) ([]SessionDTO, error) {
	sessions, err := s.repo.ListSessionsByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing sessions")
	}
	dtos := make([]SessionDTO, 0, len(sessions))
	for i := range sessions {
		dtos = append(dtos, *NewSessionDTO(&sessions[i]))
	}
	return dtos, nil
}

func (s *service) GetSession(ctx context.Context, userID uuid.UUID, sessionID string) (*SessionDTO, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	dto := NewSessionDTO(session)
	if count, err := s.repo.CountMessagesBySession(ctx, session.ID); err == nil {
		dto.MessageCount = count
	}
	return dto, nil
}

// EndSession completes the session and drops its cached history. Completed
// is terminal.
func (s *service) EndSession(ctx context.Context, userID uuid.UUID, sessionID string) (*SessionDTO, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == enums.SessionStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session is already completed")
	}

	now := s.now().UTC()
	updates := map[string]any{
		"status":   enums.SessionStatusCompleted,
		"ended_at": now,
	}
	if err := s.repo.UpdateSession(ctx, session.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "ending session")
	}

	if err := s.history.Clear(ctx, session.SessionID); err != nil {
		s.logg.Warn(s.logg.WithSessionID(ctx, session.SessionID), "failed to clear chat history cache")
	}

	session.Status = enums.SessionStatusCompleted
	session.EndedAt = &now
	return NewSessionDTO(session), nil
}

func (s *service) ListMessages(ctx context.Context, userID uuid.UUID, sessionID string) ([]MessageDTO, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	messages, err := s.repo.ListMessagesBySession(ctx, session.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing messages")
	}
	dtos := make([]MessageDTO, 0, len(messages))
	for i := range messages {
		dtos = append(dtos, NewMessageDTO(&messages[i]))
	}
	return dtos, nil
}

// PostMessage handles the REST chat path: the user turn and a rule-based bot
// reply are persisted together, and nothing is written when the session is
// not active.
func (s *service) PostMessage(ctx context.Context, userID uuid.UUID, sessionID string, input PostMessageInput) (*PostMessageResult, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsActive() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cannot send messages to an inactive or completed session")
	}
	content := strings.TrimSpace(input.Message)
	if content == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message is required")
	}

	botContent := GenerateRuleBasedReply(content)

	userMessage, botMessage, err := s.persistTurns(ctx, session, content, botContent)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving messages")
	}

	return &PostMessageResult{
		SessionID:   session.SessionID,
		UserMessage: NewMessageDTO(userMessage),
		BotResponse: NewMessageDTO(botMessage),
	}, nil
}

func (s *service) FindSessionForUser(ctx context.Context, sessionID string, userID uuid.UUID) (*models.ChatbotSession, error) {
	return s.repo.FindSessionForUser(ctx, sessionID, userID)
}

// HandleTurn runs one relay turn: append the user turn to the cached
// history, ask the model (dispatching at most one round of tool calls), and
// persist both transcript rows in a single transaction. Inference and tool
// failures degrade to an apology instead of an error.
func (s *service) HandleTurn(ctx context.Context, session *models.ChatbotSession, message string) (string, error) {
	ctx = s.logg.WithSessionID(ctx, session.SessionID)

	turns, err := s.history.Load(ctx, session.SessionID, session.ID)
	if err != nil {
		s.logg.Error(ctx, "loading chat history failed", err)
		s.metrics.IncFailure("history")
	}

	if err := s.history.Append(ctx, session.SessionID, Turn{Role: llm.RoleUser, Content: message}); err != nil {
		s.logg.Error(ctx, "appending user turn failed", err)
		s.metrics.IncFailure("history")
	}
	turns = append(turns, Turn{Role: llm.RoleUser, Content: message})

	botContent, err := s.complete(ctx, session, turns)
	if err != nil {
		s.logg.Error(ctx, "chat completion failed", err)
		s.metrics.IncFailure("completion")
		botContent = apologyMessage
	}

	if err := s.history.Append(ctx, session.SessionID, Turn{Role: llm.RoleAssistant, Content: botContent}); err != nil {
		s.logg.Error(ctx, "appending bot turn failed", err)
		s.metrics.IncFailure("history")
	}

	if _, _, err := s.persistTurns(ctx, session, message, botContent); err != nil {
		s.logg.Error(ctx, "saving chat turns failed", err)
		s.metrics.IncFailure("persist")
		return botContent, fmt.Errorf("saving chat turns: %w", err)
	}

	return botContent, nil
}

// complete issues the completion call; when the model answers with tool
// calls it dispatches them and issues exactly one follow-up call for the
// natural-language summary.
func (s *service) complete(ctx context.Context, session *models.ChatbotSession, turns []Turn) (string, error) {
	messages := make([]llm.Message, 0, len(turns)+1)
	if prompt := strings.TrimSpace(s.cfg.SystemPrompt); prompt != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: prompt})
	}
	for _, turn := range turns {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}

	callCtx, cancel := context.WithTimeout(ctx, s.completionTimeout())
	defer cancel()

	started := s.now()
	completion, err := s.llm.CreateChatCompletion(callCtx, llm.Request{
		Messages: messages,
		Tools:    s.tools.Schemas(),
	})
	s.metrics.ObserveCompletion(s.model, s.now().Sub(started))
	if err != nil {
		return "", err
	}

	if !completion.HasToolCalls() {
		return completion.Message.Content, nil
	}

	messages = append(messages, completion.Message)
	for _, call := range completion.Message.ToolCalls {
		s.metrics.IncToolCall(call.Function.Name)
		result, err := s.tools.Dispatch(ctx, session.UserID, call)
		if err != nil {
			return "", fmt.Errorf("dispatching %s: %w", call.Function.Name, err)
		}
		messages = append(messages, llm.Message{
			Role:       llm.RoleTool,
			Content:    result,
			ToolCallID: call.ID,
			Name:       call.Function.Name,
		})
	}

	followCtx, cancel := context.WithTimeout(ctx, s.completionTimeout())
	defer cancel()

	started = s.now()
	followUp, err := s.llm.CreateChatCompletion(followCtx, llm.Request{Messages: messages})
	s.metrics.ObserveCompletion(s.model, s.now().Sub(started))
	if err != nil {
		return "", err
	}
	return followUp.Message.Content, nil
}

// persistTurns writes the user and bot messages atomically and touches the
// session's last_activity.
func (s *service) persistTurns(ctx context.Context, session *models.ChatbotSession, userContent, botContent string) (*models.ChatMessage, *models.ChatMessage, error) {
	now := s.now().UTC()
	userMessage := models.ChatMessage{
		SessionID:   session.ID,
		MessageType: enums.MessageTypeUser,
		Content:     userContent,
		Timestamp:   now,
	}
	botMessage := models.ChatMessage{
		SessionID:   session.ID,
		MessageType: enums.MessageTypeBot,
		Content:     botContent,
		Timestamp:   now.Add(time.Millisecond),
	}

	var saved []models.ChatMessage
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		saved = []models.ChatMessage{userMessage, botMessage}
		if err := repo.CreateMessages(ctx, saved); err != nil {
			return err
		}
		return repo.UpdateSession(ctx, session.ID, map[string]any{"last_activity": now})
	})
	if err != nil {
		return nil, nil, err
	}
	session.LastActivity = now
	return &saved[0], &saved[1], nil
}

func (s *service) completionTimeout() time.Duration {
	if s.cfg.CompletionTimeout > 0 {
		return s.cfg.CompletionTimeout
	}
	return 60 * time.Second
}

func (s *service) ownedSession(ctx context.Context, userID uuid.UUID, sessionID string) (*models.ChatbotSession, error) {
	session, err := s.repo.FindSessionForUser(ctx, sessionID, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading session")
	}
	return session, nil
}

// GenerateRuleBasedReply answers the REST chat path with keyword rules.
func GenerateRuleBasedReply(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "hello") || strings.Contains(lower, "hi"):
		return "Hello! How can I help you today?"
	case strings.Contains(lower, "product"):
		return "I can help you find products. What are you looking for?"
	case strings.Contains(lower, "price"):
		return "I can help you with pricing information. Which product are you interested in?"
	case strings.Contains(lower, "help"):
		return "I'm here to help! You can ask me about products, prices, orders, or anything else."
	default:
		return "Thank you for your message. How can I assist you further?"
	}
}
