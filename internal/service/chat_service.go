package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/RubachokBoss/study-helper/internal/config"
	"github.com/RubachokBoss/study-helper/internal/models"
	"github.com/RubachokBoss/study-helper/internal/service/integration"
	"github.com/RubachokBoss/study-helper/internal/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ChatController keeps one chat session and its append-only message log.
type ChatController struct {
	client integration.ChatClient
	cfg    config.ChatConfig
	store  *store.Store
	logger zerolog.Logger
	now    func() time.Time

	mu          sync.Mutex
	session     *models.ChatSession
	messages    []models.ChatMessage
	suggestions []string
}

func NewChatController(client integration.ChatClient, cfg config.ChatConfig, st *store.Store, logger zerolog.Logger) *ChatController {
	return &ChatController{
		client: client,
		cfg:    cfg,
		store:  st,
		logger: logger,
		now:    time.Now,
	}
}

// Start opens a new session for the document and drops any previous
// messages. Suggestions are loaded on a best-effort basis.
func (c *ChatController) Start(ctx context.Context, documentID string) (*models.ChatSession, error) {
	if documentID == "" {
		return nil, integration.NewValidationError("documentId", "document id is required")
	}

	session, err := c.client.Start(ctx, documentID)
	if err != nil {
		c.logger.Error().Err(err).Str("document_id", documentID).Msg("Failed to start chat session")
		c.dispatch(store.SetError{Message: err.Error()})
		return nil, fmt.Errorf("failed to start chat session: %w", err)
	}
	if session.DocumentID == "" {
		session.DocumentID = documentID
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = c.now().UTC()
	}

	suggestions := c.Suggestions(ctx, documentID)

	c.mu.Lock()
	s := *session
	c.session = &s
	c.messages = nil
	c.suggestions = suggestions
	c.mu.Unlock()

	c.dispatch(store.SetChatSession{Session: session})
	return session, nil
}

// Send validates message, appends it to the log straight away and then
// appends the assistant reply once it arrives.
func (c *ChatController) Send(ctx context.Context, message string) (*models.ChatMessage, error) {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return nil, ErrNoActiveSession
	}
	sessionID := c.session.SessionID
	c.mu.Unlock()

	clean, err := ValidateChatMessage(message, c.cfg.MaxMessageLength)
	if err != nil {
		return nil, err
	}

	userMsg := models.ChatMessage{
		ID:        uuid.NewString(),
		Role:      models.RoleUser,
		Content:   clean,
		Timestamp: c.now().UTC(),
	}
	if !c.appendMessage(sessionID, userMsg) {
		return nil, ErrNoActiveSession
	}

	reply, err := c.client.Send(ctx, sessionID, clean)
	if err != nil {
		c.logger.Error().Err(err).Str("session_id", sessionID).Msg("Failed to send chat message")
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	assistantMsg := models.ChatMessage{
		ID:        uuid.NewString(),
		Role:      models.RoleAssistant,
		Content:   reply.AssistantResponse,
		Timestamp: reply.Timestamp,
		Metadata: &models.MessageMetadata{
			ResponseTime: reply.ResponseTime,
			Confidence:   reply.Confidence,
		},
	}
	if assistantMsg.Timestamp.IsZero() {
		assistantMsg.Timestamp = c.now().UTC()
	}
	if !c.appendMessage(sessionID, assistantMsg) {
		return nil, ErrNoActiveSession
	}

	return &assistantMsg, nil
}

// History fetches the server-side message log for the current session and
// replaces the local one with it.
func (c *ChatController) History(ctx context.Context, limit int) ([]models.ChatMessage, error) {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return nil, ErrNoActiveSession
	}
	sessionID := c.session.SessionID
	c.mu.Unlock()

	if limit <= 0 {
		limit = c.cfg.HistoryLimit
	}

	messages, err := c.client.History(ctx, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	for i := range messages {
		if messages[i].ID == "" {
			messages[i].ID = uuid.NewString()
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || c.session.SessionID != sessionID {
		return nil, ErrNoActiveSession
	}
	c.messages = cloneMessages(messages)
	return cloneMessages(messages), nil
}

// Quick asks a one-off question without opening a session.
func (c *ChatController) Quick(ctx context.Context, documentID, question string) (*models.QuickAnswer, error) {
	if documentID == "" {
		return nil, integration.NewValidationError("documentId", "document id is required")
	}
	clean, err := ValidateChatMessage(question, c.cfg.MaxMessageLength)
	if err != nil {
		return nil, err
	}

	answer, err := c.client.Quick(ctx, documentID, clean)
	if err != nil {
		return nil, fmt.Errorf("failed to ask question: %w", err)
	}
	return answer, nil
}

// Suggestions never fails: on any error it logs a warning and falls back to
// the default suggestions.
func (c *ChatController) Suggestions(ctx context.Context, documentID string) []string {
	suggestions, err := c.client.Suggestions(ctx, documentID)
	if err != nil || len(suggestions) == 0 {
		if err != nil {
			c.logger.Warn().Err(err).Str("document_id", documentID).Msg("Failed to load chat suggestions, using defaults")
		}
		return slices.Clone(models.DefaultChatSuggestions)
	}
	return suggestions
}

// End closes the session on the server if possible. Local state is cleared
// regardless of the outcome.
func (c *ChatController) End(ctx context.Context) error {
	c.mu.Lock()
	session := c.session
	c.session = nil
	c.messages = nil
	c.suggestions = nil
	c.mu.Unlock()

	c.dispatch(store.SetChatSession{Session: nil})

	if session == nil {
		return nil
	}
	if err := c.client.End(ctx, session.SessionID); err != nil {
		c.logger.Warn().Err(err).Str("session_id", session.SessionID).Msg("Failed to end chat session on server")
	}
	return nil
}

func (c *ChatController) Session() *models.ChatSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

func (c *ChatController) Messages() []models.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneMessages(c.messages)
}

func (c *ChatController) CurrentSuggestions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.suggestions)
}

func (c *ChatController) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.IsActive(c.now(), c.cfg.ActiveWindow)
}

func (c *ChatController) Metrics() models.ChatMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.CalculateChatMetrics(c.messages)
}

// appendMessage adds msg unless the session changed in the meantime.
func (c *ChatController) appendMessage(sessionID string, msg models.ChatMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil || c.session.SessionID != sessionID {
		return false
	}
	c.messages = append(c.messages, msg)
	c.session.MessageCount = len(c.messages)
	return true
}

func (c *ChatController) dispatch(actions ...store.Action) {
	if c.store == nil {
		return
	}
	for _, a := range actions {
		c.store.Dispatch(a)
	}
}

func cloneMessages(in []models.ChatMessage) []models.ChatMessage {
	out := make([]models.ChatMessage, len(in))
	for i, m := range in {
		out[i] = m
		if m.Metadata != nil {
			md := *m.Metadata
			out[i].Metadata = &md
		}
	}
	return out
}
