package integration

import (
	"context"
	"net/url"
	"strconv"

	"github.com/RubachokBoss/study-helper/internal/models"
	"github.com/rs/zerolog"
)

type ChatClient interface {
	Start(ctx context.Context, documentID string) (*models.ChatSession, error)
	Send(ctx context.Context, sessionID, message string) (*models.ChatReply, error)
	History(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error)
	Session(ctx context.Context, sessionID string) (*models.ChatSession, error)
	End(ctx context.Context, sessionID string) error
	Quick(ctx context.Context, documentID, question string) (*models.QuickAnswer, error)
	Suggestions(ctx context.Context, documentID string) ([]string, error)
}

type chatClient struct {
	gw     *Gateway
	logger zerolog.Logger
}

func NewChatClient(gw *Gateway, logger zerolog.Logger) ChatClient {
	return &chatClient{
		gw:     gw,
		logger: logger,
	}
}

func chatPath(sessionID string) string {
	return "/chat/" + url.PathEscape(sessionID)
}

func (c *chatClient) Start(ctx context.Context, documentID string) (*models.ChatSession, error) {
	var session models.ChatSession
	if err := c.gw.Post(ctx, "/chat/start", nil, models.StartChatRequest{DocumentID: documentID}, &session); err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("document_id", documentID).
		Str("session_id", session.SessionID).
		Msg("Chat session started")

	return &session, nil
}

func (c *chatClient) Send(ctx context.Context, sessionID, message string) (*models.ChatReply, error) {
	var reply models.ChatReply
	if err := c.gw.Post(ctx, chatPath(sessionID)+"/message", nil, models.SendMessageRequest{Message: message}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *chatClient) History(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var history models.ChatHistory
	if err := c.gw.Get(ctx, chatPath(sessionID)+"/history", query, &history); err != nil {
		return nil, err
	}
	return history.Messages, nil
}

func (c *chatClient) Session(ctx context.Context, sessionID string) (*models.ChatSession, error) {
	var session models.ChatSession
	if err := c.gw.Get(ctx, chatPath(sessionID), nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *chatClient) End(ctx context.Context, sessionID string) error {
	return c.gw.Delete(ctx, chatPath(sessionID), nil)
}

func (c *chatClient) Quick(ctx context.Context, documentID, question string) (*models.QuickAnswer, error) {
	var answer models.QuickAnswer
	req := models.QuickQuestionRequest{DocumentID: documentID, Question: question}
	if err := c.gw.Post(ctx, "/chat/quick", nil, req, &answer); err != nil {
		return nil, err
	}
	return &answer, nil
}

func (c *chatClient) Suggestions(ctx context.Context, documentID string) ([]string, error) {
	var resp models.ChatSuggestions
	if err := c.gw.Get(ctx, "/chat/suggestions/"+url.PathEscape(documentID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Suggestions, nil
}
