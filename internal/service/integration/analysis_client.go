package integration

import (
	"context"
	"net/url"
	"strconv"

	"github.com/RubachokBoss/study-helper/internal/models"
	"github.com/rs/zerolog"
)

type AnalysisClient interface {
	Analysis(ctx context.Context, documentID string) (*models.Document, error)
	Summary(ctx context.Context, documentID, length string) (*models.DocumentSummary, error)
	Regenerate(ctx context.Context, documentID string, req models.RegenerateAnalysisRequest) (*models.Document, error)
	Quiz(ctx context.Context, documentID string, filters models.QuizFilters) ([]models.QuizQuestion, error)
	CustomQuiz(ctx context.Context, documentID string, opts models.GenerateQuizOptions) ([]models.QuizQuestion, error)
}

type analysisClient struct {
	gw     *Gateway
	logger zerolog.Logger
}

func NewAnalysisClient(gw *Gateway, logger zerolog.Logger) AnalysisClient {
	return &analysisClient{
		gw:     gw,
		logger: logger,
	}
}

func analysisPath(documentID string) string {
	return "/analysis/" + url.PathEscape(documentID)
}

func (c *analysisClient) Analysis(ctx context.Context, documentID string) (*models.Document, error) {
	var doc models.Document
	if err := c.gw.Get(ctx, analysisPath(documentID), nil, &doc); err != nil {
		return nil, err
	}
	doc.Normalize()
	return &doc, nil
}

func (c *analysisClient) Summary(ctx context.Context, documentID, length string) (*models.DocumentSummary, error) {
	query := url.Values{}
	if length != "" {
		query.Set("length", length)
	}

	var summary models.DocumentSummary
	if err := c.gw.Get(ctx, analysisPath(documentID)+"/summary", query, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *analysisClient) Regenerate(ctx context.Context, documentID string, req models.RegenerateAnalysisRequest) (*models.Document, error) {
	var doc models.Document
	if err := c.gw.Post(ctx, analysisPath(documentID)+"/regenerate", nil, req, &doc); err != nil {
		return nil, err
	}
	doc.Normalize()

	c.logger.Info().Str("document_id", documentID).Msg("Analysis regenerated")
	return &doc, nil
}

func (c *analysisClient) Quiz(ctx context.Context, documentID string, filters models.QuizFilters) ([]models.QuizQuestion, error) {
	query := url.Values{}
	if filters.Difficulty != "" {
		query.Set("difficulty", filters.Difficulty)
	}
	if filters.QuestionType != "" {
		query.Set("questionType", filters.QuestionType)
	}
	if filters.Count > 0 {
		query.Set("count", strconv.Itoa(filters.Count))
	}

	var resp models.QuizResponse
	if err := c.gw.Get(ctx, analysisPath(documentID)+"/quiz", query, &resp); err != nil {
		return nil, err
	}
	return resp.Questions, nil
}

func (c *analysisClient) CustomQuiz(ctx context.Context, documentID string, opts models.GenerateQuizOptions) ([]models.QuizQuestion, error) {
	var resp models.QuizResponse
	if err := c.gw.Post(ctx, analysisPath(documentID)+"/quiz/custom", nil, opts, &resp); err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("document_id", documentID).
		Int("questions", len(resp.Questions)).
		Msg("Custom quiz generated")

	return resp.Questions, nil
}
