package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/RubachokBoss/study-helper/internal/config"
	"github.com/RubachokBoss/study-helper/internal/models"
	"github.com/RubachokBoss/study-helper/internal/service/integration"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// QuizController owns one in-memory question set and its answer state.
type QuizController struct {
	client    integration.AnalysisClient
	cfg       config.QuizConfig
	validator *structValidator
	logger    zerolog.Logger

	mu         sync.Mutex
	documentID string
	questions  []models.QuizQuestion
	index      map[string]int
	seq        uint64
}

func NewQuizController(client integration.AnalysisClient, cfg config.QuizConfig, logger zerolog.Logger) *QuizController {
	return &QuizController{
		client:    client,
		cfg:       cfg,
		validator: newStructValidator(),
		logger:    logger,
		index:     make(map[string]int),
	}
}

// Load fetches a server-selected question set and replaces the current one.
func (c *QuizController) Load(ctx context.Context, documentID string, filters models.QuizFilters) ([]models.QuizQuestion, error) {
	if documentID == "" {
		return nil, integration.NewValidationError("documentId", "document id is required")
	}
	if err := c.validator.Struct(&filters); err != nil {
		return nil, err
	}

	seq := c.nextSeq()
	questions, err := c.client.Quiz(ctx, documentID, filters)
	if err != nil {
		c.logger.Error().Err(err).Str("document_id", documentID).Msg("Failed to load quiz")
		return nil, fmt.Errorf("failed to load quiz: %w", err)
	}

	return c.replace(seq, documentID, questions), nil
}

// Generate asks the backend for a custom quiz. Options are checked before any
// request is made.
func (c *QuizController) Generate(ctx context.Context, documentID string, opts models.GenerateQuizOptions) ([]models.QuizQuestion, error) {
	if documentID == "" {
		return nil, integration.NewValidationError("documentId", "document id is required")
	}
	normalized, err := normalizeGenerateOptions(opts, c.cfg)
	if err != nil {
		return nil, err
	}

	seq := c.nextSeq()
	questions, err := c.client.CustomQuiz(ctx, documentID, normalized)
	if err != nil {
		c.logger.Error().Err(err).Str("document_id", documentID).Msg("Failed to generate quiz")
		return nil, fmt.Errorf("failed to generate quiz: %w", err)
	}

	return c.replace(seq, documentID, questions), nil
}

// Answer records value for the question and recomputes its correctness.
// Re-answering overwrites the previous answer.
func (c *QuizController) Answer(questionID, value string) (models.QuizQuestion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[questionID]
	if !ok {
		return models.QuizQuestion{}, fmt.Errorf("%w: %s", ErrQuestionNotFound, questionID)
	}

	q := &c.questions[i]
	answer := value
	correct := q.CheckAnswer(value)
	q.UserAnswer = &answer
	q.IsAnswered = true
	q.IsCorrect = &correct

	return q.Clone(), nil
}

// Reset clears every answer without refetching.
func (c *QuizController) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.questions {
		c.questions[i].ClearAnswer()
	}
}

func (c *QuizController) Score() models.QuizScore {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.CalculateScore(c.questions)
}

func (c *QuizController) Questions() []models.QuizQuestion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyLocked()
}

func (c *QuizController) DocumentID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.documentID
}

func (c *QuizController) nextSeq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// replace installs a fetched set unless a newer request has started since.
func (c *QuizController) replace(seq uint64, documentID string, fetched []models.QuizQuestion) []models.QuizQuestion {
	questions, index := c.prepare(fetched)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		c.logger.Debug().Str("document_id", documentID).Msg("Discarding superseded quiz result")
		out := make([]models.QuizQuestion, len(questions))
		for i, q := range questions {
			out[i] = q.Clone()
		}
		return out
	}

	c.documentID = documentID
	c.questions = questions
	c.index = index

	c.logger.Info().
		Str("document_id", documentID).
		Int("questions", len(questions)).
		Msg("Quiz loaded")

	return c.copyLocked()
}

// prepare resets session fields, assigns option letters by position and
// makes question ids unique.
func (c *QuizController) prepare(fetched []models.QuizQuestion) ([]models.QuizQuestion, map[string]int) {
	questions := make([]models.QuizQuestion, len(fetched))
	index := make(map[string]int, len(fetched))

	for i, q := range fetched {
		q = q.Clone()
		q.ClearAnswer()

		for j := range q.Options {
			if q.Options[j].Letter == "" {
				q.Options[j].Letter = optionLetter(j)
			}
		}

		if q.ID == "" {
			q.ID = uuid.NewString()
		} else if _, dup := index[q.ID]; dup {
			newID := uuid.NewString()
			c.logger.Warn().
				Str("question_id", q.ID).
				Str("new_id", newID).
				Msg("Duplicate question id, re-keyed")
			q.ID = newID
		}

		index[q.ID] = i
		questions[i] = q
	}
	return questions, index
}

func optionLetter(i int) string {
	if i < 26 {
		return string(rune('A' + i))
	}
	return fmt.Sprintf("%s%d", string(rune('A'+i%26)), i/26)
}

func (c *QuizController) copyLocked() []models.QuizQuestion {
	out := make([]models.QuizQuestion, len(c.questions))
	for i, q := range c.questions {
		out[i] = q.Clone()
	}
	return out
}
