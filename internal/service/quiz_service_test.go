package service

import (
	"context"
	"errors"
	"testing"

	"github.com/RubachokBoss/study-helper/internal/models"
	"github.com/RubachokBoss/study-helper/internal/service/integration"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleQuestions() []models.QuizQuestion {
	return []models.QuizQuestion{
		{
			ID:       "q1",
			Type:     models.QuestionMCQ,
			Question: "Capital of France?",
			Options: []models.QuizOption{
				{Letter: "A", Text: "Paris", IsCorrect: true},
				{Letter: "B", Text: "Lyon"},
			},
		},
		{ID: "q2", Type: models.QuestionTrueFalse, Question: "The sun is a star.", CorrectAnswer: "true"},
		{ID: "q3", Type: models.QuestionShortAnswer, Question: "Define osmosis.", CorrectAnswer: "diffusion of water"},
		{ID: "q4", Type: models.QuestionFlashcard, Question: "ATP", CorrectAnswer: "energy currency"},
		{ID: "q5", Type: models.QuestionTrueFalse, Question: "Water boils at 50C.", CorrectAnswer: "false"},
	}
}

func loadedQuiz(t *testing.T) *QuizController {
	t.Helper()

	client := new(mockAnalysisClient)
	client.On("Quiz", mock.Anything, "doc_1", models.QuizFilters{}).Return(sampleQuestions(), nil)

	c := NewQuizController(client, testQuizConfig(), zerolog.Nop())
	_, err := c.Load(context.Background(), "doc_1", models.QuizFilters{})
	require.NoError(t, err)
	return c
}

func TestQuiz_ScoreAfterAnswers(t *testing.T) {
	c := loadedQuiz(t)

	_, err := c.Answer("q1", "Paris")
	require.NoError(t, err)
	_, err = c.Answer("q2", "True")
	require.NoError(t, err)
	_, err = c.Answer("q5", "true")
	require.NoError(t, err)

	assert.Equal(t, models.QuizScore{Total: 5, Answered: 3, Correct: 2, Percentage: 67}, c.Score())
}

func TestQuiz_MCQCorrectness(t *testing.T) {
	c := loadedQuiz(t)

	q, err := c.Answer("q1", "Paris")
	require.NoError(t, err)
	require.NotNil(t, q.IsCorrect)
	assert.True(t, *q.IsCorrect)

	q, err = c.Answer("q1", "Lyon")
	require.NoError(t, err)
	assert.False(t, *q.IsCorrect)
	assert.Equal(t, "Lyon", *q.UserAnswer)
	assert.Equal(t, models.QuizScore{Total: 5, Answered: 1, Correct: 0, Percentage: 0}, c.Score())
}

func TestQuiz_AnswerIsIdempotent(t *testing.T) {
	once := loadedQuiz(t)
	twice := loadedQuiz(t)

	_, err := once.Answer("q1", "A")
	require.NoError(t, err)
	_, err = twice.Answer("q1", "A")
	require.NoError(t, err)
	_, err = twice.Answer("q1", "A")
	require.NoError(t, err)

	assert.Equal(t, once.Questions(), twice.Questions())
	assert.Equal(t, once.Score(), twice.Score())
}

func TestQuiz_PresenceRule(t *testing.T) {
	c := loadedQuiz(t)

	q, err := c.Answer("q3", "")
	require.NoError(t, err)
	assert.True(t, q.IsAnswered)
	assert.False(t, *q.IsCorrect)

	q, err = c.Answer("q4", "something")
	require.NoError(t, err)
	assert.True(t, *q.IsCorrect)
}

func TestQuiz_Reset(t *testing.T) {
	c := loadedQuiz(t)
	for _, id := range []string{"q1", "q2", "q3"} {
		_, err := c.Answer(id, "x")
		require.NoError(t, err)
	}

	c.Reset()

	for _, q := range c.Questions() {
		assert.Nil(t, q.UserAnswer)
		assert.False(t, q.IsAnswered)
		assert.Nil(t, q.IsCorrect)
	}
	assert.Equal(t, models.QuizScore{Total: 5}, c.Score())
}

func TestQuiz_UnknownQuestion(t *testing.T) {
	c := loadedQuiz(t)

	_, err := c.Answer("nope", "A")
	assert.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestQuiz_QuestionsAreCopies(t *testing.T) {
	c := loadedQuiz(t)
	_, err := c.Answer("q1", "Paris")
	require.NoError(t, err)

	qs := c.Questions()
	*qs[0].UserAnswer = "Lyon"
	qs[0].Options[0].Text = "Berlin"

	fresh := c.Questions()
	assert.Equal(t, "Paris", *fresh[0].UserAnswer)
	assert.Equal(t, "Paris", fresh[0].Options[0].Text)
}

func TestQuiz_LoadAssignsLettersAndIDs(t *testing.T) {
	client := new(mockAnalysisClient)
	client.On("Quiz", mock.Anything, "doc_1", mock.Anything).Return([]models.QuizQuestion{
		{Type: models.QuestionMCQ, Question: "first", Options: []models.QuizOption{{Text: "x"}, {Text: "y", IsCorrect: true}}},
		{ID: "dup", Type: models.QuestionShortAnswer, Question: "second"},
		{ID: "dup", Type: models.QuestionShortAnswer, Question: "third"},
	}, nil)

	c := NewQuizController(client, testQuizConfig(), zerolog.Nop())
	qs, err := c.Load(context.Background(), "doc_1", models.QuizFilters{Count: 3})
	require.NoError(t, err)
	require.Len(t, qs, 3)

	assert.NotEmpty(t, qs[0].ID)
	assert.Equal(t, "A", qs[0].Options[0].Letter)
	assert.Equal(t, "B", qs[0].Options[1].Letter)
	assert.Equal(t, "dup", qs[1].ID)
	assert.NotEqual(t, "dup", qs[2].ID)

	q, err := c.Answer(qs[0].ID, "B")
	require.NoError(t, err)
	assert.True(t, *q.IsCorrect)

	_, err = c.Answer(qs[2].ID, "answer")
	require.NoError(t, err)
	assert.False(t, c.Questions()[1].IsAnswered)
}

func TestQuiz_GenerateValidation(t *testing.T) {
	client := new(mockAnalysisClient)
	client.On("CustomQuiz", mock.Anything, "doc_1", mock.MatchedBy(func(o models.GenerateQuizOptions) bool {
		return o.QuestionCount == 20
	})).Return(sampleQuestions(), nil)

	c := NewQuizController(client, testQuizConfig(), zerolog.Nop())

	_, err := c.Generate(context.Background(), "doc_1", models.GenerateQuizOptions{QuestionCount: 25})
	var vErr *integration.ValidationError
	require.ErrorAs(t, err, &vErr)
	client.AssertNotCalled(t, "CustomQuiz", mock.Anything, mock.Anything, mock.Anything)

	qs, err := c.Generate(context.Background(), "doc_1", models.GenerateQuizOptions{QuestionCount: 20})
	require.NoError(t, err)
	assert.Len(t, qs, 5)
	client.AssertNumberOfCalls(t, "CustomQuiz", 1)
}

func TestQuiz_GenerateReplacesWholesale(t *testing.T) {
	c := loadedQuiz(t)
	_, err := c.Answer("q1", "Paris")
	require.NoError(t, err)

	client := c.client.(*mockAnalysisClient)
	client.On("CustomQuiz", mock.Anything, "doc_1", mock.Anything).Return([]models.QuizQuestion{
		{ID: "n1", Type: models.QuestionFlashcard, Question: "new"},
	}, nil)

	qs, err := c.Generate(context.Background(), "doc_1", models.GenerateQuizOptions{})
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, models.QuizScore{Total: 1}, c.Score())

	_, err = c.Answer("q1", "Paris")
	assert.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestQuiz_LoadFailureKeepsCurrentSet(t *testing.T) {
	c := loadedQuiz(t)
	client := c.client.(*mockAnalysisClient)
	client.On("Quiz", mock.Anything, "doc_2", mock.Anything).Return(nil, &integration.NetworkError{Op: "GET", Err: errors.New("down")})

	_, err := c.Load(context.Background(), "doc_2", models.QuizFilters{})

	var netErr *integration.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Len(t, c.Questions(), 5)
	assert.Equal(t, "doc_1", c.DocumentID())
}

func TestQuiz_LoadRejectsBadFilters(t *testing.T) {
	client := new(mockAnalysisClient)
	c := NewQuizController(client, testQuizConfig(), zerolog.Nop())

	_, err := c.Load(context.Background(), "doc_1", models.QuizFilters{QuestionType: "essay"})

	var vErr *integration.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "questionType", vErr.Field)
	client.AssertNotCalled(t, "Quiz", mock.Anything, mock.Anything, mock.Anything)
}
