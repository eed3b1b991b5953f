package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckAnswer_MCQ(t *testing.T) {
	q := QuizQuestion{
		Type: QuestionMCQ,
		Options: []QuizOption{
			{Letter: "A", Text: "Paris", IsCorrect: true},
			{Letter: "B", Text: "Lyon", IsCorrect: false},
		},
	}

	assert.True(t, q.CheckAnswer("Paris"))
	assert.True(t, q.CheckAnswer("A"))
	assert.False(t, q.CheckAnswer("Lyon"))
	assert.False(t, q.CheckAnswer("B"))
	assert.False(t, q.CheckAnswer("paris"))

	swapped := QuizQuestion{
		Type: QuestionMCQ,
		Options: []QuizOption{
			{Letter: "A", Text: "B", IsCorrect: false},
			{Letter: "B", Text: "A", IsCorrect: true},
		},
	}
	assert.False(t, swapped.CheckAnswer("B"), "text of a wrong option wins over the correct letter")
	assert.True(t, swapped.CheckAnswer("A"))
}

func TestCheckAnswer_MCQWithoutCorrectOption(t *testing.T) {
	q := QuizQuestion{
		Type: QuestionMCQ,
		Options: []QuizOption{
			{Letter: "A", Text: "Agree"},
			{Letter: "B", Text: "Disagree"},
		},
	}

	assert.False(t, q.CheckAnswer("Agree"))
	assert.False(t, q.CheckAnswer("Disagree"))
}

func TestCheckAnswer_TrueFalse(t *testing.T) {
	q := QuizQuestion{Type: QuestionTrueFalse, CorrectAnswer: "True"}

	assert.True(t, q.CheckAnswer("true"))
	assert.True(t, q.CheckAnswer(" TRUE "))
	assert.False(t, q.CheckAnswer("false"))
}

func TestCheckAnswer_PresenceRule(t *testing.T) {
	for _, qt := range []QuestionType{QuestionShortAnswer, QuestionFlashcard} {
		q := QuizQuestion{Type: qt, CorrectAnswer: "mitochondria"}

		assert.True(t, q.CheckAnswer("anything at all"), qt)
		assert.False(t, q.CheckAnswer(""), qt)
		assert.False(t, q.CheckAnswer("   "), qt)
	}
}

func TestCalculateScore(t *testing.T) {
	yes, no := true, false
	answer := "x"

	questions := []QuizQuestion{
		{ID: "1", UserAnswer: &answer, IsAnswered: true, IsCorrect: &yes},
		{ID: "2", UserAnswer: &answer, IsAnswered: true, IsCorrect: &yes},
		{ID: "3", UserAnswer: &answer, IsAnswered: true, IsCorrect: &no},
		{ID: "4"},
		{ID: "5"},
	}

	assert.Equal(t, QuizScore{Total: 5, Answered: 3, Correct: 2, Percentage: 67}, CalculateScore(questions))
	assert.Equal(t, QuizScore{}, CalculateScore(nil))
	assert.Equal(t, QuizScore{Total: 2}, CalculateScore(questions[3:]))
}

func TestQuizQuestionClone_IsDeep(t *testing.T) {
	answer := "Paris"
	correct := true
	q := QuizQuestion{
		ID:         "q1",
		Options:    []QuizOption{{Letter: "A", Text: "Paris", IsCorrect: true}},
		UserAnswer: &answer,
		IsAnswered: true,
		IsCorrect:  &correct,
	}

	c := q.Clone()
	*c.UserAnswer = "Lyon"
	*c.IsCorrect = false
	c.Options[0].Text = "Nice"

	assert.Equal(t, "Paris", *q.UserAnswer)
	assert.True(t, *q.IsCorrect)
	assert.Equal(t, "Paris", q.Options[0].Text)
}

func TestQuestionTypeLabel(t *testing.T) {
	assert.Equal(t, "Multiple Choice", QuestionMCQ.Label())
	assert.Equal(t, "Unknown", QuestionType("essay").Label())
	assert.True(t, IsValidQuestionType("flashcard"))
	assert.False(t, IsValidQuestionType("essay"))
}
