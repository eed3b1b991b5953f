package models

import (
	"math"
	"strings"
)

type QuestionType string

const (
	QuestionMCQ         QuestionType = "mcq"
	QuestionShortAnswer QuestionType = "short_answer"
	QuestionTrueFalse   QuestionType = "true_false"
	QuestionFlashcard   QuestionType = "flashcard"
)

var QuestionTypes = []QuestionType{QuestionMCQ, QuestionShortAnswer, QuestionTrueFalse, QuestionFlashcard}

func IsValidQuestionType(t string) bool {
	for _, qt := range QuestionTypes {
		if string(qt) == t {
			return true
		}
	}
	return false
}

func (t QuestionType) Label() string {
	switch t {
	case QuestionMCQ:
		return "Multiple Choice"
	case QuestionShortAnswer:
		return "Short Answer"
	case QuestionTrueFalse:
		return "True/False"
	case QuestionFlashcard:
		return "Flashcard"
	default:
		return "Unknown"
	}
}

type QuizOption struct {
	Letter    string `json:"letter"`
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"isCorrect"`
}

type QuizQuestion struct {
	ID            string       `json:"id"`
	Type          QuestionType `json:"type" validate:"required,oneof=mcq short_answer true_false flashcard"`
	Question      string       `json:"question" validate:"required"`
	Options       []QuizOption `json:"options,omitempty" validate:"dive"`
	CorrectAnswer string       `json:"correctAnswer,omitempty"`
	Difficulty    string       `json:"difficulty,omitempty"`
	Explanation   string       `json:"explanation,omitempty"`

	UserAnswer *string `json:"userAnswer"`
	IsAnswered bool    `json:"isAnswered"`
	IsCorrect  *bool   `json:"isCorrect"`
}

// CheckAnswer applies the per-type correctness rule. Multiple choice resolves
// the answer to an option and accepts it only if it is the first option
// flagged correct; true/false compares case-insensitively; short answers and flashcards only
// require a non-blank answer.
func (q *QuizQuestion) CheckAnswer(value string) bool {
	switch q.Type {
	case QuestionMCQ:
		selected := q.selectedOption(value)
		if selected == nil {
			return false
		}
		for i := range q.Options {
			if q.Options[i].IsCorrect {
				return selected == &q.Options[i]
			}
		}
		return false
	case QuestionTrueFalse:
		return strings.EqualFold(strings.TrimSpace(q.CorrectAnswer), strings.TrimSpace(value))
	default:
		return strings.TrimSpace(value) != ""
	}
}

// selectedOption matches value against option text first and falls back to
// the option letter only when no text matches.
func (q *QuizQuestion) selectedOption(value string) *QuizOption {
	for i := range q.Options {
		if q.Options[i].Text == value {
			return &q.Options[i]
		}
	}
	for i := range q.Options {
		if q.Options[i].Letter != "" && q.Options[i].Letter == value {
			return &q.Options[i]
		}
	}
	return nil
}

func (q *QuizQuestion) ClearAnswer() {
	q.UserAnswer = nil
	q.IsAnswered = false
	q.IsCorrect = nil
}

func (q QuizQuestion) Clone() QuizQuestion {
	out := q
	out.Options = append([]QuizOption(nil), q.Options...)
	if q.UserAnswer != nil {
		a := *q.UserAnswer
		out.UserAnswer = &a
	}
	if q.IsCorrect != nil {
		c := *q.IsCorrect
		out.IsCorrect = &c
	}
	return out
}

type QuizScore struct {
	Total      int `json:"total"`
	Answered   int `json:"answered"`
	Correct    int `json:"correct"`
	Percentage int `json:"percentage"`
}

func CalculateScore(questions []QuizQuestion) QuizScore {
	score := QuizScore{Total: len(questions)}
	for _, q := range questions {
		if q.IsAnswered {
			score.Answered++
		}
		if q.IsCorrect != nil && *q.IsCorrect {
			score.Correct++
		}
	}
	if score.Answered > 0 {
		score.Percentage = int(math.Round(float64(score.Correct) / float64(score.Answered) * 100))
	}
	return score
}

// QuizFilters narrows a server-selected quiz. Zero values mean "any".
type QuizFilters struct {
	Difficulty   string `json:"difficulty,omitempty" validate:"omitempty,oneof=easy medium hard beginner intermediate advanced"`
	QuestionType string `json:"questionType,omitempty" validate:"omitempty,oneof=mcq short_answer true_false flashcard"`
	Count        int    `json:"count,omitempty" validate:"gte=0,lte=1000"`
}

type GenerateQuizOptions struct {
	Difficulty    string   `json:"difficulty,omitempty"`
	QuestionCount int      `json:"questionCount"`
	QuestionTypes []string `json:"questionTypes"`
	FocusTopics   []string `json:"focusTopics"`
}

type QuizResponse struct {
	Questions []QuizQuestion `json:"questions" validate:"dive"`
}
