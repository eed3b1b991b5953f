package models

import "time"

type ExportType string

const (
	ExportAnalysis   ExportType = "analysis"
	ExportQuiz       ExportType = "quiz"
	ExportFlashcards ExportType = "flashcards"
	ExportSummary    ExportType = "summary"
)

func IsValidExportType(t string) bool {
	switch ExportType(t) {
	case ExportAnalysis, ExportQuiz, ExportFlashcards, ExportSummary:
		return true
	default:
		return false
	}
}

func (t ExportType) DisplayName() string {
	switch t {
	case ExportAnalysis:
		return "Full Analysis"
	case ExportQuiz:
		return "Quiz Questions"
	case ExportFlashcards:
		return "Flashcards"
	case ExportSummary:
		return "Summary Notes"
	default:
		return "Unknown"
	}
}

// ExportOptions carries the per-type toggles sent as query parameters.
// Nil pointers are omitted and the backend default applies.
type ExportOptions struct {
	IncludeOCR       *bool  `json:"includeOCR,omitempty"`
	IncludeQuiz      *bool  `json:"includeQuiz,omitempty"`
	QuestionType     string `json:"questionType,omitempty"`
	Difficulty       string `json:"difficulty,omitempty"`
	IncludeAnswers   *bool  `json:"includeAnswers,omitempty"`
	IncludeKeyPoints *bool  `json:"includeKeyPoints,omitempty"`
	IncludeConcepts  *bool  `json:"includeConcepts,omitempty"`
}

type ExportResult struct {
	Filename   string     `json:"filename" validate:"required"`
	Size       int64      `json:"size" validate:"gte=0"`
	Type       ExportType `json:"type,omitempty"`
	DocumentID string     `json:"documentId,omitempty"`
}

// ExportRecord is a row of the local, non-authoritative export history.
type ExportRecord struct {
	ID         string     `json:"id" db:"id"`
	DocumentID string     `json:"documentId" db:"document_id"`
	Type       ExportType `json:"type" db:"export_type"`
	Filename   string     `json:"filename" db:"filename"`
	Size       int64      `json:"size" db:"size"`
	Location   string     `json:"location,omitempty" db:"location"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
}

type ExportHistory struct {
	DocumentID string         `json:"documentId"`
	Exports    []ExportResult `json:"exports"`
}
