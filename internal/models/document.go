package models

import (
	"time"
)

type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

func (s ProcessingStatus) String() string {
	return string(s)
}

func (s ProcessingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

func IsValidProcessingStatus(status string) bool {
	switch ProcessingStatus(status) {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

type Document struct {
	DocumentID       string           `json:"documentId" validate:"required"`
	OriginalFilename string           `json:"originalFilename,omitempty"`
	UploadedAt       time.Time        `json:"uploadedAt"`
	ProcessingStatus ProcessingStatus `json:"processingStatus" validate:"required,oneof=pending processing completed failed"`
	IsProcessed      bool             `json:"isProcessed"`
	Analysis         *Analysis        `json:"analysis,omitempty"`
	Error            *DocumentError   `json:"error,omitempty"`
}

type Analysis struct {
	Subject     string    `json:"subject"`
	Difficulty  string    `json:"difficulty"`
	Summary     string    `json:"summary"`
	Concepts    []Concept `json:"concepts,omitempty"`
	KeyPoints   []string  `json:"keyPoints,omitempty"`
	Topics      []string  `json:"topics,omitempty"`
	Explanation string    `json:"explanation,omitempty"`
}

type Concept struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Importance  string `json:"importance,omitempty"`
}

type DocumentError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Normalize enforces the document invariants on a payload received from the
// backend: IsProcessed is derived from the status, Analysis only survives on
// completed documents and Error only on failed ones.
func (d *Document) Normalize() {
	d.IsProcessed = d.ProcessingStatus == StatusCompleted
	if !d.IsProcessed {
		d.Analysis = nil
	}
	if d.ProcessingStatus != StatusFailed {
		d.Error = nil
	}
}

// FailureMessage returns the server-supplied failure message, or a generic one.
func (d *Document) FailureMessage() string {
	if d.Error != nil && d.Error.Message != "" {
		return d.Error.Message
	}
	return "processing failed"
}

func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}

	out := *d
	if d.Analysis != nil {
		a := *d.Analysis
		a.Concepts = append([]Concept(nil), d.Analysis.Concepts...)
		a.KeyPoints = append([]string(nil), d.Analysis.KeyPoints...)
		a.Topics = append([]string(nil), d.Analysis.Topics...)
		out.Analysis = &a
	}
	if d.Error != nil {
		e := *d.Error
		out.Error = &e
	}
	return &out
}

// UploadFile is an image selected for upload. ContentType may be left empty,
// in which case it is sniffed from Data.
type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f UploadFile) Size() int64 {
	return int64(len(f.Data))
}

type DocumentSummary struct {
	DocumentID string   `json:"documentId"`
	Length     string   `json:"length,omitempty"`
	Summary    string   `json:"summary"`
	KeyPoints  []string `json:"keyPoints,omitempty"`
}

type RegenerateAnalysisRequest struct {
	Prompt     string `json:"prompt,omitempty"`
	FocusArea  string `json:"focusArea,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}
