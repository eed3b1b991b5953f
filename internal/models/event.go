package models

import "time"

// DocumentStatusEvent is published when a document reaches a terminal
// status or polling gives up on it.
type DocumentStatusEvent struct {
	EventID    string           `json:"event_id"`
	DocumentID string           `json:"document_id"`
	Status     ProcessingStatus `json:"status"`
	Error      string           `json:"error,omitempty"`
	TimedOut   bool             `json:"timed_out,omitempty"`
	Attempts   int              `json:"attempts"`
	OccurredAt time.Time        `json:"occurred_at"`
}
