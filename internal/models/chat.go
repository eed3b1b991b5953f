package models

import (
	"math"
	"time"
)

type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

type ChatSession struct {
	SessionID    string    `json:"sessionId" validate:"required"`
	DocumentID   string    `json:"documentId"`
	CreatedAt    time.Time `json:"createdAt"`
	MessageCount int       `json:"messageCount"`
}

// IsActive reports whether the session was created within window of now.
// It is a display hint only; the backend decides actual expiry.
func (s *ChatSession) IsActive(now time.Time, window time.Duration) bool {
	if s == nil || s.CreatedAt.IsZero() {
		return false
	}
	return now.Sub(s.CreatedAt) < window
}

type MessageMetadata struct {
	ResponseTime int64   `json:"responseTime,omitempty"`
	Confidence   float64 `json:"confidence,omitempty"`
}

type ChatMessage struct {
	ID        string           `json:"id"`
	Role      ChatRole         `json:"role" validate:"required,oneof=user assistant"`
	Content   string           `json:"content"`
	Timestamp time.Time        `json:"timestamp"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
}

type SendMessageRequest struct {
	Message string `json:"message"`
}

type StartChatRequest struct {
	DocumentID string `json:"documentId"`
}

type QuickQuestionRequest struct {
	DocumentID string `json:"documentId"`
	Question   string `json:"question"`
}

type ChatReply struct {
	AssistantResponse string    `json:"assistantResponse" validate:"required"`
	Timestamp         time.Time `json:"timestamp"`
	ResponseTime      int64     `json:"responseTime,omitempty"`
	Confidence        float64   `json:"confidence,omitempty"`
}

type QuickAnswer struct {
	Question string           `json:"question"`
	Answer   string           `json:"answer"`
	Metadata *MessageMetadata `json:"metadata,omitempty"`
}

type ChatHistory struct {
	SessionID string        `json:"sessionId"`
	Messages  []ChatMessage `json:"messages" validate:"dive"`
}

type ChatSuggestions struct {
	Suggestions []string `json:"suggestions"`
}

var DefaultChatSuggestions = []string{
	"Explain this concept in simple terms",
	"What are the key points I should remember?",
	"Can you give me examples?",
	"How does this relate to other topics?",
	"Test my understanding with a question",
	"What should I study next?",
	"Summarize the main ideas",
	"Break this down step by step",
}

type Engagement string

const (
	EngagementLow    Engagement = "low"
	EngagementMedium Engagement = "medium"
	EngagementHigh   Engagement = "high"
)

type ChatMetrics struct {
	TotalMessages       int        `json:"totalMessages"`
	UserMessages        int        `json:"userMessages"`
	AssistantMessages   int        `json:"assistantMessages"`
	AverageResponseTime int64      `json:"averageResponseTime"`
	Engagement          Engagement `json:"engagement"`
}

// CalculateChatMetrics averages response time over assistant messages that
// report one.
func CalculateChatMetrics(messages []ChatMessage) ChatMetrics {
	m := ChatMetrics{TotalMessages: len(messages)}

	var sum int64
	var timed int
	for _, msg := range messages {
		switch msg.Role {
		case RoleUser:
			m.UserMessages++
		case RoleAssistant:
			m.AssistantMessages++
			if msg.Metadata != nil && msg.Metadata.ResponseTime > 0 {
				sum += msg.Metadata.ResponseTime
				timed++
			}
		}
	}
	if timed > 0 {
		m.AverageResponseTime = int64(math.Round(float64(sum) / float64(timed)))
	}

	switch {
	case m.TotalMessages > 10:
		m.Engagement = EngagementHigh
	case m.TotalMessages > 5:
		m.Engagement = EngagementMedium
	default:
		m.Engagement = EngagementLow
	}
	return m
}
