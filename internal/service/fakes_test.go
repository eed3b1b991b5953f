package service

import (
	"context"
	"sync"

	"github.com/RubachokBoss/study-helper/internal/config"
	"github.com/RubachokBoss/study-helper/internal/models"
	"github.com/RubachokBoss/study-helper/internal/service/integration"
	"github.com/stretchr/testify/mock"
)

type mockUploadClient struct {
	mock.Mock
}

func (m *mockUploadClient) Upload(ctx context.Context, file models.UploadFile, prompt, processType string, onProgress integration.ProgressFunc) (*models.Document, error) {
	args := m.Called(ctx, file, prompt, processType, onProgress)
	doc, _ := args.Get(0).(*models.Document)
	return doc, args.Error(1)
}

func (m *mockUploadClient) Status(ctx context.Context, documentID string) (*models.Document, error) {
	args := m.Called(ctx, documentID)
	doc, _ := args.Get(0).(*models.Document)
	return doc, args.Error(1)
}

func (m *mockUploadClient) Retry(ctx context.Context, documentID string) error {
	return m.Called(ctx, documentID).Error(0)
}

func (m *mockUploadClient) Recent(ctx context.Context, limit int) ([]models.Document, error) {
	args := m.Called(ctx, limit)
	docs, _ := args.Get(0).([]models.Document)
	return docs, args.Error(1)
}

func (m *mockUploadClient) Delete(ctx context.Context, documentID string) error {
	return m.Called(ctx, documentID).Error(0)
}

type statusResult struct {
	status  models.ProcessingStatus
	message string
	err     error
}

// scriptedUploadClient replays status results in order and repeats the last
// one once the script runs out.
type scriptedUploadClient struct {
	mu          sync.Mutex
	progress    []float64
	uploadErr   error
	script      []statusResult
	statusCalls int
	retryCalls  int
	retryErr    error
}

func (c *scriptedUploadClient) Upload(_ context.Context, file models.UploadFile, _, _ string, onProgress integration.ProgressFunc) (*models.Document, error) {
	for _, p := range c.progress {
		onProgress(p)
	}
	if c.uploadErr != nil {
		return nil, c.uploadErr
	}
	return &models.Document{DocumentID: "doc_abc_123", ProcessingStatus: models.StatusPending}, nil
}

func (c *scriptedUploadClient) Status(_ context.Context, documentID string) (*models.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.statusCalls
	if idx >= len(c.script) {
		idx = len(c.script) - 1
	}
	c.statusCalls++

	r := c.script[idx]
	if r.err != nil {
		return nil, r.err
	}
	doc := &models.Document{DocumentID: documentID, ProcessingStatus: r.status}
	switch r.status {
	case models.StatusCompleted:
		doc.Analysis = &models.Analysis{Subject: "biology", Summary: "cells"}
	case models.StatusFailed:
		if r.message != "" {
			doc.Error = &models.DocumentError{Message: r.message}
		}
	}
	doc.Normalize()
	return doc, nil
}

func (c *scriptedUploadClient) Retry(context.Context, string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retryCalls++
	return c.retryErr
}

func (c *scriptedUploadClient) Recent(context.Context, int) ([]models.Document, error) {
	return nil, nil
}

func (c *scriptedUploadClient) Delete(context.Context, string) error {
	return nil
}

func (c *scriptedUploadClient) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusCalls
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.DocumentStatusEvent
}

func (n *recordingNotifier) PublishDocumentStatus(_ context.Context, event *models.DocumentStatusEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, *event)
	return nil
}

func (n *recordingNotifier) Close() error {
	return nil
}

func (n *recordingNotifier) all() []models.DocumentStatusEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.DocumentStatusEvent(nil), n.events...)
}

func testUploadConfig() config.UploadConfig {
	return config.UploadConfig{
		MaxFileSize:     10 * 1024 * 1024,
		AllowedTypes:    []string{"image/jpeg", "image/jpg", "image/png", "image/webp", "image/gif", "image/bmp", "image/tiff"},
		PromptMinLength: 10,
		PromptMaxLength: 1000,
		UnsafePatterns: []string{
			`(?i)<script`, `(?i)javascript:`, `(?i)data:text/html`,
			`(?i)onclick`, `(?i)onerror`, `(?i)onload`, `(?i)onmouseover`,
		},
		ProcessType: "analysis",
	}
}

func testQuizConfig() config.QuizConfig {
	return config.QuizConfig{DefaultCount: 5, MaxCount: 20, MaxTopics: 10}
}

type mockAnalysisClient struct {
	mock.Mock
}

func (m *mockAnalysisClient) Analysis(ctx context.Context, documentID string) (*models.Document, error) {
	args := m.Called(ctx, documentID)
	doc, _ := args.Get(0).(*models.Document)
	return doc, args.Error(1)
}

func (m *mockAnalysisClient) Summary(ctx context.Context, documentID, length string) (*models.DocumentSummary, error) {
	args := m.Called(ctx, documentID, length)
	s, _ := args.Get(0).(*models.DocumentSummary)
	return s, args.Error(1)
}

func (m *mockAnalysisClient) Regenerate(ctx context.Context, documentID string, req models.RegenerateAnalysisRequest) (*models.Document, error) {
	args := m.Called(ctx, documentID, req)
	doc, _ := args.Get(0).(*models.Document)
	return doc, args.Error(1)
}

func (m *mockAnalysisClient) Quiz(ctx context.Context, documentID string, filters models.QuizFilters) ([]models.QuizQuestion, error) {
	args := m.Called(ctx, documentID, filters)
	qs, _ := args.Get(0).([]models.QuizQuestion)
	return qs, args.Error(1)
}

func (m *mockAnalysisClient) CustomQuiz(ctx context.Context, documentID string, opts models.GenerateQuizOptions) ([]models.QuizQuestion, error) {
	args := m.Called(ctx, documentID, opts)
	qs, _ := args.Get(0).([]models.QuizQuestion)
	return qs, args.Error(1)
}

type mockChatClient struct {
	mock.Mock
}

func (m *mockChatClient) Start(ctx context.Context, documentID string) (*models.ChatSession, error) {
	args := m.Called(ctx, documentID)
	s, _ := args.Get(0).(*models.ChatSession)
	return s, args.Error(1)
}

func (m *mockChatClient) Send(ctx context.Context, sessionID, message string) (*models.ChatReply, error) {
	args := m.Called(ctx, sessionID, message)
	r, _ := args.Get(0).(*models.ChatReply)
	return r, args.Error(1)
}

func (m *mockChatClient) History(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error) {
	args := m.Called(ctx, sessionID, limit)
	msgs, _ := args.Get(0).([]models.ChatMessage)
	return msgs, args.Error(1)
}

func (m *mockChatClient) Session(ctx context.Context, sessionID string) (*models.ChatSession, error) {
	args := m.Called(ctx, sessionID)
	s, _ := args.Get(0).(*models.ChatSession)
	return s, args.Error(1)
}

func (m *mockChatClient) End(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *mockChatClient) Quick(ctx context.Context, documentID, question string) (*models.QuickAnswer, error) {
	args := m.Called(ctx, documentID, question)
	a, _ := args.Get(0).(*models.QuickAnswer)
	return a, args.Error(1)
}

func (m *mockChatClient) Suggestions(ctx context.Context, documentID string) ([]string, error) {
	args := m.Called(ctx, documentID)
	s, _ := args.Get(0).([]string)
	return s, args.Error(1)
}

type mockExportClient struct {
	mock.Mock
}

func (m *mockExportClient) Export(ctx context.Context, documentID string, exportType models.ExportType, opts models.ExportOptions) (*models.ExportResult, error) {
	args := m.Called(ctx, documentID, exportType, opts)
	res, _ := args.Get(0).(*models.ExportResult)
	return res, args.Error(1)
}

func (m *mockExportClient) Download(ctx context.Context, filename string) ([]byte, error) {
	args := m.Called(ctx, filename)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *mockExportClient) History(ctx context.Context, documentID string) ([]models.ExportResult, error) {
	args := m.Called(ctx, documentID)
	res, _ := args.Get(0).([]models.ExportResult)
	return res, args.Error(1)
}

func (m *mockExportClient) DeleteFile(ctx context.Context, filename string) error {
	return m.Called(ctx, filename).Error(0)
}

type mockVideoClient struct {
	mock.Mock
}

func (m *mockVideoClient) DocumentVideos(ctx context.Context, documentID string, refresh bool, limit int) ([]models.Video, error) {
	args := m.Called(ctx, documentID, refresh, limit)
	videos, _ := args.Get(0).([]models.Video)
	return videos, args.Error(1)
}

func (m *mockVideoClient) Search(ctx context.Context, query string, maxResults int) ([]models.Video, error) {
	args := m.Called(ctx, query, maxResults)
	videos, _ := args.Get(0).([]models.Video)
	return videos, args.Error(1)
}
