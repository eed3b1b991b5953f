package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/RubachokBoss/study-helper/internal/models"
	"github.com/RubachokBoss/study-helper/internal/repository"
	"github.com/RubachokBoss/study-helper/internal/service/integration"
	"github.com/RubachokBoss/study-helper/internal/service/storage"
)

type memorySink struct {
	mu      sync.Mutex
	objects map[string][]byte
	saveErr error
}

func newMemorySink() *memorySink {
	return &memorySink{objects: map[string][]byte{}}
}

func (s *memorySink) Save(_ context.Context, key string, data io.Reader, _ int64, _ string) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = b
	return "mem://" + key, nil
}

func (s *memorySink) Open(_ context.Context, key string) (io.ReadCloser, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[key]
	if !ok {
		return nil, 0, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), int64(len(b)), nil
}

func (s *memorySink) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return storage.ErrObjectNotFound
	}
	delete(s.objects, key)
	return nil
}

func (s *memorySink) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *memorySink) Kind() string { return "memory" }

func TestExportService_ExportRecordsHistory(t *testing.T) {
	client := new(mockExportClient)
	repo := repository.NewMemoryExportRepository()
	svc := NewExportService(client, repo, nil, zerolog.Nop())

	opts := models.ExportOptions{QuestionType: "mcq", Difficulty: "hard"}
	client.On("Export", mock.Anything, "doc-1", models.ExportQuiz, opts).
		Return(&models.ExportResult{Filename: "quiz_doc-1.pdf", Size: 2048, Type: models.ExportQuiz, DocumentID: "doc-1"}, nil)

	res, err := svc.Export(context.Background(), "doc-1", "quiz", opts)
	require.NoError(t, err)
	assert.Equal(t, "quiz_doc-1.pdf", res.Filename)

	history, err := svc.History(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.ExportQuiz, history[0].Type)
	assert.Equal(t, int64(2048), history[0].Size)
	assert.NotEmpty(t, history[0].ID)
	client.AssertExpectations(t)
}

func TestExportService_ExportValidation(t *testing.T) {
	tests := []struct {
		name       string
		documentID string
		exportType string
		opts       models.ExportOptions
		field      string
	}{
		{name: "missing document", documentID: "", exportType: "analysis", field: "documentId"},
		{name: "unknown type", documentID: "doc-1", exportType: "slides", field: "type"},
		{name: "quiz difficulty", documentID: "doc-1", exportType: "quiz", opts: models.ExportOptions{Difficulty: "mixed"}, field: "options"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(mockExportClient)
			svc := NewExportService(client, nil, nil, zerolog.Nop())

			_, err := svc.Export(context.Background(), tt.documentID, tt.exportType, tt.opts)

			var vErr *integration.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
			client.AssertNotCalled(t, "Export", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestExportService_DownloadArchives(t *testing.T) {
	client := new(mockExportClient)
	repo := repository.NewMemoryExportRepository()
	sink := newMemorySink()
	svc := NewExportService(client, repo, sink, zerolog.Nop())

	client.On("Export", mock.Anything, "doc-1", models.ExportSummary, models.ExportOptions{}).
		Return(&models.ExportResult{Filename: "summary.pdf", Size: 8, Type: models.ExportSummary}, nil)
	client.On("Download", mock.Anything, "summary.pdf").Return([]byte("%PDF-1.4"), nil)

	_, err := svc.Export(context.Background(), "doc-1", "summary", models.ExportOptions{})
	require.NoError(t, err)

	out, err := svc.Download(context.Background(), "summary.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), out.Data)
	assert.Equal(t, "mem://summary.pdf", out.Location)

	ok, _ := sink.Exists(context.Background(), "summary.pdf")
	assert.True(t, ok)

	rec, err := repo.GetByFilename(context.Background(), "summary.pdf")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "mem://summary.pdf", rec.Location)
}

func TestExportService_DownloadArchiveFailureIsNotFatal(t *testing.T) {
	client := new(mockExportClient)
	sink := newMemorySink()
	sink.saveErr = errors.New("bucket unavailable")
	svc := NewExportService(client, nil, sink, zerolog.Nop())

	client.On("Download", mock.Anything, "a.pdf").Return([]byte("%PDF"), nil)

	out, err := svc.Download(context.Background(), "a.pdf")
	require.NoError(t, err)
	assert.Empty(t, out.Location)
	assert.Equal(t, []byte("%PDF"), out.Data)
}

func TestExportService_DownloadError(t *testing.T) {
	client := new(mockExportClient)
	svc := NewExportService(client, nil, newMemorySink(), zerolog.Nop())

	schemaErr := &integration.SchemaError{Path: "content-type", Err: errors.New("expected application/pdf")}
	client.On("Download", mock.Anything, "a.pdf").Return(nil, schemaErr)

	_, err := svc.Download(context.Background(), "a.pdf")
	var target *integration.SchemaError
	assert.ErrorAs(t, err, &target)
}

func TestExportService_Delete(t *testing.T) {
	client := new(mockExportClient)
	repo := repository.NewMemoryExportRepository()
	sink := newMemorySink()
	svc := NewExportService(client, repo, sink, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.ExportRecord{ID: "1", DocumentID: "doc-1", Filename: "a.pdf"}))
	_, err := sink.Save(ctx, "a.pdf", bytes.NewReader([]byte("x")), 1, "application/pdf")
	require.NoError(t, err)

	client.On("DeleteFile", mock.Anything, "a.pdf").Return(nil)
	client.On("DeleteFile", mock.Anything, "gone.pdf").
		Return(&integration.APIError{Status: 404, Message: "File not found"})

	require.NoError(t, svc.Delete(ctx, "a.pdf"))

	exists, _ := sink.Exists(ctx, "a.pdf")
	assert.False(t, exists)
	history, err := svc.History(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, history)

	err = svc.Delete(ctx, "gone.pdf")
	assert.ErrorIs(t, err, ErrExportNotFound)
}

func TestExportService_Purge(t *testing.T) {
	repo := repository.NewMemoryExportRepository()
	sink := newMemorySink()
	svc := NewExportService(new(mockExportClient), repo, sink, zerolog.Nop())
	ctx := context.Background()

	for _, rec := range []models.ExportRecord{
		{ID: "1", DocumentID: "doc-1", Filename: "a.pdf"},
		{ID: "2", DocumentID: "doc-1", Filename: "b.pdf"},
		{ID: "3", DocumentID: "doc-2", Filename: "c.pdf"},
	} {
		require.NoError(t, repo.Create(ctx, &rec))
	}
	_, err := sink.Save(ctx, "a.pdf", bytes.NewReader(nil), 0, "application/pdf")
	require.NoError(t, err)

	n, err := svc.Purge(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	left, err := repo.ListFilenames(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"c.pdf"}, left)
	exists, _ := sink.Exists(ctx, "a.pdf")
	assert.False(t, exists)
}
