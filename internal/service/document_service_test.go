package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/RubachokBoss/study-helper/internal/models"
	"github.com/RubachokBoss/study-helper/internal/service/integration"
	"github.com/RubachokBoss/study-helper/internal/store"
)

type recordingPurger struct {
	purged []string
	err    error
}

func (p *recordingPurger) Purge(_ context.Context, documentIDs ...string) (int, error) {
	p.purged = append(p.purged, documentIDs...)
	return len(documentIDs), p.err
}

func TestDocumentService_RecentFillsStore(t *testing.T) {
	uploads := new(mockUploadClient)
	uploads.On("Recent", mock.Anything, 10).Return([]models.Document{
		{DocumentID: "doc_1", ProcessingStatus: models.StatusCompleted},
		{DocumentID: "doc_2", ProcessingStatus: models.StatusFailed},
	}, nil)
	st := store.New()
	s := NewDocumentService(uploads, new(mockAnalysisClient), nil, st, zerolog.Nop())

	docs, err := s.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	state := st.State()
	require.Len(t, state.Documents, 2)
	assert.Equal(t, "doc_1", state.Documents[0].DocumentID)
	assert.False(t, state.IsLoading)
	uploads.AssertExpectations(t)
}

func TestDocumentService_RecentError(t *testing.T) {
	uploads := new(mockUploadClient)
	uploads.On("Recent", mock.Anything, 3).Return(nil, &integration.NetworkError{Op: "GET /upload/recent", Err: errors.New("refused")})
	st := store.New()
	s := NewDocumentService(uploads, new(mockAnalysisClient), nil, st, zerolog.Nop())

	_, err := s.Recent(context.Background(), 3)

	var netErr *integration.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.NotEmpty(t, st.State().Error)
	assert.False(t, st.State().IsLoading)
}

func TestDocumentService_AnalysisOpensDocument(t *testing.T) {
	analysis := new(mockAnalysisClient)
	analysis.On("Analysis", mock.Anything, "doc_1").Return(&models.Document{
		DocumentID:       "doc_1",
		ProcessingStatus: models.StatusCompleted,
		Analysis:         &models.Analysis{Subject: "physics"},
	}, nil)
	st := store.New()
	s := NewDocumentService(new(mockUploadClient), analysis, nil, st, zerolog.Nop())

	doc, err := s.Analysis(context.Background(), "doc_1")
	require.NoError(t, err)
	assert.Equal(t, "physics", doc.Analysis.Subject)

	state := st.State()
	assert.Equal(t, "doc_1", state.CurrentDocument)
	assert.Equal(t, store.ViewDocument, state.CurrentView)
	require.NotNil(t, state.Document("doc_1"))
}

func TestDocumentService_Summary(t *testing.T) {
	analysis := new(mockAnalysisClient)
	analysis.On("Summary", mock.Anything, "doc_1", "medium").Return(&models.DocumentSummary{Summary: "cells divide"}, nil)
	s := NewDocumentService(new(mockUploadClient), analysis, nil, nil, zerolog.Nop())

	summary, err := s.Summary(context.Background(), "doc_1", "")
	require.NoError(t, err)
	assert.Equal(t, "doc_1", summary.DocumentID)
	assert.Equal(t, "medium", summary.Length)

	_, err = s.Summary(context.Background(), "doc_1", "huge")
	var vErr *integration.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "length", vErr.Field)
	analysis.AssertNumberOfCalls(t, "Summary", 1)
}

func TestDocumentService_RegenerateUpdatesStore(t *testing.T) {
	req := models.RegenerateAnalysisRequest{FocusArea: "formulas"}
	analysis := new(mockAnalysisClient)
	analysis.On("Regenerate", mock.Anything, "doc_1", req).Return(&models.Document{
		DocumentID:       "doc_1",
		ProcessingStatus: models.StatusCompleted,
		Analysis:         &models.Analysis{Subject: "algebra"},
	}, nil)
	st := store.New()
	st.Dispatch(store.AddDocument{Document: &models.Document{DocumentID: "doc_1", OriginalFilename: "notes.png"}})
	s := NewDocumentService(new(mockUploadClient), analysis, nil, st, zerolog.Nop())

	_, err := s.Regenerate(context.Background(), "doc_1", req)
	require.NoError(t, err)

	stored := st.State().Document("doc_1")
	require.NotNil(t, stored)
	assert.Equal(t, "notes.png", stored.OriginalFilename)
	require.NotNil(t, stored.Analysis)
	assert.Equal(t, "algebra", stored.Analysis.Subject)
}

func TestDocumentService_DeletePurgesExports(t *testing.T) {
	uploads := new(mockUploadClient)
	uploads.On("Delete", mock.Anything, "doc_1").Return(nil)
	purger := &recordingPurger{}
	st := store.New()
	st.Dispatch(store.AddDocument{Document: &models.Document{DocumentID: "doc_1"}})
	st.Dispatch(store.SetCurrentDocument{DocumentID: "doc_1"})
	s := NewDocumentService(uploads, new(mockAnalysisClient), purger, st, zerolog.Nop())

	require.NoError(t, s.Delete(context.Background(), "doc_1"))

	assert.Equal(t, []string{"doc_1"}, purger.purged)
	state := st.State()
	assert.Empty(t, state.Documents)
	assert.Equal(t, store.ViewHome, state.CurrentView)
}

func TestDocumentService_DeleteFailureKeepsDocument(t *testing.T) {
	uploads := new(mockUploadClient)
	uploads.On("Delete", mock.Anything, "doc_1").Return(&integration.APIError{Status: 404, Message: "Document not found"})
	purger := &recordingPurger{}
	st := store.New()
	st.Dispatch(store.AddDocument{Document: &models.Document{DocumentID: "doc_1"}})
	s := NewDocumentService(uploads, new(mockAnalysisClient), purger, st, zerolog.Nop())

	err := s.Delete(context.Background(), "doc_1")

	var apiErr *integration.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
	assert.Empty(t, purger.purged)
	assert.Len(t, st.State().Documents, 1)
}
