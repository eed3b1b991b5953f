package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/RubachokBoss/study-helper/internal/models"
	"github.com/RubachokBoss/study-helper/internal/service/integration"
	"github.com/RubachokBoss/study-helper/internal/store"
	"github.com/rs/zerolog"
)

const (
	defaultRecentLimit   = 10
	defaultSummaryLength = "medium"
)

var summaryLengths = []string{"short", "medium", "long"}

// ExportPurger drops local export artifacts for deleted documents.
type ExportPurger interface {
	Purge(ctx context.Context, documentIDs ...string) (int, error)
}

// DocumentService covers the document list and the analysis view: recent
// documents, analysis, summaries, regeneration and deletion. Results are
// mirrored into the store.
type DocumentService struct {
	uploads  integration.UploadClient
	analysis integration.AnalysisClient
	exports  ExportPurger
	store    *store.Store
	logger   zerolog.Logger
}

func NewDocumentService(
	uploads integration.UploadClient,
	analysis integration.AnalysisClient,
	exports ExportPurger,
	st *store.Store,
	logger zerolog.Logger,
) *DocumentService {
	return &DocumentService{
		uploads:  uploads,
		analysis: analysis,
		exports:  exports,
		store:    st,
		logger:   logger,
	}
}

// Recent replaces the store's document list with the most recent uploads.
func (s *DocumentService) Recent(ctx context.Context, limit int) ([]models.Document, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	s.dispatch(store.SetLoading{Loading: true})
	docs, err := s.uploads.Recent(ctx, limit)
	if err != nil {
		s.dispatch(store.SetError{Message: err.Error()})
		return nil, fmt.Errorf("failed to load recent documents: %w", err)
	}

	list := make([]*models.Document, len(docs))
	for i := range docs {
		list[i] = &docs[i]
	}
	s.dispatch(store.SetDocuments{Documents: list}, store.SetLoading{Loading: false})

	if docs == nil {
		docs = []models.Document{}
	}
	return docs, nil
}

// Analysis fetches the full analysis of a document and opens it.
func (s *DocumentService) Analysis(ctx context.Context, documentID string) (*models.Document, error) {
	if documentID == "" {
		return nil, integration.NewValidationError("documentId", "document id is required")
	}

	doc, err := s.analysis.Analysis(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis: %w", err)
	}

	s.upsert(doc)
	s.dispatch(store.SetCurrentDocument{DocumentID: documentID})
	return doc, nil
}

// Summary returns a summary of the requested length. An empty length means
// medium.
func (s *DocumentService) Summary(ctx context.Context, documentID, length string) (*models.DocumentSummary, error) {
	if documentID == "" {
		return nil, integration.NewValidationError("documentId", "document id is required")
	}
	if length == "" {
		length = defaultSummaryLength
	}
	if !slices.Contains(summaryLengths, length) {
		return nil, integration.NewValidationError("length", fmt.Sprintf("must be one of %v", summaryLengths))
	}

	summary, err := s.analysis.Summary(ctx, documentID, length)
	if err != nil {
		return nil, fmt.Errorf("failed to load summary: %w", err)
	}
	if summary.DocumentID == "" {
		summary.DocumentID = documentID
	}
	if summary.Length == "" {
		summary.Length = length
	}
	return summary, nil
}

func (s *DocumentService) Regenerate(ctx context.Context, documentID string, req models.RegenerateAnalysisRequest) (*models.Document, error) {
	if documentID == "" {
		return nil, integration.NewValidationError("documentId", "document id is required")
	}

	s.dispatch(store.SetLoading{Loading: true})
	doc, err := s.analysis.Regenerate(ctx, documentID, req)
	if err != nil {
		s.dispatch(store.SetError{Message: err.Error()})
		return nil, fmt.Errorf("failed to regenerate analysis: %w", err)
	}

	s.upsert(doc)
	s.dispatch(store.SetLoading{Loading: false})
	return doc, nil
}

// Delete removes the document on the backend, then drops it from the store
// together with its local export history and archived files.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	if documentID == "" {
		return integration.NewValidationError("documentId", "document id is required")
	}

	if err := s.uploads.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	s.dispatch(store.RemoveDocument{DocumentID: documentID})

	if s.exports != nil {
		n, err := s.exports.Purge(ctx, documentID)
		if err != nil {
			s.logger.Warn().Err(err).Str("document_id", documentID).Msg("Failed to purge exports of deleted document")
		} else if n > 0 {
			s.logger.Info().Str("document_id", documentID).Int("exports", n).Msg("Purged exports of deleted document")
		}
	}

	s.logger.Info().Str("document_id", documentID).Msg("Document deleted")
	return nil
}

func (s *DocumentService) upsert(doc *models.Document) {
	if s.store == nil {
		return
	}
	if s.store.State().Document(doc.DocumentID) == nil {
		s.store.Dispatch(store.AddDocument{Document: doc})
		return
	}
	s.store.Dispatch(store.UpdateDocument{Document: doc})
}

func (s *DocumentService) dispatch(actions ...store.Action) {
	if s.store == nil {
		return
	}
	for _, a := range actions {
		s.store.Dispatch(a)
	}
}
