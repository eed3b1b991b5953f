package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RubachokBoss/study-helper/internal/models"
	"github.com/RubachokBoss/study-helper/internal/repository"
	"github.com/RubachokBoss/study-helper/internal/service/integration"
	"github.com/RubachokBoss/study-helper/internal/service/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const pdfContentType = "application/pdf"

// DownloadedExport is a fetched export file. Location is empty when the file
// could not be archived.
type DownloadedExport struct {
	Filename string
	Data     []byte
	Location string
}

type ExportService struct {
	client  integration.ExportClient
	history repository.ExportHistoryRepository
	sink    storage.ExportSink
	logger  zerolog.Logger
	now     func() time.Time
}

// NewExportService wires the export client to the local history. A nil sink
// disables archiving of downloaded files.
func NewExportService(
	client integration.ExportClient,
	history repository.ExportHistoryRepository,
	sink storage.ExportSink,
	logger zerolog.Logger,
) *ExportService {
	if history == nil {
		history = repository.NewMemoryExportRepository()
	}
	return &ExportService{
		client:  client,
		history: history,
		sink:    sink,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *ExportService) Export(ctx context.Context, documentID, exportType string, opts models.ExportOptions) (*models.ExportResult, error) {
	if documentID == "" {
		return nil, integration.NewValidationError("documentId", "document id is required")
	}
	if err := validateExport(exportType, opts); err != nil {
		return nil, err
	}

	result, err := s.client.Export(ctx, documentID, models.ExportType(exportType), opts)
	if err != nil {
		s.logger.Error().Err(err).
			Str("document_id", documentID).
			Str("type", exportType).
			Msg("Export failed")
		return nil, fmt.Errorf("failed to export %s: %w", exportType, err)
	}

	record := &models.ExportRecord{
		ID:         uuid.New().String(),
		DocumentID: documentID,
		Type:       result.Type,
		Filename:   result.Filename,
		Size:       result.Size,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.history.Create(ctx, record); err != nil {
		s.logger.Warn().Err(err).
			Str("document_id", documentID).
			Str("filename", result.Filename).
			Msg("Failed to record export history")
	}

	return result, nil
}

// Download fetches the PDF and archives a copy to the configured sink.
// Archive failures are logged and do not fail the download.
func (s *ExportService) Download(ctx context.Context, filename string) (*DownloadedExport, error) {
	if filename == "" {
		return nil, integration.NewValidationError("filename", "filename is required")
	}

	data, err := s.client.Download(ctx, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to download export: %w", err)
	}

	out := &DownloadedExport{Filename: filename, Data: data}
	if s.sink == nil {
		return out, nil
	}

	location, err := s.sink.Save(ctx, filename, bytes.NewReader(data), int64(len(data)), pdfContentType)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("filename", filename).
			Str("sink", s.sink.Kind()).
			Msg("Failed to archive export")
		return out, nil
	}
	out.Location = location

	if err := s.history.UpdateLocation(ctx, filename, location); err != nil {
		s.logger.Warn().Err(err).Str("filename", filename).Msg("Failed to update export location")
	}

	s.logger.Info().
		Str("filename", filename).
		Str("location", location).
		Int("size", len(data)).
		Msg("Export archived")

	return out, nil
}

// History returns the locally recorded exports for a document, newest first.
func (s *ExportService) History(ctx context.Context, documentID string) ([]models.ExportRecord, error) {
	if documentID == "" {
		return nil, integration.NewValidationError("documentId", "document id is required")
	}

	records, err := s.history.ListByDocument(ctx, documentID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load export history: %w", err)
	}
	return records, nil
}

// Delete removes the file on the backend, then drops the archived copy and
// the history row.
func (s *ExportService) Delete(ctx context.Context, filename string) error {
	if filename == "" {
		return integration.NewValidationError("filename", "filename is required")
	}

	if err := s.client.DeleteFile(ctx, filename); err != nil {
		var apiErr *integration.APIError
		if errors.As(err, &apiErr) && apiErr.Status == 404 {
			return fmt.Errorf("%w: %s", ErrExportNotFound, filename)
		}
		return fmt.Errorf("failed to delete export: %w", err)
	}

	s.forget(ctx, filename)
	return nil
}

// Purge drops archived copies and history rows for the given documents
// without touching the backend. It returns the number of files forgotten.
func (s *ExportService) Purge(ctx context.Context, documentIDs ...string) (int, error) {
	names, err := s.history.ListFilenames(ctx, documentIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to list exports: %w", err)
	}

	for _, name := range names {
		s.forget(ctx, name)
	}
	return len(names), nil
}

func (s *ExportService) forget(ctx context.Context, filename string) {
	if s.sink != nil {
		if err := s.sink.Delete(ctx, filename); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			s.logger.Warn().Err(err).Str("filename", filename).Msg("Failed to delete archived export")
		}
	}
	if _, err := s.history.DeleteByFilename(ctx, filename); err != nil {
		s.logger.Warn().Err(err).Str("filename", filename).Msg("Failed to delete export history")
	}
}
