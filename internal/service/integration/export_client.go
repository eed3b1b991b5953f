package integration

import (
	"context"
	"net/url"
	"strconv"

	"github.com/RubachokBoss/study-helper/internal/models"
	"github.com/rs/zerolog"
)

type ExportClient interface {
	Export(ctx context.Context, documentID string, exportType models.ExportType, opts models.ExportOptions) (*models.ExportResult, error)
	Download(ctx context.Context, filename string) ([]byte, error)
	History(ctx context.Context, documentID string) ([]models.ExportResult, error)
	DeleteFile(ctx context.Context, filename string) error
}

type exportClient struct {
	gw     *Gateway
	logger zerolog.Logger
}

func NewExportClient(gw *Gateway, logger zerolog.Logger) ExportClient {
	return &exportClient{
		gw:     gw,
		logger: logger,
	}
}

func (c *exportClient) Export(ctx context.Context, documentID string, exportType models.ExportType, opts models.ExportOptions) (*models.ExportResult, error) {
	path := "/export/" + url.PathEscape(documentID) + "/" + url.PathEscape(string(exportType))

	var result models.ExportResult
	if err := c.gw.Post(ctx, path, exportQuery(opts), struct{}{}, &result); err != nil {
		return nil, err
	}
	if result.Type == "" {
		result.Type = exportType
	}
	if result.DocumentID == "" {
		result.DocumentID = documentID
	}

	c.logger.Info().
		Str("document_id", documentID).
		Str("type", string(exportType)).
		Str("filename", result.Filename).
		Int64("size", result.Size).
		Msg("Export created")

	return &result, nil
}

func (c *exportClient) Download(ctx context.Context, filename string) ([]byte, error) {
	return c.gw.Download(ctx, "/export/download/"+url.PathEscape(filename))
}

func (c *exportClient) History(ctx context.Context, documentID string) ([]models.ExportResult, error) {
	var history models.ExportHistory
	if err := c.gw.Get(ctx, "/export/"+url.PathEscape(documentID)+"/history", nil, &history); err != nil {
		return nil, err
	}
	return history.Exports, nil
}

func (c *exportClient) DeleteFile(ctx context.Context, filename string) error {
	return c.gw.Delete(ctx, "/export/file/"+url.PathEscape(filename), nil)
}

func exportQuery(opts models.ExportOptions) url.Values {
	query := url.Values{}
	setBool := func(key string, v *bool) {
		if v != nil {
			query.Set(key, strconv.FormatBool(*v))
		}
	}

	setBool("includeOCR", opts.IncludeOCR)
	setBool("includeQuiz", opts.IncludeQuiz)
	setBool("includeAnswers", opts.IncludeAnswers)
	setBool("includeKeyPoints", opts.IncludeKeyPoints)
	setBool("includeConcepts", opts.IncludeConcepts)
	if opts.QuestionType != "" {
		query.Set("questionType", opts.QuestionType)
	}
	if opts.Difficulty != "" {
		query.Set("difficulty", opts.Difficulty)
	}
	return query
}
