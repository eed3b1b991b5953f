package integration

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"strconv"

	"github.com/RubachokBoss/study-helper/internal/models"
	"github.com/rs/zerolog"
)

type UploadClient interface {
	Upload(ctx context.Context, file models.UploadFile, prompt, processType string, onProgress ProgressFunc) (*models.Document, error)
	Status(ctx context.Context, documentID string) (*models.Document, error)
	Retry(ctx context.Context, documentID string) error
	Recent(ctx context.Context, limit int) ([]models.Document, error)
	Delete(ctx context.Context, documentID string) error
}

type uploadClient struct {
	gw     *Gateway
	logger zerolog.Logger
}

func NewUploadClient(gw *Gateway, logger zerolog.Logger) UploadClient {
	return &uploadClient{
		gw:     gw,
		logger: logger,
	}
}

func (c *uploadClient) Upload(ctx context.Context, file models.UploadFile, prompt, processType string, onProgress ProgressFunc) (*models.Document, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, file.Name))
	header.Set("Content-Type", file.ContentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, fmt.Errorf("failed to copy file content: %w", err)
	}
	if err := writer.WriteField("prompt", prompt); err != nil {
		return nil, fmt.Errorf("failed to write prompt: %w", err)
	}
	if err := writer.WriteField("processType", processType); err != nil {
		return nil, fmt.Errorf("failed to write process type: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	var doc models.Document
	if err := c.gw.PostMultipart(ctx, "/upload", buf.Bytes(), writer.FormDataContentType(), onProgress, &doc); err != nil {
		return nil, err
	}
	doc.Normalize()

	c.logger.Info().
		Str("document_id", doc.DocumentID).
		Str("filename", file.Name).
		Int64("size", file.Size()).
		Msg("Document uploaded")

	return &doc, nil
}

func (c *uploadClient) Status(ctx context.Context, documentID string) (*models.Document, error) {
	var doc models.Document
	if err := c.gw.Get(ctx, "/upload/status/"+url.PathEscape(documentID), nil, &doc); err != nil {
		return nil, err
	}
	doc.Normalize()
	return &doc, nil
}

func (c *uploadClient) Retry(ctx context.Context, documentID string) error {
	return c.gw.Post(ctx, "/upload/retry/"+url.PathEscape(documentID), nil, nil, nil)
}

func (c *uploadClient) Recent(ctx context.Context, limit int) ([]models.Document, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var docs []models.Document
	if err := c.gw.Get(ctx, "/upload/recent", query, &docs); err != nil {
		return nil, err
	}
	for i := range docs {
		docs[i].Normalize()
	}
	return docs, nil
}

func (c *uploadClient) Delete(ctx context.Context, documentID string) error {
	return c.gw.Delete(ctx, "/upload/"+url.PathEscape(documentID), nil)
}
