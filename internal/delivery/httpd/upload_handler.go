package httpd

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/RubachokBoss/study-helper/internal/models"
	"github.com/RubachokBoss/study-helper/internal/service"
	"github.com/RubachokBoss/study-helper/internal/service/integration"
)

const multipartOverhead = 1 << 20

// StartUpload validates the form synchronously, then runs the upload and
// polling in the background. Progress is read from GET /session/upload.
func (h *Handler) StartUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUploadSize + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.handleServiceError(w, r, integration.NewValidationError("file", "file size must be less than the upload limit"))
			return
		}
		writeError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	part, header, err := r.FormFile("image")
	if err != nil {
		h.handleServiceError(w, r, integration.NewValidationError("file", "please select a file"))
		return
	}
	defer part.Close()

	data, err := io.ReadAll(part)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read file")
		return
	}

	file := models.UploadFile{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}
	prompt := r.FormValue("prompt")

	if err := h.upload.Validate(&file, prompt); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if h.upload.Snapshot().State == service.UploadUploading {
		h.handleServiceError(w, r, service.ErrUploadInProgress)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	go h.runInBackground(ctx, "upload", func(ctx context.Context) error {
		_, err := h.upload.Upload(ctx, file, prompt)
		return err
	})

	writeStatus(w, http.StatusAccepted, h.upload.Snapshot())
}

func (h *Handler) GetUpload(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, h.upload.Snapshot())
}

func (h *Handler) PollUpload(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentId")
	if documentID == "" {
		h.handleServiceError(w, r, integration.NewValidationError("documentId", "document id is required"))
		return
	}

	ctx := context.WithoutCancel(r.Context())
	go h.runInBackground(ctx, "poll", func(ctx context.Context) error {
		_, err := h.upload.PollStatus(ctx, documentID)
		return err
	})

	writeStatus(w, http.StatusAccepted, h.upload.Snapshot())
}

// RetryUpload sends the retry request synchronously so that a refused retry
// is reported to the caller, then polls in the background.
func (h *Handler) RetryUpload(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentId")

	if _, err := h.upload.RequestRetry(r.Context(), documentID); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	go h.runInBackground(ctx, "poll", func(ctx context.Context) error {
		_, err := h.upload.PollStatus(ctx, documentID)
		return err
	})

	writeStatus(w, http.StatusAccepted, h.upload.Snapshot())
}

func (h *Handler) CancelUpload(w http.ResponseWriter, r *http.Request) {
	h.upload.Cancel()
	writeSuccess(w, h.upload.Snapshot())
}

func (h *Handler) runInBackground(ctx context.Context, op string, fn func(context.Context) error) {
	err := fn(ctx)
	if err == nil || errors.Is(err, service.ErrPollingCanceled) || errors.Is(err, service.ErrUploadCanceled) {
		return
	}
	h.requestLogger(ctx).Warn().Err(err).Str("op", op).Msg("Background upload task ended with error")
}
