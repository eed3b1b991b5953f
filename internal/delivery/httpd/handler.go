package httpd

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/study-helper/internal/service"
	"github.com/RubachokBoss/study-helper/internal/service/integration"
	"github.com/RubachokBoss/study-helper/internal/store"
)

type Handler struct {
	store         *store.Store
	upload        *service.UploadController
	quiz          *service.QuizController
	chat          *service.ChatController
	export        *service.ExportService
	videos        *service.VideoService
	documents     *service.DocumentService
	maxUploadSize int64
	logger        zerolog.Logger
}

func NewHandler(
	st *store.Store,
	upload *service.UploadController,
	quiz *service.QuizController,
	chat *service.ChatController,
	export *service.ExportService,
	videos *service.VideoService,
	documents *service.DocumentService,
	maxUploadSize int64,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		store:         st,
		upload:        upload,
		quiz:          quiz,
		chat:          chat,
		export:        export,
		videos:        videos,
		documents:     documents,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// RegisterRoutes mounts the session API. Anything under /api is handed to
// apiProxy when one is given.
func (h *Handler) RegisterRoutes(router chi.Router, apiProxy http.Handler) {
	router.Get("/health", h.HealthCheck)

	router.Route("/session", func(r chi.Router) {
		r.Get("/state", h.GetState)

		r.Route("/upload", func(r chi.Router) {
			r.Post("/", h.StartUpload)
			r.Get("/", h.GetUpload)
			r.Post("/poll/{documentId}", h.PollUpload)
			r.Post("/retry/{documentId}", h.RetryUpload)
			r.Post("/cancel", h.CancelUpload)
		})

		r.Route("/documents", func(r chi.Router) {
			r.Get("/recent", h.GetRecentDocuments)
			r.Delete("/{documentId}", h.DeleteDocument)
		})

		r.Route("/analysis/{documentId}", func(r chi.Router) {
			r.Get("/", h.GetAnalysis)
			r.Get("/summary", h.GetSummary)
			r.Post("/regenerate", h.RegenerateAnalysis)
		})

		r.Route("/quiz", func(r chi.Router) {
			r.Get("/", h.GetQuiz)
			r.Post("/answer", h.AnswerQuestion)
			r.Post("/reset", h.ResetQuiz)
			r.Get("/score", h.GetQuizScore)
			r.Post("/{documentId}/load", h.LoadQuiz)
			r.Post("/{documentId}/generate", h.GenerateQuiz)
		})

		r.Route("/chat", func(r chi.Router) {
			r.Get("/", h.GetChat)
			r.Delete("/", h.EndChat)
			r.Post("/message", h.SendMessage)
			r.Post("/{documentId}", h.StartChat)
		})

		r.Route("/export", func(r chi.Router) {
			r.Get("/download/{filename}", h.DownloadExport)
			r.Delete("/file/{filename}", h.DeleteExport)
			r.Get("/{documentId}/history", h.GetExportHistory)
			r.Post("/{documentId}/{type}", h.CreateExport)
		})

		r.Route("/videos", func(r chi.Router) {
			r.Get("/search", h.SearchVideos)
			r.Get("/{documentId}", h.GetDocumentVideos)
		})
	})

	if apiProxy != nil {
		router.Handle("/api/*", apiProxy)
	}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "study-helper",
		"timestamp": time.Now().UTC(),
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, h.store.State())
}

// handleServiceError maps the error taxonomy onto HTTP status codes.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *integration.ValidationError
		processingErr *service.ProcessingError
		timeoutErr    *service.TimeoutError
		networkErr    *integration.NetworkError
		schemaErr     *integration.SchemaError
		apiErr        *integration.APIError
	)

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   http.StatusText(http.StatusBadRequest),
			"message": validationErr.Error(),
			"field":   validationErr.Field,
			"reasons": validationErr.Reasons,
		})
		return
	case errors.As(err, &processingErr):
		writeError(w, http.StatusUnprocessableEntity, processingErr.Error())
		return
	case errors.As(err, &timeoutErr):
		writeError(w, http.StatusGatewayTimeout, timeoutErr.Error())
		return
	case errors.As(err, &apiErr):
		status := apiErr.Status
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		writeError(w, status, apiErr.Message)
		return
	case errors.As(err, &networkErr), errors.As(err, &schemaErr):
		writeError(w, http.StatusBadGateway, err.Error())
		return
	case errors.Is(err, service.ErrQuestionNotFound), errors.Is(err, service.ErrExportNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, service.ErrRetryNotAllowed),
		errors.Is(err, service.ErrUploadInProgress),
		errors.Is(err, service.ErrNoActiveSession),
		errors.Is(err, service.ErrPollingCanceled),
		errors.Is(err, service.ErrUploadCanceled):
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	h.requestLogger(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Unhandled service error")
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// requestLogger prefers the request scoped logger set by the middleware.
func (h *Handler) requestLogger(ctx context.Context) *zerolog.Logger {
	if log := zerolog.Ctx(ctx); log.GetLevel() != zerolog.Disabled {
		return log
	}
	return &h.logger
}

// decodeJSON decodes an optional JSON body. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func getIntQueryParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func getBoolQueryParam(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && v
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	writeStatus(w, http.StatusOK, data)
}

func writeStatus(w http.ResponseWriter, status int, data interface{}) {
	response := map[string]interface{}{
		"success": true,
		"data":    data,
	}
	writeJSON(w, status, response)
}
