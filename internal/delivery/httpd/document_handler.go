package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/RubachokBoss/study-helper/internal/models"
)

func (h *Handler) GetRecentDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.documents.Recent(r.Context(), getIntQueryParam(r, "limit", 0))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"documents": docs,
		"count":     len(docs),
	})
}

func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.documents.Delete(r.Context(), chi.URLParam(r, "documentId")); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, nil)
}

func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	doc, err := h.documents.Analysis(r.Context(), chi.URLParam(r, "documentId"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, doc)
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.documents.Summary(r.Context(), chi.URLParam(r, "documentId"), r.URL.Query().Get("length"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, summary)
}

func (h *Handler) RegenerateAnalysis(w http.ResponseWriter, r *http.Request) {
	var req models.RegenerateAnalysisRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	doc, err := h.documents.Regenerate(r.Context(), chi.URLParam(r, "documentId"), req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, doc)
}
