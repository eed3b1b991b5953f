package httpd

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/RubachokBoss/study-helper/internal/models"
)

const archiveLocationHeader = "X-Archive-Location"

func (h *Handler) CreateExport(w http.ResponseWriter, r *http.Request) {
	var opts models.ExportOptions
	if err := decodeJSON(r, &opts); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.export.Export(r.Context(), chi.URLParam(r, "documentId"), chi.URLParam(r, "type"), opts)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, result)
}

func (h *Handler) GetExportHistory(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentId")

	records, err := h.export.History(r.Context(), documentID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"documentId": documentID,
		"exports":    records,
	})
}

func (h *Handler) DownloadExport(w http.ResponseWriter, r *http.Request) {
	out, err := h.export.Download(r.Context(), chi.URLParam(r, "filename"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Data)))
	if out.Location != "" {
		w.Header().Set(archiveLocationHeader, out.Location)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(out.Data)
}

func (h *Handler) DeleteExport(w http.ResponseWriter, r *http.Request) {
	if err := h.export.Delete(r.Context(), chi.URLParam(r, "filename")); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, nil)
}

func (h *Handler) GetDocumentVideos(w http.ResponseWriter, r *http.Request) {
	videos := h.videos.DocumentVideos(
		r.Context(),
		chi.URLParam(r, "documentId"),
		getBoolQueryParam(r, "refresh"),
		getIntQueryParam(r, "limit", 0),
	)
	writeSuccess(w, models.VideoList{Videos: videos})
}

func (h *Handler) SearchVideos(w http.ResponseWriter, r *http.Request) {
	videos := h.videos.Search(r.Context(), r.URL.Query().Get("query"), getIntQueryParam(r, "maxResults", 0))
	writeSuccess(w, models.VideoList{Videos: videos})
}
