package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/RubachokBoss/study-helper/internal/models"
)

func (h *Handler) StartChat(w http.ResponseWriter, r *http.Request) {
	session, err := h.chat.Start(r.Context(), chi.URLParam(r, "documentId"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"session":     session,
		"suggestions": h.chat.CurrentSuggestions(),
	})
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req models.SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	reply, err := h.chat.Send(r.Context(), req.Message)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, reply)
}

func (h *Handler) GetChat(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, map[string]interface{}{
		"session":  h.chat.Session(),
		"active":   h.chat.IsActive(),
		"messages": h.chat.Messages(),
		"metrics":  h.chat.Metrics(),
	})
}

func (h *Handler) EndChat(w http.ResponseWriter, r *http.Request) {
	if err := h.chat.End(r.Context()); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeSuccess(w, nil)
}
