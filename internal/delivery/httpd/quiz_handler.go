package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/RubachokBoss/study-helper/internal/models"
)

type answerRequest struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
}

type quizResponse struct {
	DocumentID string                `json:"documentId,omitempty"`
	Questions  []models.QuizQuestion `json:"questions"`
	Score      models.QuizScore      `json:"score"`
}

func (h *Handler) quizState() quizResponse {
	return quizResponse{
		DocumentID: h.quiz.DocumentID(),
		Questions:  h.quiz.Questions(),
		Score:      h.quiz.Score(),
	}
}

func (h *Handler) LoadQuiz(w http.ResponseWriter, r *http.Request) {
	var filters models.QuizFilters
	if err := decodeJSON(r, &filters); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if _, err := h.quiz.Load(r.Context(), chi.URLParam(r, "documentId"), filters); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, h.quizState())
}

func (h *Handler) GenerateQuiz(w http.ResponseWriter, r *http.Request) {
	var opts models.GenerateQuizOptions
	if err := decodeJSON(r, &opts); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if _, err := h.quiz.Generate(r.Context(), chi.URLParam(r, "documentId"), opts); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, h.quizState())
}

func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, h.quizState())
}

func (h *Handler) AnswerQuestion(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	question, err := h.quiz.Answer(req.QuestionID, req.Answer)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"question": question,
		"score":    h.quiz.Score(),
	})
}

func (h *Handler) ResetQuiz(w http.ResponseWriter, r *http.Request) {
	h.quiz.Reset()
	writeSuccess(w, h.quizState())
}

func (h *Handler) GetQuizScore(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, h.quiz.Score())
}
