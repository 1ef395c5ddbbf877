package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/domain"
)

// QuizHandler serves the quiz list, search and edit views.
type QuizHandler struct {
	service *app.QuizService
	logger  *zap.Logger
}

func NewQuizHandler(service *app.QuizService, logger *zap.Logger) *QuizHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuizHandler{service: service, logger: logger}
}

type typeChangeRequest struct {
	QuestionType string `json:"questionType"`
}

// List returns every quiz, or those whose title contains ?search=.
func (h *QuizHandler) List(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.service.SearchQuizzes(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.logger.Error("list quizzes", zap.Error(err))
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (h *QuizHandler) Create(w http.ResponseWriter, r *http.Request) {
	var draft domain.Quiz
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid quiz payload"})
		return
	}
	quiz, err := h.service.CreateQuiz(r.Context(), draft)
	if err != nil {
		h.logger.Error("create quiz", zap.Error(err))
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.service.GetQuiz(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *QuizHandler) Update(w http.ResponseWriter, r *http.Request) {
	var quiz domain.Quiz
	if err := json.NewDecoder(r.Body).Decode(&quiz); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid quiz payload"})
		return
	}
	updated, err := h.service.UpdateQuiz(r.Context(), mux.Vars(r)["id"], quiz)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *QuizHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteQuiz(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *QuizHandler) ChangeQuestionType(w http.ResponseWriter, r *http.Request) {
	var req typeChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payload"})
		return
	}
	questionType, err := domain.ParseQuestionType(req.QuestionType)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	vars := mux.Vars(r)
	quiz, err := h.service.ChangeQuestionType(r.Context(), vars["id"], vars["questionId"], questionType)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

// Attempt returns the latest snapshot of a live attempt, including its result once graded.
func (h *QuizHandler) Attempt(w http.ResponseWriter, r *http.Request) {
	attempt, err := h.service.GetAttempt(mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStatePayload(attempt.Quiz(), attempt.State()))
}
