package http

import (
	"net/http"
	"time"

	"quiz-testing-service/internal/app"
	"quiz-testing-service/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/jinzhu/copier"
)

type AttemptHandler struct {
	attempts *app.AttemptService
}

func NewAttemptHandler(attempts *app.AttemptService) *AttemptHandler {
	return &AttemptHandler{attempts: attempts}
}

type answerRequest struct {
	QuestionID     string `json:"questionId" validate:"required"`
	SelectedOption int    `json:"selectedOption"`
}

type submitRequest struct {
	Answers   []answerRequest `json:"answers" validate:"dive"`
	StartTime *time.Time      `json:"startTime,omitempty"`
}

type answerResponse struct {
	QuestionID     string `json:"questionId"`
	SelectedOption int    `json:"selectedOption"`
}

type attemptResponse struct {
	ID             string           `json:"id"`
	TestID         string           `json:"testId"`
	UserID         string           `json:"userId"`
	Score          int              `json:"score"`
	TotalQuestions int              `json:"totalQuestions"`
	Percentage     string           `json:"percentage"`
	StartTime      time.Time        `json:"startTime"`
	EndTime        time.Time        `json:"endTime"`
	Answers        []answerResponse `json:"answers"`
}

type startResponse struct {
	TestID    string    `json:"testId"`
	StartedAt time.Time `json:"startedAt"`
}

func toAttemptResponse(a domain.TestAttempt) (attemptResponse, error) {
	var resp attemptResponse
	if err := copier.Copy(&resp, &a); err != nil {
		return attemptResponse{}, err
	}
	if resp.Answers == nil {
		resp.Answers = []answerResponse{}
	}
	resp.Percentage = app.Percentage(a.Score, a.TotalQuestions).StringFixed(2)
	return resp, nil
}

func toAttemptResponses(attempts []domain.TestAttempt) ([]attemptResponse, error) {
	out := make([]attemptResponse, 0, len(attempts))
	for _, a := range attempts {
		resp, err := toAttemptResponse(a)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

func (h *AttemptHandler) Start(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	testID := chi.URLParam(r, "testID")
	startedAt, err := h.attempts.Start(r.Context(), testID, id.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusOK, startResponse{TestID: testID, StartedAt: startedAt})
}

func (h *AttemptHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	var req submitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	answers := make([]domain.AnswerSubmission, 0, len(req.Answers))
	for _, a := range req.Answers {
		answers = append(answers, domain.AnswerSubmission{QuestionID: a.QuestionID, SelectedOption: a.SelectedOption})
	}
	attempt, err := h.attempts.Finish(r.Context(), chi.URLParam(r, "testID"), id.UserID, answers, req.StartTime)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := toAttemptResponse(attempt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusCreated, resp)
}

func (h *AttemptHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	attempt, err := h.attempts.Get(r.Context(), chi.URLParam(r, "attemptID"), id.UserID, id.Admin)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := toAttemptResponse(attempt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusOK, resp)
}

func (h *AttemptHandler) Mine(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	attempts, err := h.attempts.ListByUser(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := toAttemptResponses(attempts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusOK, resp)
}

func (h *AttemptHandler) ByTest(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.attempts.ListByTest(r.Context(), chi.URLParam(r, "testID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := toAttemptResponses(attempts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusOK, resp)
}
