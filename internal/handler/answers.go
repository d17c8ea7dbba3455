package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/pulseofpair/pairsync/internal/errors"
	"github.com/pulseofpair/pairsync/internal/model"
	"github.com/pulseofpair/pairsync/internal/service"
)

type AnswerService interface {
	Submit(ctx context.Context, userID string, params service.SubmitParams) (*model.Answer, error)
	Reveal(ctx context.Context, userID string, promptID int64) (*service.RevealResult, error)
}

type AnswersHandler struct {
	answers AnswerService
}

func NewAnswersHandler(answers AnswerService) *AnswersHandler {
	return &AnswersHandler{answers: answers}
}

func (h *AnswersHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Submit)
	r.Get("/{promptId}", h.Reveal)

	return r
}

type submitAnswerRequest struct {
	PromptID int64         `json:"promptId" validate:"required,gt=0"`
	SubKind  model.SubKind `json:"subKind" validate:"omitempty,oneof=answer about_self about_partner"`
	Value    string        `json:"value"`
	Choice   *int          `json:"choice" validate:"omitempty,gte=0"`
}

// POST /api/v1/answers
func (h *AnswersHandler) Submit(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req submitAnswerRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, err)
		return
	}

	answer, err := h.answers.Submit(r.Context(), caller.User.ID, service.SubmitParams{
		PromptID: req.PromptID,
		SubKind:  req.SubKind,
		Value:    req.Value,
		Choice:   req.Choice,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, answer)
}

// GET /api/v1/answers/{promptId}
func (h *AnswersHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	promptID, err := parsePromptID(chi.URLParam(r, "promptId"))
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.answers.Reveal(r.Context(), caller.User.ID, promptID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func parsePromptID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.InvalidInput("promptId", "must be a positive integer")
	}
	return id, nil
}
