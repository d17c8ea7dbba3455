package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/pulseofpair/pairsync/internal/errors"
	"github.com/pulseofpair/pairsync/internal/model"
	"github.com/pulseofpair/pairsync/internal/service"
)

type SchedulerService interface {
	NextPrompt(ctx context.Context, userID string, kind model.PromptKind) (*service.PromptProgress, error)
	History(ctx context.Context, userID string, limit int) ([]service.HistoryEntry, error)
	Stats(ctx context.Context, userID string) (*service.Stats, error)
}

type PromptsHandler struct {
	scheduler SchedulerService
}

func NewPromptsHandler(scheduler SchedulerService) *PromptsHandler {
	return &PromptsHandler{scheduler: scheduler}
}

func (h *PromptsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/current", h.Current)
	r.Get("/history", h.History)
	r.Get("/stats", h.Stats)

	return r
}

// GET /api/v1/prompts/current?kind=daily|tune
// Responds with exhausted=true and a null prompt once the catalog is done.
func (h *PromptsHandler) Current(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	kind := model.PromptKind(r.URL.Query().Get("kind"))
	if kind != "" && !kind.Valid() {
		writeError(w, apperrors.InvalidInput("kind", "must be daily or tune"))
		return
	}

	progress, err := h.scheduler.NextPrompt(r.Context(), caller.User.ID, kind)
	if err != nil {
		writeError(w, err)
		return
	}
	if progress == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"prompt":    nil,
			"exhausted": true,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"prompt":           progress.Prompt,
		"answeredSubKinds": progress.AnsweredSubKinds,
		"partnerCompleted": progress.PartnerCompleted,
		"exhausted":        false,
	})
}

// GET /api/v1/prompts/history?limit=
func (h *PromptsHandler) History(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	entries, err := h.scheduler.History(r.Context(), caller.User.ID, ParseLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"history": entries,
	})
}

// GET /api/v1/prompts/stats
func (h *PromptsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	stats, err := h.scheduler.Stats(r.Context(), caller.User.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
