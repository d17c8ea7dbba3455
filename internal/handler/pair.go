package handler

import (
	"context"
	"net/http"

	"github.com/pulseofpair/pairsync/internal/service"
)

type PairService interface {
	GetPair(ctx context.Context, userID string) (*service.PairView, error)
}

type PairHandler struct {
	pairs PairService
}

func NewPairHandler(pairs PairService) *PairHandler {
	return &PairHandler{pairs: pairs}
}

// GET /api/v1/pair
func (h *PairHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	view, err := h.pairs.GetPair(r.Context(), caller.User.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}
