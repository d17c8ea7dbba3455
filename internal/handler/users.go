package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pulseofpair/pairsync/internal/model"
	"github.com/pulseofpair/pairsync/internal/service"
)

type IdentityService interface {
	Register(ctx context.Context, caller *service.Caller, inviteCode string) (*service.RegisterResult, error)
	UpdateDisplayName(ctx context.Context, userID, displayName string) (*model.User, error)
}

type UsersHandler struct {
	identity IdentityService
}

func NewUsersHandler(identity IdentityService) *UsersHandler {
	return &UsersHandler{identity: identity}
}

func (h *UsersHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.Register)
	r.Get("/me", h.Me)
	r.Patch("/me", h.UpdateMe)

	return r
}

// POST /api/v1/users/register
// Confirms the caller and optionally consumes an invitation. A rejected
// invitation is reported in inviteError while registration still succeeds.
func (h *UsersHandler) Register(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req struct {
		InviteCode string `json:"inviteCode" validate:"omitempty,max=32"`
	}
	if err := decodeBody(r, &req, true); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.identity.Register(r.Context(), caller, req.InviteCode)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GET /api/v1/users/me
func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, caller.User)
}

// PATCH /api/v1/users/me
func (h *UsersHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req struct {
		DisplayName string `json:"displayName" validate:"required,max=256"`
	}
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.identity.UpdateDisplayName(r.Context(), caller.User.ID, req.DisplayName)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
