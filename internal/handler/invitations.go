package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pulseofpair/pairsync/internal/model"
	"github.com/pulseofpair/pairsync/internal/service"
)

type InvitationService interface {
	Issue(ctx context.Context, issuerID string) (*model.Invitation, error)
	Peek(ctx context.Context, code string) (*service.InvitationPreview, error)
	Consume(ctx context.Context, code, inviteeID string) (*model.Pair, error)
	ListIssued(ctx context.Context, issuerID string, limit int) ([]model.Invitation, error)
}

// DeepLinker builds the shareable link for a code.
type DeepLinker interface {
	DeepLink(code string) string
}

type InvitationsHandler struct {
	invitations InvitationService
	links       DeepLinker
}

func NewInvitationsHandler(invitations InvitationService, links DeepLinker) *InvitationsHandler {
	return &InvitationsHandler{invitations: invitations, links: links}
}

func (h *InvitationsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Issue)
	r.Get("/", h.List)
	r.Get("/{code}", h.Peek)
	r.Post("/{code}/use", h.Consume)

	return r
}

type invitationResponse struct {
	*model.Invitation
	Link string `json:"link,omitempty"`
}

// POST /api/v1/invitations
func (h *InvitationsHandler) Issue(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	inv, err := h.invitations.Issue(r.Context(), caller.User.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := invitationResponse{Invitation: inv}
	if h.links != nil {
		resp.Link = h.links.DeepLink(inv.Code)
	}
	writeJSON(w, http.StatusCreated, resp)
}

// GET /api/v1/invitations
func (h *InvitationsHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	invitations, err := h.invitations.ListIssued(r.Context(), caller.User.ID, ParseLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if invitations == nil {
		invitations = []model.Invitation{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"invitations": invitations,
	})
}

// GET /api/v1/invitations/{code}
func (h *InvitationsHandler) Peek(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireCaller(w, r); !ok {
		return
	}

	preview, err := h.invitations.Peek(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, preview)
}

// POST /api/v1/invitations/{code}/use
func (h *InvitationsHandler) Consume(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	pair, err := h.invitations.Consume(r.Context(), chi.URLParam(r, "code"), caller.User.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"pair": pair,
		"role": pair.RoleOf(caller.User.ID),
	})
}
