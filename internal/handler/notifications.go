package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pulseofpair/pairsync/internal/model"
	"github.com/pulseofpair/pairsync/internal/service"
)

type ReminderService interface {
	RequestReminder(ctx context.Context, userID string, promptID int64) (*service.ReminderResult, error)
	ListSent(ctx context.Context, userID string, limit int) ([]model.Notification, error)
}

type NotificationsHandler struct {
	reminders ReminderService
}

func NewNotificationsHandler(reminders ReminderService) *NotificationsHandler {
	return &NotificationsHandler{reminders: reminders}
}

func (h *NotificationsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/remind", h.Remind)
	r.Get("/", h.List)

	return r
}

// POST /api/v1/notifications/remind
// A THROTTLED response carries Retry-After and details.retryAfterSeconds.
func (h *NotificationsHandler) Remind(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	var req struct {
		PromptID int64 `json:"promptId" validate:"required,gt=0"`
	}
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.reminders.RequestReminder(r.Context(), caller.User.ID, req.PromptID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GET /api/v1/notifications
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}

	notifications, err := h.reminders.ListSent(r.Context(), caller.User.ID, ParseLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": notifications,
	})
}
