package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dvloznov/finance-assistant/internal/api/middleware"
	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/finance"
	"github.com/dvloznov/finance-assistant/internal/ledger"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// NotificationsHandler handles notification endpoints.
type NotificationsHandler struct {
	svc *finance.Service
	log zerolog.Logger
}

// NewNotificationsHandler creates a new notifications handler.
func NewNotificationsHandler(svc *finance.Service, log zerolog.Logger) *NotificationsHandler {
	return &NotificationsHandler{svc: svc, log: log}
}

// ListNotifications handles GET /api/notifications
func (h *NotificationsHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.svc.Ledger().ListNotifications(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list notifications")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list notifications")
		return
	}

	unreadOnly := r.URL.Query().Get("unread") == "true"
	out := make([]domain.Notification, 0, len(notifications))
	unread := 0
	for _, n := range notifications {
		if !n.Read {
			unread++
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": out,
		"count":         len(out),
		"unread":        unread,
	})
}

// MarkRead handles POST /api/notifications/{id}/read
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	err = h.svc.Ledger().MarkNotificationRead(r.Context(), id)
	if errors.Is(err, ledger.ErrNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Notification not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Int64("notification_id", id).Msg("Failed to mark notification read")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to mark notification read")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// CheckGoals handles POST /api/notifications/check-goals
func (h *NotificationsHandler) CheckGoals(w http.ResponseWriter, r *http.Request) {
	outcomes := h.svc.CheckGoalsDue(r.Context())

	alerts := []domain.Alert{}
	var failed []string
	for _, o := range outcomes {
		if o.Err != nil {
			failed = append(failed, o.Handler)
			continue
		}
		alerts = append(alerts, o.Result.Alerts...)
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ok":              len(failed) == 0,
		"alerts":          alerts,
		"failed_handlers": failed,
	})
}
