package notifications

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	notificationdomain "buckety-go/internal/domain/notification"
	commonhandler "buckety-go/internal/transport/httpserver/handler/common"
	"buckety-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type notificationResponse struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Amount    *decimal.Decimal  `json:"amount,omitempty"`
	Metadata  map[string]string `json:"metadata"`
	IsRead    bool              `json:"isRead"`
	CreatedAt time.Time         `json:"createdAt"`
}

type listNotificationsResponse struct {
	Items       []notificationResponse `json:"items"`
	UnreadCount int64                  `json:"unreadCount"`
}

func (h *Handlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		commonhandler.WriteUnauthorized(w)
		return
	}

	query := r.URL.Query()
	unreadOnly, err := commonhandler.ParseBoolParam(query.Get("unread"), false)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid unread")
		return
	}
	limit, err := commonhandler.ParseIntParam(query.Get("limit"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid limit")
		return
	}

	items, err := h.Notifications.List(r.Context(), userID, unreadOnly, limit)
	if err != nil {
		h.log.InternalError("notifications.list: list failed", err, "user_id", userID)
		commonhandler.WriteInternal(w)
		return
	}
	unread, err := h.Notifications.UnreadCount(r.Context(), userID)
	if err != nil {
		h.log.InternalError("notifications.list: count unread failed", err, "user_id", userID)
		commonhandler.WriteInternal(w)
		return
	}

	response := listNotificationsResponse{
		Items:       make([]notificationResponse, 0, len(items)),
		UnreadCount: unread,
	}
	for _, item := range items {
		response.Items = append(response.Items, h.toResponse(item))
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		commonhandler.WriteUnauthorized(w)
		return
	}
	id := chi.URLParam(r, "id")

	if err := h.Notifications.MarkRead(r.Context(), userID, id); err != nil {
		if errors.Is(err, notificationdomain.ErrNotificationNotFound) {
			writeError(w, http.StatusNotFound, "notification_not_found", "notification not found")
			return
		}
		h.log.InternalError("notifications.mark_read: update failed", err, "user_id", userID, "notification_id", id)
		commonhandler.WriteInternal(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		commonhandler.WriteUnauthorized(w)
		return
	}

	updated, err := h.Notifications.MarkAllRead(r.Context(), userID)
	if err != nil {
		h.log.InternalError("notifications.mark_all_read: update failed", err, "user_id", userID)
		commonhandler.WriteInternal(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

func (h *Handlers) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		commonhandler.WriteUnauthorized(w)
		return
	}
	id := chi.URLParam(r, "id")

	if err := h.Notifications.Delete(r.Context(), userID, id); err != nil {
		if errors.Is(err, notificationdomain.ErrNotificationNotFound) {
			writeError(w, http.StatusNotFound, "notification_not_found", "notification not found")
			return
		}
		h.log.InternalError("notifications.delete: delete failed", err, "user_id", userID, "notification_id", id)
		commonhandler.WriteInternal(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) toResponse(item notificationdomain.Notification) notificationResponse {
	response := notificationResponse{
		ID:        item.ID,
		Type:      item.Type,
		Title:     item.Title,
		Message:   item.Message,
		Metadata:  map[string]string{},
		IsRead:    item.IsRead,
		CreatedAt: item.CreatedAt,
	}
	if item.Amount.Valid {
		amount := item.Amount.Decimal
		response.Amount = &amount
	}
	if len(item.Metadata) > 0 {
		if err := json.Unmarshal(item.Metadata, &response.Metadata); err != nil {
			h.log.Warn("notifications: unreadable metadata", "notification_id", item.ID, "error", err)
		}
	}
	return response
}
