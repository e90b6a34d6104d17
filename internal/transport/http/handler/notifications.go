package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/telbozor/api/internal/application/notification"
)

// NotificationHandler handles notification endpoints.
type NotificationHandler struct {
	svc notification.Service
}

func NewNotificationHandler(svc notification.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// List returns the caller's notifications, newest first. ?unread=true limits
// the result to unread ones.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := viewerID(w, r)
	if !ok {
		return
	}
	list := h.svc.List
	if r.URL.Query().Get("unread") == "true" {
		list = h.svc.ListUnread
	}
	notifications, err := list(r.Context(), userID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := viewerID(w, r)
	if !ok {
		return
	}
	n, err := h.svc.UnreadCount(r.Context(), userID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountEnvelope{Count: n})
}

func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := viewerID(w, r)
	if !ok {
		return
	}
	if err := h.svc.MarkAsRead(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "notification marked as read"})
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := viewerID(w, r)
	if !ok {
		return
	}
	n, err := h.svc.MarkAllRead(r.Context(), userID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountEnvelope{Count: n})
}
