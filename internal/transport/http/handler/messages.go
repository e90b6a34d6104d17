package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/telbozor/api/internal/application/message"
	"github.com/telbozor/api/internal/domain"
)

// MessageHandler handles chat messages and the conversation views derived from them.
type MessageHandler struct {
	svc message.Service
}

func NewMessageHandler(svc message.Service) *MessageHandler { return &MessageHandler{svc: svc} }

func (h *MessageHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := viewerID(w, r)
	if !ok {
		return
	}
	convs, err := h.svc.Conversations(r.Context(), userID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

func (h *MessageHandler) Thread(w http.ResponseWriter, r *http.Request) {
	userID, ok := viewerID(w, r)
	if !ok {
		return
	}
	msgs, err := h.svc.Thread(r.Context(), userID, chi.URLParam(r, "listingID"), chi.URLParam(r, "userID"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, ok := viewerID(w, r)
	if !ok {
		return
	}
	var req domain.SendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := h.svc.Send(r.Context(), userID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *MessageHandler) Edit(w http.ResponseWriter, r *http.Request) {
	userID, ok := viewerID(w, r)
	if !ok {
		return
	}
	var req domain.EditMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := h.svc.Edit(r.Context(), userID, chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := viewerID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "message deleted"})
}

func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := viewerID(w, r)
	if !ok {
		return
	}
	var req domain.MarkReadRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := h.svc.MarkRead(r.Context(), userID, req.MessageIDs)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountEnvelope{Count: n})
}

func (h *MessageHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
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
