package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/telbozor/api/internal/application/request"
	"github.com/telbozor/api/internal/domain"
)

// RequestHandler handles search-request endpoints.
type RequestHandler struct {
	svc request.Service
}

func NewRequestHandler(svc request.Service) *RequestHandler { return &RequestHandler{svc: svc} }

func (h *RequestHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := viewerID(w, r)
	if !ok {
		return
	}
	reqs, err := h.svc.ListMine(r.Context(), userID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := viewerID(w, r)
	if !ok {
		return
	}
	var req domain.CreateSearchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sr, err := h.svc.Create(r.Context(), userID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sr)
}

func (h *RequestHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	userID, ok := viewerID(w, r)
	if !ok {
		return
	}
	var req domain.SetActiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.IsActive == nil {
		writeError(w, http.StatusBadRequest, "is_active is required")
		return
	}
	sr, err := h.svc.SetActive(r.Context(), userID, chi.URLParam(r, "id"), *req.IsActive)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sr)
}

func (h *RequestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := viewerID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "request deleted"})
}
