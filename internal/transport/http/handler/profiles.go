package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/telbozor/api/internal/application/profile"
	"github.com/telbozor/api/internal/domain"
)

// ProfileHandler handles public profile data.
type ProfileHandler struct {
	svc profile.Service
}

func NewProfileHandler(svc profile.Service) *ProfileHandler { return &ProfileHandler{svc: svc} }

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) UpdateMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := viewerID(w, r)
	if !ok {
		return
	}
	var req domain.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.UpdateMine(r.Context(), userID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
