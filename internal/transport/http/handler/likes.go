package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/telbozor/api/internal/application/like"
)

// LikeHandler handles favourites.
type LikeHandler struct {
	svc like.Service
}

func NewLikeHandler(svc like.Service) *LikeHandler { return &LikeHandler{svc: svc} }

func (h *LikeHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := viewerID(w, r)
	if !ok {
		return
	}
	listings, err := h.svc.ListLiked(r.Context(), userID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}

func (h *LikeHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID, ok := viewerID(w, r)
	if !ok {
		return
	}
	listingID := chi.URLParam(r, "listingID")
	liked, err := h.svc.Toggle(r.Context(), userID, listingID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, LikeEnvelope{ListingID: listingID, Liked: liked})
}
