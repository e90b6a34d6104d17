package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/telbozor/api/internal/application/listing"
	"github.com/telbozor/api/internal/domain"
)

// ListingHandler handles listing endpoints.
type ListingHandler struct {
	svc listing.Service
}

func NewListingHandler(svc listing.Service) *ListingHandler { return &ListingHandler{svc: svc} }

func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	var city *domain.City
	if q := r.URL.Query().Get("city"); q != "" {
		c := domain.City(q)
		city = &c
	}
	listings, err := h.svc.List(r.Context(), city)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}

func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	l, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *ListingHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := viewerID(w, r)
	if !ok {
		return
	}
	listings, err := h.svc.ListMine(r.Context(), userID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listings)
}

func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := viewerID(w, r)
	if !ok {
		return
	}
	var req domain.CreateListingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	l, err := h.svc.Create(r.Context(), userID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (h *ListingHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := viewerID(w, r)
	if !ok {
		return
	}
	var req domain.UpdateListingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	l, err := h.svc.Update(r.Context(), userID, chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := viewerID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "listing deleted"})
}

func (h *ListingHandler) SetImages(w http.ResponseWriter, r *http.Request) {
	userID, ok := viewerID(w, r)
	if !ok {
		return
	}
	var req domain.SetImagesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	l, err := h.svc.SetImages(r.Context(), userID, chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}
