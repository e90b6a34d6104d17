package handler

import (
	"net/http"

	"github.com/telbozor/api/internal/application/brand"
	"github.com/telbozor/api/internal/domain"
)

// BrandHandler handles the brand catalogue.
type BrandHandler struct {
	svc brand.Service
}

func NewBrandHandler(svc brand.Service) *BrandHandler { return &BrandHandler{svc: svc} }

func (h *BrandHandler) List(w http.ResponseWriter, r *http.Request) {
	brands, err := h.svc.List(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, brands)
}

func (h *BrandHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.BrandInput
	if !decodeJSON(w, r, &in) {
		return
	}
	b, err := h.svc.Create(r.Context(), in)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}
