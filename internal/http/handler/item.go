package handler

import (
	"net/http"

	"prospect-api/internal/service"

	"github.com/go-chi/chi/v5"
)

type ItemHandler struct {
	service *service.OpportunityService
}

func NewItemHandler(service *service.OpportunityService) *ItemHandler {
	return &ItemHandler{service: service}
}

// GetItemDetails returns the denormalized catalog fields for an item.
// Unknown item codes return empty fields, not 404.
func (h *ItemHandler) GetItemDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemCode := chi.URLParam(r, "itemCode")

	details, err := h.service.ItemDetails(ctx, itemCode)
	if err != nil {
		handleDomainError(w, ctx, err)
		return
	}

	writeOK(w, http.StatusOK, details)
}
