package handler

import (
	"net/http"

	"prospect-api/internal/service"

	"github.com/go-chi/chi/v5"
)

type CustomerHandler struct {
	service *service.OpportunityService
}

func NewCustomerHandler(service *service.OpportunityService) *CustomerHandler {
	return &CustomerHandler{service: service}
}

// GetCustomerSnapshot returns the flattened customer + primary contact
// view used to prefill opportunity forms.
func (h *CustomerHandler) GetCustomerSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID := chi.URLParam(r, "customerId")

	snapshot, err := h.service.CustomerSnapshot(ctx, customerID)
	if err != nil {
		handleDomainError(w, ctx, err)
		return
	}

	writeOK(w, http.StatusOK, snapshot)
}
