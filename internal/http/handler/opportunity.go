package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"prospect-api/internal/auth"
	"prospect-api/internal/domain"
	"prospect-api/internal/http/httperr"
	"prospect-api/internal/service"

	"github.com/go-chi/chi/v5"
)

type OpportunityHandler struct {
	service *service.OpportunityService
}

func NewOpportunityHandler(service *service.OpportunityService) *OpportunityHandler {
	return &OpportunityHandler{service: service}
}

func (h *OpportunityHandler) CreateOpportunity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := auth.ActorID(ctx)

	var req domain.CreateOpportunityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidFormat, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeValidationError, err.Error())
		return
	}

	opp, err := h.service.Create(ctx, actorID, &req)
	if err != nil {
		handleDomainError(w, ctx, err)
		return
	}

	writeOK(w, http.StatusCreated, opp)
}

func (h *OpportunityHandler) GetOpportunity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	opportunityID := chi.URLParam(r, "opportunityId")

	opp, err := h.service.Get(ctx, opportunityID)
	if err != nil {
		handleDomainError(w, ctx, err)
		return
	}

	writeOK(w, http.StatusOK, opp)
}

func (h *OpportunityHandler) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var status *domain.OpportunityStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := domain.OpportunityStatus(raw)
		if !st.IsValid() {
			httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidStatus, "unknown opportunity status")
			return
		}
		status = &st
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidLimit, "limit must be between 1 and 200")
			return
		}
		limit = parsed
	}

	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidParameter, "offset must be non-negative")
			return
		}
		offset = parsed
	}

	opps, err := h.service.List(ctx, status, limit, offset)
	if err != nil {
		handleDomainError(w, ctx, err)
		return
	}

	writeOK(w, http.StatusOK, opps)
}

func (h *OpportunityHandler) UpdateOpportunity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	opportunityID := chi.URLParam(r, "opportunityId")
	actorID := auth.ActorID(ctx)

	var req domain.UpdateOpportunityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidFormat, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeValidationError, err.Error())
		return
	}

	opp, err := h.service.Update(ctx, actorID, opportunityID, &req)
	if err != nil {
		handleDomainError(w, ctx, err)
		return
	}

	writeOK(w, http.StatusOK, opp)
}

func (h *OpportunityHandler) DeleteOpportunity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	opportunityID := chi.URLParam(r, "opportunityId")
	actorID := auth.ActorID(ctx)

	if err := h.service.Delete(ctx, actorID, opportunityID); err != nil {
		handleDomainError(w, ctx, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *OpportunityHandler) DeclareLost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	opportunityID := chi.URLParam(r, "opportunityId")
	actorID := auth.ActorID(ctx)

	var req domain.DeclareLostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidFormat, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeValidationError, err.Error())
		return
	}

	if err := h.service.DeclareLost(ctx, actorID, opportunityID, req.Reason); err != nil {
		handleDomainError(w, ctx, err)
		return
	}

	opp, err := h.service.Get(ctx, opportunityID)
	if err != nil {
		handleDomainError(w, ctx, err)
		return
	}

	writeOK(w, http.StatusOK, opp)
}

func (h *OpportunityHandler) MakeQuotation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	opportunityID := chi.URLParam(r, "opportunityId")
	actorID := auth.ActorID(ctx)

	// Overrides are optional; an empty body is a plain conversion
	var overrides *domain.QuotationOverrides
	if r.ContentLength != 0 {
		overrides = &domain.QuotationOverrides{}
		if err := json.NewDecoder(r.Body).Decode(overrides); err != nil {
			httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidFormat, "invalid JSON body")
			return
		}
	}

	quotation, err := h.service.ConvertToQuotation(ctx, actorID, opportunityID, overrides)
	if err != nil {
		handleDomainError(w, ctx, err)
		return
	}

	writeOK(w, http.StatusCreated, quotation)
}

func (h *OpportunityHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := auth.ActorID(ctx)

	var req domain.SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidFormat, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeValidationError, err.Error())
		return
	}

	// Names is a pre-serialized JSON array of opportunity identifiers
	var ids []string
	if err := json.Unmarshal([]byte(req.Names), &ids); err != nil {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidFormat, "names must be a JSON array of identifiers")
		return
	}

	if err := h.service.SetStatusForMany(ctx, actorID, ids, req.Status); err != nil {
		handleDomainError(w, ctx, err)
		return
	}

	writeOK(w, http.StatusOK, map[string]interface{}{
		"updated": len(ids),
		"status":  req.Status,
	})
}

func (h *OpportunityHandler) OrderedQuotations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	opportunityID := chi.URLParam(r, "opportunityId")

	ids, err := h.service.HasOrderedQuotation(ctx, opportunityID)
	if err != nil {
		handleDomainError(w, ctx, err)
		return
	}

	writeOK(w, http.StatusOK, map[string]interface{}{
		"quotations": ids,
	})
}
