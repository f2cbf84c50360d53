package service

import (
	"context"
	"fmt"

	"prospect-api/internal/domain"
	"prospect-api/internal/observability/logger"

	"go.uber.org/zap"
)

// prevdocOpportunity is the parent-type carried on converted quotation
// lines.
const prevdocOpportunity = "Opportunity"

// ConvertToQuotation materializes a new quotation from an opportunity
// snapshot. The mapping is one-way and never mutates the source:
// enquiry origin becomes quotation_to, enquiry type becomes order_type
// and the opportunity identifier is kept as the enq_no back-reference.
// Each line carries prevdoc references back to the opportunity.
// Caller-supplied overrides win over mapped values; the currency is
// always cleared and re-derived afterwards.
func (s *OpportunityService) ConvertToQuotation(ctx context.Context, actorID, opportunityID string, overrides *domain.QuotationOverrides) (*domain.Quotation, error) {
	opp, err := s.opps.Get(ctx, opportunityID)
	if err != nil {
		return nil, err
	}

	q := &domain.Quotation{
		ID:           newID(prefixQuotation),
		QuotationTo:  string(opp.EnquiryFrom),
		OrderType:    opp.EnquiryType,
		EnqNo:        opp.ID,
		CustomerID:   opp.CustomerID,
		LeadID:       opp.LeadID,
		CustomerName: opp.CustomerName,
		Status:       domain.QuotationStatusDraft,
		Items:        mapQuotationItems(opp),
	}

	applyQuotationOverrides(q, opp, overrides)
	s.setMissingQuotationValues(ctx, q)
	calculateTaxesAndTotals(q)

	if err := s.quotes.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("repo create quotation: %w", err)
	}

	s.log.Info(ctx, "quotation created from opportunity",
		logger.Module("quotation"),
		logger.Action("convert"),
		zap.String("opportunity_id", opp.ID),
		zap.String("quotation_id", q.ID),
	)
	qid := q.ID
	if err := s.audit.LogAction(ctx, actorID, "make_quotation", "quotation", &qid,
		map[string]interface{}{"opportunity_id": opp.ID}); err != nil {
		s.log.Warn(ctx, "audit log write failed",
			logger.Module("quotation"),
			logger.Action("audit"),
			zap.Error(err),
		)
	}
	if s.convertedCounter != nil {
		s.convertedCounter.Add(ctx, 1)
	}

	return q, nil
}

// mapQuotationItems maps opportunity lines onto quotation lines. An
// opportunity without lines legally maps to a zero-item quotation.
func mapQuotationItems(opp *domain.Opportunity) []domain.QuotationItem {
	if len(opp.Items) == 0 {
		return nil
	}
	out := make([]domain.QuotationItem, len(opp.Items))
	for i, it := range opp.Items {
		out[i] = domain.QuotationItem{
			ItemCode:       it.ItemCode,
			ItemName:       it.ItemName,
			Description:    it.Description,
			ItemGroup:      it.ItemGroup,
			Brand:          it.Brand,
			StockUOM:       it.UOM,
			Qty:            it.Qty,
			Rate:           it.Rate,
			PrevdocDocname: opp.ID,
			PrevdocDoctype: prevdocOpportunity,
		}
	}
	return out
}

func applyQuotationOverrides(q *domain.Quotation, opp *domain.Opportunity, overrides *domain.QuotationOverrides) {
	if overrides == nil {
		return
	}
	if overrides.QuotationTo != nil {
		q.QuotationTo = *overrides.QuotationTo
	}
	if overrides.OrderType != nil {
		q.OrderType = *overrides.OrderType
	}
	if overrides.CustomerID != nil {
		q.CustomerID = overrides.CustomerID
	}
	if overrides.CustomerName != nil {
		q.CustomerName = *overrides.CustomerName
	}
	if overrides.Currency != nil {
		q.Currency = *overrides.Currency
	}
	if len(overrides.Items) > 0 {
		items := make([]domain.QuotationItem, len(overrides.Items))
		for i, it := range overrides.Items {
			items[i] = domain.QuotationItem{
				ItemCode:       it.ItemCode,
				ItemName:       it.ItemName,
				Description:    it.Description,
				ItemGroup:      it.ItemGroup,
				Brand:          it.Brand,
				StockUOM:       it.UOM,
				Qty:            it.Qty,
				Rate:           it.Rate,
				PrevdocDocname: opp.ID,
				PrevdocDoctype: prevdocOpportunity,
			}
		}
		q.Items = items
	}
}

// setMissingQuotationValues clears any pre-set currency so it is
// re-derived from the customer context, falling back to the configured
// default.
func (s *OpportunityService) setMissingQuotationValues(ctx context.Context, q *domain.Quotation) {
	q.Currency = ""
	if q.CustomerID != nil && *q.CustomerID != "" {
		// Customer-specific currencies are not modeled yet; the
		// customer lookup stays here so a pricing profile can slot in.
		if _, err := s.customers.Get(ctx, *q.CustomerID); err != nil {
			s.log.Warn(ctx, "currency derivation: customer lookup failed",
				logger.Module("quotation"),
				logger.Action("set_missing_values"),
				zap.Error(err),
			)
		}
	}
	if q.Currency == "" {
		q.Currency = s.defaultCurrency
	}
}

// calculateTaxesAndTotals recomputes line amounts and document totals.
func calculateTaxesAndTotals(q *domain.Quotation) {
	var net float64
	for i := range q.Items {
		q.Items[i].Amount = q.Items[i].Qty * q.Items[i].Rate
		net += q.Items[i].Amount
	}
	q.NetTotal = net
	q.GrandTotal = net
}
