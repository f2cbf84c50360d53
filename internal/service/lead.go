package service

import (
	"context"
	"fmt"

	"prospect-api/internal/domain"
	"prospect-api/internal/observability/logger"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// LeadService resolves and maintains leads on behalf of opportunities.
type LeadService struct {
	leads LeadStore
	opps  OpportunityStore
	log   *logger.Logger

	// Incremented on each auto-created lead. May be nil.
	autoCreated metric.Int64Counter
}

func NewLeadService(leads LeadStore, opps OpportunityStore, log *logger.Logger, autoCreated metric.Int64Counter) *LeadService {
	return &LeadService{leads: leads, opps: opps, log: log, autoCreated: autoCreated}
}

// EnsureLead anchors an opportunity to a lead. Triggered whenever the
// opportunity is not already firmly lead-backed (no lead set, or a
// customer also set). Resolves an existing lead by contact email or
// creates one on the spot, bypassing normal permission checks. Returns
// the enquiry origin and the resolved lead identifier. Idempotent:
// repeated calls with the same email find the lead created first.
func (s *LeadService) EnsureLead(ctx context.Context, contactEmail string, leadID, customerID *string) (domain.EnquiryFrom, string, error) {
	if leadID != nil && *leadID != "" && (customerID == nil || *customerID == "") {
		return domain.EnquiryFromLead, *leadID, nil
	}

	lead, err := s.leads.FindByEmail(ctx, contactEmail)
	if err != nil {
		return "", "", fmt.Errorf("find lead by email: %w", err)
	}
	if lead == nil {
		lead = &domain.Lead{
			ID:       newID(prefixLead),
			LeadName: contactEmail,
			EmailID:  contactEmail,
			Status:   domain.LeadStatusOpen,
		}
		if err := s.leads.Create(ctx, lead); err != nil {
			return "", "", fmt.Errorf("create lead: %w", err)
		}
		s.log.Info(ctx, "lead auto-created for opportunity",
			logger.Module("lead"),
			logger.Action("auto_create"),
			zap.String("lead_id", lead.ID),
		)
		if s.autoCreated != nil {
			s.autoCreated.Add(ctx, 1)
		}
	}

	return domain.EnquiryFromLead, lead.ID, nil
}

// RecomputeStatus re-derives a lead's aggregate status from its linked
// documents: a lead referenced by any opportunity moves to Opportunity,
// unless it is already Converted.
func (s *LeadService) RecomputeStatus(ctx context.Context, leadID string) error {
	lead, err := s.leads.Get(ctx, leadID)
	if err != nil {
		return fmt.Errorf("get lead: %w", err)
	}
	if lead.Status == domain.LeadStatusConverted {
		return nil
	}

	linked, err := s.opps.ExistsForLead(ctx, leadID)
	if err != nil {
		return fmt.Errorf("check linked opportunities: %w", err)
	}
	if linked && lead.Status != domain.LeadStatusOpportunity {
		if err := s.leads.SetStatus(ctx, leadID, domain.LeadStatusOpportunity); err != nil {
			return fmt.Errorf("set lead status: %w", err)
		}
	}
	return nil
}
