package service

import (
	"context"
	"errors"
	"fmt"

	"prospect-api/internal/domain"
	"prospect-api/internal/observability/logger"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

var (
	ErrOpportunityNotFound = errors.New("opportunity not found")
)

// OpportunityService owns the opportunity lifecycle: the validate
// pipeline, status transitions, quotation conversion and the follow-up
// calendar synchronization.
type OpportunityService struct {
	opps      OpportunityStore
	leads     LeadStore
	customers CustomerStore
	items     ItemStore
	quotes    QuotationStore
	events    EventStore
	leadSvc   *LeadService
	audit     AuditStore
	log       *logger.Logger

	status          StatusPolicy
	fiscal          FiscalYearValidator
	uom             UOMValidator
	defaultCurrency string

	// Optional counters. May be nil.
	createdCounter   metric.Int64Counter
	lostCounter      metric.Int64Counter
	convertedCounter metric.Int64Counter
}

type OpportunityServiceDeps struct {
	Opportunities OpportunityStore
	Leads         LeadStore
	Customers     CustomerStore
	Items         ItemStore
	Quotations    QuotationStore
	Events        EventStore
	LeadService   *LeadService
	Audit         AuditStore
	Log           *logger.Logger

	// Optional policies; defaults apply when nil.
	Status          StatusPolicy
	FiscalYear      FiscalYearValidator
	UOM             UOMValidator
	DefaultCurrency string

	// Optional counters. May be nil.
	CreatedCounter   metric.Int64Counter
	LostCounter      metric.Int64Counter
	ConvertedCounter metric.Int64Counter
}

func NewOpportunityService(deps OpportunityServiceDeps) *OpportunityService {
	s := &OpportunityService{
		opps:            deps.Opportunities,
		leads:           deps.Leads,
		customers:       deps.Customers,
		items:           deps.Items,
		quotes:          deps.Quotations,
		events:          deps.Events,
		leadSvc:         deps.LeadService,
		audit:           deps.Audit,
		log:             deps.Log,
		status:          deps.Status,
		fiscal:          deps.FiscalYear,
		uom:             deps.UOM,
		defaultCurrency: deps.DefaultCurrency,

		createdCounter:   deps.CreatedCounter,
		lostCounter:      deps.LostCounter,
		convertedCounter: deps.ConvertedCounter,
	}
	if s.status == nil {
		s.status = DefaultStatusPolicy
	}
	if s.fiscal == nil {
		s.fiscal = CalendarYearPolicy{}
	}
	if s.uom == nil {
		s.uom = NewWholeNumberUOMs(nil)
	}
	if s.defaultCurrency == "" {
		s.defaultCurrency = "USD"
	}
	return s
}

// Create persists a new opportunity after a full validate pass, then
// recomputes the linked lead's status and seeds the follow-up event.
func (s *OpportunityService) Create(ctx context.Context, actorID string, req *domain.CreateOpportunityRequest) (*domain.Opportunity, error) {
	opp := &domain.Opportunity{
		ID:              newID(prefixOpportunity),
		EnquiryFrom:     req.EnquiryFrom,
		EnquiryType:     req.EnquiryType,
		LeadID:          req.LeadID,
		CustomerID:      req.CustomerID,
		ContactEmail:    req.ContactEmail,
		ContactPerson:   req.ContactPerson,
		ContactDisplay:  req.ContactDisplay,
		ContactBy:       req.ContactBy,
		ContactDate:     req.ContactDate,
		ToDiscuss:       req.ToDiscuss,
		Title:           req.Title,
		TransactionDate: req.TransactionDate,
		FiscalYear:      req.FiscalYear,
		Items:           mapItemRequests(req.Items),
	}

	// New records carry no previous snapshot.
	if err := s.Validate(ctx, opp, nil); err != nil {
		return nil, err
	}

	if err := s.opps.Create(ctx, opp); err != nil {
		return nil, fmt.Errorf("repo create opportunity: %w", err)
	}

	s.afterInsert(ctx, opp)

	if err := s.syncFollowupEvent(ctx, opp, false); err != nil {
		return nil, err
	}

	s.logOpportunityAction(ctx, actorID, "create", opp.ID)
	if s.createdCounter != nil {
		s.createdCounter.Add(ctx, 1)
	}
	return opp, nil
}

// afterInsert recomputes the linked lead's aggregate status. Side effect
// only: a failure is logged, not surfaced.
func (s *OpportunityService) afterInsert(ctx context.Context, opp *domain.Opportunity) {
	if opp.LeadID == nil || *opp.LeadID == "" {
		return
	}
	if err := s.leadSvc.RecomputeStatus(ctx, *opp.LeadID); err != nil {
		s.log.Warn(ctx, "lead status recompute failed",
			logger.Module("opportunity"),
			logger.Action("after_insert"),
			zap.String("lead_id", *opp.LeadID),
			zap.Error(err),
		)
	}
}

func (s *OpportunityService) Get(ctx context.Context, id string) (*domain.Opportunity, error) {
	return s.opps.Get(ctx, id)
}

func (s *OpportunityService) List(ctx context.Context, status *domain.OpportunityStatus, limit, offset int) ([]domain.Opportunity, error) {
	return s.opps.List(ctx, status, limit, offset)
}

// Update applies a partial update, re-validates against the previously
// persisted contact snapshot and refreshes the follow-up event when the
// contact schedule changed.
func (s *OpportunityService) Update(ctx context.Context, actorID, id string, req *domain.UpdateOpportunityRequest) (*domain.Opportunity, error) {
	opp, err := s.opps.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	prev := &domain.PrevSnapshot{
		ContactDate: opp.ContactDate,
		ContactBy:   opp.ContactBy,
	}

	applyUpdate(opp, req)

	if err := s.Validate(ctx, opp, prev); err != nil {
		return nil, err
	}

	if err := s.opps.Update(ctx, opp); err != nil {
		return nil, fmt.Errorf("repo update opportunity: %w", err)
	}

	if contactChanged(prev, opp) {
		if err := s.syncFollowupEvent(ctx, opp, false); err != nil {
			return nil, err
		}
	}

	s.logOpportunityAction(ctx, actorID, "update", opp.ID)
	return opp, nil
}

// Delete removes the opportunity and its follow-up events. Deleting the
// events is nil-safe when none exist.
func (s *OpportunityService) Delete(ctx context.Context, actorID, id string) error {
	if _, err := s.opps.Get(ctx, id); err != nil {
		return err
	}
	if err := s.events.DeleteForOwner(ctx, id); err != nil {
		return fmt.Errorf("delete followup events: %w", err)
	}
	if err := s.opps.Delete(ctx, id); err != nil {
		return fmt.Errorf("repo delete opportunity: %w", err)
	}
	s.logOpportunityAction(ctx, actorID, "delete", id)
	return nil
}

// Validate runs the full pre-persist pipeline, in order. prev carries
// the previously persisted contact fields (nil for new records).
func (s *OpportunityService) Validate(ctx context.Context, opp *domain.Opportunity, prev *domain.PrevSnapshot) error {
	if err := s.ensureLead(ctx, opp); err != nil {
		return err
	}

	if opp.EnquiryFrom == "" {
		return domain.NewValidationError("Opportunity From field is mandatory")
	}
	if !opp.EnquiryFrom.IsValid() {
		return domain.NewValidationError("Opportunity From must be Lead or Customer")
	}

	opp.Status = s.status(opp)
	if err := s.validateLostStatus(ctx, opp); err != nil {
		return err
	}

	if err := s.backfillItemDetails(ctx, opp); err != nil {
		return err
	}

	if err := s.uom.ValidateIntegerUOM(opp.Items); err != nil {
		return err
	}

	if err := s.validateLeadCustomer(opp); err != nil {
		return err
	}

	if err := s.deriveCustomerName(ctx, opp); err != nil {
		return err
	}

	if opp.Title == "" {
		opp.Title = opp.CustomerName
	}

	if err := s.fiscal.Validate(opp.TransactionDate, opp.FiscalYear, "Opportunity Date"); err != nil {
		return err
	}

	return nil
}

// ensureLead anchors the record to a lead when it is not explicitly
// customer-sourced and cannot stand on its own. Requires a contact email
// to resolve against.
func (s *OpportunityService) ensureLead(ctx context.Context, opp *domain.Opportunity) error {
	if opp.EnquiryFrom == domain.EnquiryFromCustomer {
		return nil
	}
	if opp.ContactEmail == "" {
		return nil
	}
	leadEmpty := opp.LeadID == nil || *opp.LeadID == ""
	customerSet := opp.CustomerID != nil && *opp.CustomerID != ""
	if !leadEmpty && !customerSet {
		return nil
	}

	from, leadID, err := s.leadSvc.EnsureLead(ctx, opp.ContactEmail, opp.LeadID, opp.CustomerID)
	if err != nil {
		return err
	}
	opp.EnquiryFrom = from
	opp.LeadID = &leadID
	return nil
}

// validateLostStatus blocks a transition into Lost while a submitted
// quotation line still references the opportunity.
func (s *OpportunityService) validateLostStatus(ctx context.Context, opp *domain.Opportunity) error {
	if opp.Status != domain.StatusLost {
		return nil
	}
	has, err := s.quotes.HasSubmittedItemFor(ctx, opp.ID)
	if err != nil {
		return fmt.Errorf("check submitted quotations: %w", err)
	}
	if has {
		return domain.NewValidationError("Cannot declare as lost, because Quotation has been made.")
	}
	return nil
}

// backfillItemDetails fills missing descriptive fields on each line from
// the item catalog. Populated fields and lines without an item code are
// left untouched.
func (s *OpportunityService) backfillItemDetails(ctx context.Context, opp *domain.Opportunity) error {
	for i := range opp.Items {
		line := &opp.Items[i]
		if line.ItemCode == "" {
			continue
		}
		item, err := s.items.GetFields(ctx, line.ItemCode)
		if err != nil {
			return fmt.Errorf("get item fields: %w", err)
		}
		if item == nil {
			continue
		}
		if line.ItemName == "" {
			line.ItemName = item.ItemName
		}
		if line.Description == "" {
			line.Description = item.Description
		}
		if line.ItemGroup == "" {
			line.ItemGroup = item.ItemGroup
		}
		if line.Brand == "" {
			line.Brand = item.Brand
		}
	}
	return nil
}

// validateLeadCustomer enforces that exactly one of lead/customer is set,
// consistent with the enquiry origin.
func (s *OpportunityService) validateLeadCustomer(opp *domain.Opportunity) error {
	switch opp.EnquiryFrom {
	case domain.EnquiryFromLead:
		if opp.LeadID == nil || *opp.LeadID == "" {
			return domain.NewValidationError("Lead must be set if Opportunity is made from Lead")
		}
		opp.CustomerID = nil
	case domain.EnquiryFromCustomer:
		if opp.CustomerID == nil || *opp.CustomerID == "" {
			return domain.NewValidationError("Customer is mandatory if 'Opportunity From' is selected as Customer")
		}
		opp.LeadID = nil
	}
	return nil
}

// deriveCustomerName refreshes the cached display name from whichever
// party is linked. The customer wins if both are somehow present.
func (s *OpportunityService) deriveCustomerName(ctx context.Context, opp *domain.Opportunity) error {
	if opp.CustomerID != nil && *opp.CustomerID != "" {
		customer, err := s.customers.Get(ctx, *opp.CustomerID)
		if err != nil {
			return err
		}
		opp.CustomerName = customer.CustomerName
		return nil
	}
	if opp.LeadID != nil && *opp.LeadID != "" {
		lead, err := s.leads.Get(ctx, *opp.LeadID)
		if err != nil {
			return err
		}
		opp.CustomerName = lead.LeadName
	}
	return nil
}

// DeclareLost marks the opportunity lost with a reason, bypassing the
// full validate pipeline. Blocked while a submitted quotation exists.
func (s *OpportunityService) DeclareLost(ctx context.Context, actorID, id, reason string) error {
	if _, err := s.opps.Get(ctx, id); err != nil {
		return err
	}
	has, err := s.quotes.HasSubmittedItemFor(ctx, id)
	if err != nil {
		return fmt.Errorf("check submitted quotations: %w", err)
	}
	if has {
		return domain.NewValidationError("Cannot declare as lost, because Quotation has been made.")
	}
	if err := s.opps.SetStatus(ctx, id, domain.StatusLost, &reason); err != nil {
		return fmt.Errorf("set status lost: %w", err)
	}
	s.logOpportunityAction(ctx, actorID, "declare_lost", id)
	if s.lostCounter != nil {
		s.lostCounter.Add(ctx, 1)
	}
	return nil
}

// HasQuotation reports whether a submitted quotation line references the
// opportunity.
func (s *OpportunityService) HasQuotation(ctx context.Context, id string) (bool, error) {
	return s.quotes.HasSubmittedItemFor(ctx, id)
}

// HasOrderedQuotation lists submitted quotations in Ordered status that
// trace back to the opportunity.
func (s *OpportunityService) HasOrderedQuotation(ctx context.Context, id string) ([]string, error) {
	return s.quotes.OrderedQuotationIDs(ctx, id)
}

// CustomerSnapshot returns the flattened customer + primary-contact view.
// Contact sub-fields default to empty strings when no primary contact is
// designated.
func (s *OpportunityService) CustomerSnapshot(ctx context.Context, customerID string) (*domain.CustomerSnapshot, error) {
	customer, err := s.customers.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}

	snapshot := &domain.CustomerSnapshot{
		CustomerName:  customer.CustomerName,
		Address:       customer.Address,
		Territory:     customer.Territory,
		CustomerGroup: customer.CustomerGroup,
	}

	contact, err := s.customers.PrimaryContact(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("get primary contact: %w", err)
	}
	if contact != nil {
		snapshot.ContactPerson = contact.ContactName
		snapshot.ContactNo = contact.ContactNo
		snapshot.EmailID = contact.EmailID
	}

	return snapshot, nil
}

// SetStatusForMany applies the status across the identifiers in input
// order, one full validate-and-save per record. Fail fast: the first
// failure stops processing; earlier updates are not rolled back.
func (s *OpportunityService) SetStatusForMany(ctx context.Context, actorID string, ids []string, status string) error {
	st := domain.OpportunityStatus(status)
	if !st.IsValid() {
		return domain.NewValidationError("invalid opportunity status %q", status)
	}

	for _, id := range ids {
		opp, err := s.opps.Get(ctx, id)
		if err != nil {
			return err
		}

		prev := &domain.PrevSnapshot{
			ContactDate: opp.ContactDate,
			ContactBy:   opp.ContactBy,
		}
		opp.Status = st

		if err := s.Validate(ctx, opp, prev); err != nil {
			return err
		}
		if err := s.opps.Update(ctx, opp); err != nil {
			return fmt.Errorf("repo update opportunity %s: %w", id, err)
		}
		s.logOpportunityAction(ctx, actorID, "set_status", id)
	}
	return nil
}

// Helpers

func mapItemRequests(items []domain.CreateOpportunityItemRequest) []domain.OpportunityItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]domain.OpportunityItem, len(items))
	for i, it := range items {
		out[i] = domain.OpportunityItem{
			ItemCode:    it.ItemCode,
			ItemName:    it.ItemName,
			Description: it.Description,
			ItemGroup:   it.ItemGroup,
			Brand:       it.Brand,
			UOM:         it.UOM,
			Qty:         it.Qty,
			Rate:        it.Rate,
		}
	}
	return out
}

func applyUpdate(opp *domain.Opportunity, req *domain.UpdateOpportunityRequest) {
	if req.EnquiryFrom != nil {
		opp.EnquiryFrom = *req.EnquiryFrom
	}
	if req.EnquiryType != nil {
		opp.EnquiryType = *req.EnquiryType
	}
	if req.LeadID != nil {
		opp.LeadID = req.LeadID
	}
	if req.CustomerID != nil {
		opp.CustomerID = req.CustomerID
	}
	if req.ContactEmail != nil {
		opp.ContactEmail = *req.ContactEmail
	}
	if req.ContactPerson != nil {
		opp.ContactPerson = *req.ContactPerson
	}
	if req.ContactDisplay != nil {
		opp.ContactDisplay = *req.ContactDisplay
	}
	if req.ContactBy != nil {
		opp.ContactBy = *req.ContactBy
	}
	if req.ContactDate != nil {
		opp.ContactDate = req.ContactDate
	}
	if req.ToDiscuss != nil {
		opp.ToDiscuss = *req.ToDiscuss
	}
	if req.Title != nil {
		opp.Title = *req.Title
	}
	if req.TransactionDate != nil {
		opp.TransactionDate = req.TransactionDate
	}
	if req.FiscalYear != nil {
		opp.FiscalYear = *req.FiscalYear
	}
	if req.Items != nil {
		opp.Items = mapItemRequests(*req.Items)
	}
}

// contactChanged reports whether the contact schedule moved since the
// previous save. A nil snapshot means a record that was never persisted.
func contactChanged(prev *domain.PrevSnapshot, opp *domain.Opportunity) bool {
	if prev == nil {
		return true
	}
	if prev.ContactBy != opp.ContactBy {
		return true
	}
	switch {
	case prev.ContactDate == nil && opp.ContactDate == nil:
		return false
	case prev.ContactDate == nil || opp.ContactDate == nil:
		return true
	default:
		return !prev.ContactDate.Equal(*opp.ContactDate)
	}
}

func (s *OpportunityService) logOpportunityAction(ctx context.Context, actorID, action, id string) {
	idStr := id
	if err := s.audit.LogAction(ctx, actorID, action, "opportunity", &idStr, nil); err != nil {
		s.log.Warn(ctx, "audit log write failed",
			logger.Module("opportunity"),
			logger.Action("audit"),
			zap.String("opportunity_id", id),
			zap.Error(err),
		)
	}
}
