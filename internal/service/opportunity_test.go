package service

import (
	"context"
	"testing"
	"time"

	"prospect-api/internal/domain"
	"prospect-api/internal/observability/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory fakes for the store interfaces.

type fakeOpps struct {
	byID map[string]*domain.Opportunity
}

func newFakeOpps() *fakeOpps {
	return &fakeOpps{byID: make(map[string]*domain.Opportunity)}
}

func (f *fakeOpps) Get(ctx context.Context, id string) (*domain.Opportunity, error) {
	o, ok := f.byID[id]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "Opportunity", ID: id}
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOpps) Create(ctx context.Context, opp *domain.Opportunity) error {
	cp := *opp
	f.byID[opp.ID] = &cp
	return nil
}

func (f *fakeOpps) Update(ctx context.Context, opp *domain.Opportunity) error {
	if _, ok := f.byID[opp.ID]; !ok {
		return &domain.NotFoundError{Kind: "Opportunity", ID: opp.ID}
	}
	cp := *opp
	f.byID[opp.ID] = &cp
	return nil
}

func (f *fakeOpps) Delete(ctx context.Context, id string) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeOpps) List(ctx context.Context, status *domain.OpportunityStatus, limit, offset int) ([]domain.Opportunity, error) {
	out := make([]domain.Opportunity, 0, len(f.byID))
	for _, o := range f.byID {
		if status != nil && o.Status != *status {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeOpps) SetStatus(ctx context.Context, id string, status domain.OpportunityStatus, lostReason *string) error {
	o, ok := f.byID[id]
	if !ok {
		return &domain.NotFoundError{Kind: "Opportunity", ID: id}
	}
	o.Status = status
	o.OrderLostReason = lostReason
	return nil
}

func (f *fakeOpps) ExistsForLead(ctx context.Context, leadID string) (bool, error) {
	for _, o := range f.byID {
		if o.LeadID != nil && *o.LeadID == leadID {
			return true, nil
		}
	}
	return false, nil
}

type fakeLeads struct {
	byID        map[string]*domain.Lead
	created     []*domain.Lead
	statusCalls map[string]domain.LeadStatus
}

func newFakeLeads() *fakeLeads {
	return &fakeLeads{
		byID:        make(map[string]*domain.Lead),
		statusCalls: make(map[string]domain.LeadStatus),
	}
}

func (f *fakeLeads) Get(ctx context.Context, id string) (*domain.Lead, error) {
	l, ok := f.byID[id]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "Lead", ID: id}
	}
	cp := *l
	return &cp, nil
}

func (f *fakeLeads) FindByEmail(ctx context.Context, email string) (*domain.Lead, error) {
	for _, l := range f.byID {
		if l.EmailID == email {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeLeads) Create(ctx context.Context, lead *domain.Lead) error {
	cp := *lead
	f.byID[lead.ID] = &cp
	snap := *lead
	f.created = append(f.created, &snap)
	return nil
}

func (f *fakeLeads) SetStatus(ctx context.Context, id string, status domain.LeadStatus) error {
	l, ok := f.byID[id]
	if !ok {
		return &domain.NotFoundError{Kind: "Lead", ID: id}
	}
	l.Status = status
	f.statusCalls[id] = status
	return nil
}

type fakeCustomers struct {
	byID     map[string]*domain.Customer
	contacts map[string]*domain.Contact
}

func newFakeCustomers() *fakeCustomers {
	return &fakeCustomers{
		byID:     make(map[string]*domain.Customer),
		contacts: make(map[string]*domain.Contact),
	}
}

func (f *fakeCustomers) Get(ctx context.Context, id string) (*domain.Customer, error) {
	c, ok := f.byID[id]
	if !ok || c.Cancelled {
		return nil, &domain.NotFoundError{Kind: "Customer", ID: id}
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCustomers) PrimaryContact(ctx context.Context, customerID string) (*domain.Contact, error) {
	c, ok := f.contacts[customerID]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

type fakeItems struct {
	byCode map[string]*domain.Item
}

func newFakeItems() *fakeItems {
	return &fakeItems{byCode: make(map[string]*domain.Item)}
}

func (f *fakeItems) GetFields(ctx context.Context, itemCode string) (*domain.Item, error) {
	it, ok := f.byCode[itemCode]
	if !ok {
		return nil, nil
	}
	cp := *it
	return &cp, nil
}

type fakeQuotes struct {
	created      []*domain.Quotation
	submittedFor map[string]bool
	orderedFor   map[string][]string
}

func newFakeQuotes() *fakeQuotes {
	return &fakeQuotes{
		submittedFor: make(map[string]bool),
		orderedFor:   make(map[string][]string),
	}
}

func (f *fakeQuotes) Create(ctx context.Context, q *domain.Quotation) error {
	cp := *q
	f.created = append(f.created, &cp)
	return nil
}

func (f *fakeQuotes) HasSubmittedItemFor(ctx context.Context, opportunityID string) (bool, error) {
	return f.submittedFor[opportunityID], nil
}

func (f *fakeQuotes) OrderedQuotationIDs(ctx context.Context, opportunityID string) ([]string, error) {
	return f.orderedFor[opportunityID], nil
}

type eventUpsert struct {
	ownerDoc string
	fields   domain.EventFields
	force    bool
}

type fakeEvents struct {
	upserts []eventUpsert
	deleted []string
}

func (f *fakeEvents) Upsert(ctx context.Context, ownerDoc string, fields domain.EventFields, force bool) (string, error) {
	f.upserts = append(f.upserts, eventUpsert{ownerDoc: ownerDoc, fields: fields, force: force})
	return "EV-test", nil
}

func (f *fakeEvents) DeleteForOwner(ctx context.Context, ownerDoc string) error {
	f.deleted = append(f.deleted, ownerDoc)
	return nil
}

type auditEntry struct {
	actorID      string
	action       string
	resourceType string
	resourceID   *string
}

type fakeAudit struct {
	entries []auditEntry
}

func (f *fakeAudit) LogAction(ctx context.Context, actorID, action, resourceType string, resourceID *string, metadata map[string]interface{}) error {
	f.entries = append(f.entries, auditEntry{actorID: actorID, action: action, resourceType: resourceType, resourceID: resourceID})
	return nil
}

// testEnv bundles the service with its fakes for inspection.
type testEnv struct {
	svc       *OpportunityService
	opps      *fakeOpps
	leads     *fakeLeads
	customers *fakeCustomers
	items     *fakeItems
	quotes    *fakeQuotes
	events    *fakeEvents
	audit     *fakeAudit
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log, err := logger.New("test", "error")
	require.NoError(t, err)

	env := &testEnv{
		opps:      newFakeOpps(),
		leads:     newFakeLeads(),
		customers: newFakeCustomers(),
		items:     newFakeItems(),
		quotes:    newFakeQuotes(),
		events:    &fakeEvents{},
		audit:     &fakeAudit{},
	}
	leadSvc := NewLeadService(env.leads, env.opps, log, nil)
	env.svc = NewOpportunityService(OpportunityServiceDeps{
		Opportunities: env.opps,
		Leads:         env.leads,
		Customers:     env.customers,
		Items:         env.items,
		Quotations:    env.quotes,
		Events:        env.events,
		LeadService:   leadSvc,
		Audit:         env.audit,
		Log:           log,
		UOM:           NewWholeNumberUOMs([]string{"Nos", "Unit"}),
	})
	return env
}

func strPtr(s string) *string { return &s }

func (e *testEnv) seedCustomer(id, name string) {
	e.customers.byID[id] = &domain.Customer{ID: id, CustomerName: name}
}

func (e *testEnv) seedLead(id, name, email string) {
	e.leads.byID[id] = &domain.Lead{ID: id, LeadName: name, EmailID: email, Status: domain.LeadStatusOpen}
}

func (e *testEnv) seedOpportunity(opp *domain.Opportunity) {
	cp := *opp
	e.opps.byID[opp.ID] = &cp
}

func TestCreateOpportunity_FromCustomer(t *testing.T) {
	env := newTestEnv(t)
	env.seedCustomer("CUST-1", "Acme Corp")

	opp, err := env.svc.Create(context.Background(), "user-1", &domain.CreateOpportunityRequest{
		EnquiryFrom: domain.EnquiryFromCustomer,
		EnquiryType: "Sales",
		CustomerID:  strPtr("CUST-1"),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusOpen, opp.Status)
	assert.Equal(t, "Acme Corp", opp.CustomerName, "display name must come from the customer record")
	assert.Equal(t, "Acme Corp", opp.Title, "empty title falls back to the customer name")
	assert.Nil(t, opp.LeadID)
	require.Len(t, env.audit.entries, 1)
	assert.Equal(t, "create", env.audit.entries[0].action)
	assert.Equal(t, "user-1", env.audit.entries[0].actorID)
}

func TestCreateOpportunity_FromLead(t *testing.T) {
	env := newTestEnv(t)
	env.seedLead("LEAD-1", "Jane Prospect", "jane@example.com")

	opp, err := env.svc.Create(context.Background(), "user-1", &domain.CreateOpportunityRequest{
		EnquiryFrom: domain.EnquiryFromLead,
		LeadID:      strPtr("LEAD-1"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Jane Prospect", opp.CustomerName, "display name must come from the lead record")
	assert.Nil(t, opp.CustomerID)
	assert.Equal(t, domain.LeadStatusOpportunity, env.leads.statusCalls["LEAD-1"],
		"linked lead must move to Opportunity status")
}

func TestCreateOpportunity_EnquiryFromMandatory(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Create(context.Background(), "user-1", &domain.CreateOpportunityRequest{})
	require.Error(t, err)
	assert.EqualError(t, err, "Opportunity From field is mandatory")
}

func TestCreateOpportunity_LeadMandatoryForLeadSource(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Create(context.Background(), "user-1", &domain.CreateOpportunityRequest{
		EnquiryFrom: domain.EnquiryFromLead,
	})
	require.Error(t, err)
	assert.EqualError(t, err, "Lead must be set if Opportunity is made from Lead")
}

func TestCreateOpportunity_CustomerMandatoryForCustomerSource(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Create(context.Background(), "user-1", &domain.CreateOpportunityRequest{
		EnquiryFrom: domain.EnquiryFromCustomer,
	})
	require.Error(t, err)
	assert.EqualError(t, err, "Customer is mandatory if 'Opportunity From' is selected as Customer")
}

func TestCreateOpportunity_LeadSourceClearsCustomer(t *testing.T) {
	env := newTestEnv(t)
	env.seedLead("LEAD-1", "Jane Prospect", "jane@example.com")
	env.seedCustomer("CUST-1", "Acme Corp")

	opp, err := env.svc.Create(context.Background(), "user-1", &domain.CreateOpportunityRequest{
		EnquiryFrom: domain.EnquiryFromLead,
		LeadID:      strPtr("LEAD-1"),
		CustomerID:  strPtr("CUST-1"),
	})
	require.NoError(t, err)
	assert.Nil(t, opp.CustomerID, "lead-sourced opportunities must not keep a customer link")
	require.NotNil(t, opp.LeadID)
	assert.Equal(t, "LEAD-1", *opp.LeadID)
}

func TestCreateOpportunity_AutoCreatesLeadFromEmail(t *testing.T) {
	env := newTestEnv(t)

	opp, err := env.svc.Create(context.Background(), "user-1", &domain.CreateOpportunityRequest{
		ContactEmail: "new@example.com",
	})
	require.NoError(t, err)

	require.Len(t, env.leads.created, 1)
	created := env.leads.created[0]
	assert.Equal(t, "new@example.com", created.LeadName)
	assert.Equal(t, "new@example.com", created.EmailID)
	assert.Equal(t, domain.LeadStatusOpen, created.Status)

	assert.Equal(t, domain.EnquiryFromLead, opp.EnquiryFrom)
	require.NotNil(t, opp.LeadID)
	assert.Equal(t, created.ID, *opp.LeadID)
}

func TestCreateOpportunity_ReusesLeadForSameEmail(t *testing.T) {
	env := newTestEnv(t)

	first, err := env.svc.Create(context.Background(), "user-1", &domain.CreateOpportunityRequest{
		ContactEmail: "repeat@example.com",
	})
	require.NoError(t, err)

	second, err := env.svc.Create(context.Background(), "user-1", &domain.CreateOpportunityRequest{
		ContactEmail: "repeat@example.com",
	})
	require.NoError(t, err)

	assert.Len(t, env.leads.created, 1, "same email must resolve to the lead created first")
	assert.Equal(t, *first.LeadID, *second.LeadID)
}

func TestCreateOpportunity_BackfillsItemDetails(t *testing.T) {
	env := newTestEnv(t)
	env.seedCustomer("CUST-1", "Acme Corp")
	env.items.byCode["WIDGET"] = &domain.Item{
		ItemCode:    "WIDGET",
		ItemName:    "Widget",
		Description: "A widget",
		ItemGroup:   "Hardware",
		Brand:       "Acme",
	}

	opp, err := env.svc.Create(context.Background(), "user-1", &domain.CreateOpportunityRequest{
		EnquiryFrom: domain.EnquiryFromCustomer,
		CustomerID:  strPtr("CUST-1"),
		Items: []domain.CreateOpportunityItemRequest{
			{ItemCode: "WIDGET", Qty: 2, Rate: 10},
			{ItemCode: "WIDGET", ItemName: "Custom name", Qty: 1, Rate: 5},
			{ItemCode: "UNKNOWN", Qty: 1, Rate: 1},
		},
	})
	require.NoError(t, err)
	require.Len(t, opp.Items, 3)

	assert.Equal(t, "Widget", opp.Items[0].ItemName)
	assert.Equal(t, "A widget", opp.Items[0].Description)
	assert.Equal(t, "Hardware", opp.Items[0].ItemGroup)
	assert.Equal(t, "Acme", opp.Items[0].Brand)

	assert.Equal(t, "Custom name", opp.Items[1].ItemName, "caller-provided fields must not be overwritten")
	assert.Equal(t, "A widget", opp.Items[1].Description)

	assert.Empty(t, opp.Items[2].ItemName, "unknown item codes are left untouched")
}

func TestCreateOpportunity_FractionalQtyForWholeUnitRejected(t *testing.T) {
	env := newTestEnv(t)
	env.seedCustomer("CUST-1", "Acme Corp")

	_, err := env.svc.Create(context.Background(), "user-1", &domain.CreateOpportunityRequest{
		EnquiryFrom: domain.EnquiryFromCustomer,
		CustomerID:  strPtr("CUST-1"),
		Items: []domain.CreateOpportunityItemRequest{
			{ItemCode: "WIDGET", UOM: "Nos", Qty: 1.5, Rate: 10},
		},
	})
	require.Error(t, err)
	assert.EqualError(t, err, "Quantity cannot be a fraction for UOM Nos (item WIDGET)")
}

func TestCreateOpportunity_FiscalYearMismatch(t *testing.T) {
	env := newTestEnv(t)
	env.seedCustomer("CUST-1", "Acme Corp")
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	_, err := env.svc.Create(context.Background(), "user-1", &domain.CreateOpportunityRequest{
		EnquiryFrom:     domain.EnquiryFromCustomer,
		CustomerID:      strPtr("CUST-1"),
		TransactionDate: &date,
		FiscalYear:      "2024",
	})
	require.Error(t, err)
	assert.EqualError(t, err, "Opportunity Date 2025-06-01 is not within fiscal year 2024")

	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestCreateOpportunity_SeedsFollowupEvent(t *testing.T) {
	env := newTestEnv(t)
	env.seedCustomer("CUST-1", "Acme Corp")
	due := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	opp, err := env.svc.Create(context.Background(), "user-1", &domain.CreateOpportunityRequest{
		EnquiryFrom:   domain.EnquiryFromCustomer,
		CustomerID:    strPtr("CUST-1"),
		ContactPerson: "John Buyer",
		ContactBy:     "sales@acme.example",
		ContactDate:   &due,
	})
	require.NoError(t, err)

	require.Len(t, env.events.upserts, 1)
	up := env.events.upserts[0]
	assert.Equal(t, opp.ID, up.ownerDoc)
	assert.False(t, up.force)
	assert.Equal(t, "Contact John Buyer", up.fields.Subject)
	require.NotNil(t, up.fields.DueDate)
	assert.True(t, up.fields.DueDate.Equal(due))
}

func TestUpdateOpportunity_RefreshesEventOnContactChange(t *testing.T) {
	env := newTestEnv(t)
	env.seedCustomer("CUST-1", "Acme Corp")

	opp, err := env.svc.Create(context.Background(), "user-1", &domain.CreateOpportunityRequest{
		EnquiryFrom: domain.EnquiryFromCustomer,
		CustomerID:  strPtr("CUST-1"),
		ContactBy:   "alice@acme.example",
	})
	require.NoError(t, err)
	require.Len(t, env.events.upserts, 1)

	// A non-contact change must not touch the event.
	_, err = env.svc.Update(context.Background(), "user-1", opp.ID, &domain.UpdateOpportunityRequest{
		Title: strPtr("Renamed"),
	})
	require.NoError(t, err)
	assert.Len(t, env.events.upserts, 1)

	// Moving the contact schedule refreshes it.
	newDate := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	_, err = env.svc.Update(context.Background(), "user-1", opp.ID, &domain.UpdateOpportunityRequest{
		ContactDate: &newDate,
	})
	require.NoError(t, err)
	assert.Len(t, env.events.upserts, 2)
}

func TestDeleteOpportunity_RemovesFollowupEvents(t *testing.T) {
	env := newTestEnv(t)
	env.seedCustomer("CUST-1", "Acme Corp")

	opp, err := env.svc.Create(context.Background(), "user-1", &domain.CreateOpportunityRequest{
		EnquiryFrom: domain.EnquiryFromCustomer,
		CustomerID:  strPtr("CUST-1"),
	})
	require.NoError(t, err)

	require.NoError(t, env.svc.Delete(context.Background(), "user-1", opp.ID))
	assert.Equal(t, []string{opp.ID}, env.events.deleted)

	_, err = env.svc.Get(context.Background(), opp.ID)
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestDeclareLost(t *testing.T) {
	t.Run("SetsStatusAndReason", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedOpportunity(&domain.Opportunity{ID: "OPP-1", Status: domain.StatusOpen})

		err := env.svc.DeclareLost(context.Background(), "user-1", "OPP-1", "Price too high")
		require.NoError(t, err)

		got, err := env.svc.Get(context.Background(), "OPP-1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusLost, got.Status)
		require.NotNil(t, got.OrderLostReason)
		assert.Equal(t, "Price too high", *got.OrderLostReason)
	})

	t.Run("BlockedBySubmittedQuotation", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedOpportunity(&domain.Opportunity{ID: "OPP-1", Status: domain.StatusQuotation})
		env.quotes.submittedFor["OPP-1"] = true

		err := env.svc.DeclareLost(context.Background(), "user-1", "OPP-1", "whatever")
		require.Error(t, err)
		assert.EqualError(t, err, "Cannot declare as lost, because Quotation has been made.")

		got, err := env.svc.Get(context.Background(), "OPP-1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusQuotation, got.Status, "a blocked transition must not change the record")
	})

	t.Run("UnknownOpportunity", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.svc.DeclareLost(context.Background(), "user-1", "OPP-missing", "reason")
		var nf *domain.NotFoundError
		assert.ErrorAs(t, err, &nf)
	})
}

func TestSetStatusForMany(t *testing.T) {
	t.Run("UpdatesInOrder", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedCustomer("CUST-1", "Acme Corp")
		for _, id := range []string{"OPP-1", "OPP-2"} {
			env.seedOpportunity(&domain.Opportunity{
				ID:          id,
				EnquiryFrom: domain.EnquiryFromCustomer,
				CustomerID:  strPtr("CUST-1"),
				Status:      domain.StatusOpen,
			})
		}

		err := env.svc.SetStatusForMany(context.Background(), "user-1", []string{"OPP-1", "OPP-2"}, "Closed")
		require.NoError(t, err)

		for _, id := range []string{"OPP-1", "OPP-2"} {
			got, err := env.svc.Get(context.Background(), id)
			require.NoError(t, err)
			assert.Equal(t, domain.StatusClosed, got.Status)
		}
	})

	t.Run("InvalidStatus", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.svc.SetStatusForMany(context.Background(), "user-1", []string{"OPP-1"}, "Bogus")
		require.Error(t, err)
		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("FailFastWithoutRollback", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedCustomer("CUST-1", "Acme Corp")
		for _, id := range []string{"OPP-1", "OPP-3"} {
			env.seedOpportunity(&domain.Opportunity{
				ID:          id,
				EnquiryFrom: domain.EnquiryFromCustomer,
				CustomerID:  strPtr("CUST-1"),
				Status:      domain.StatusOpen,
			})
		}

		err := env.svc.SetStatusForMany(context.Background(), "user-1", []string{"OPP-1", "OPP-missing", "OPP-3"}, "Closed")
		require.Error(t, err)

		first, err := env.svc.Get(context.Background(), "OPP-1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusClosed, first.Status, "updates before the failure stay applied")

		last, err := env.svc.Get(context.Background(), "OPP-3")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusOpen, last.Status, "records after the failure are not processed")
	})

	t.Run("LostBlockedBySubmittedQuotation", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedCustomer("CUST-1", "Acme Corp")
		env.seedOpportunity(&domain.Opportunity{
			ID:          "OPP-1",
			EnquiryFrom: domain.EnquiryFromCustomer,
			CustomerID:  strPtr("CUST-1"),
			Status:      domain.StatusOpen,
		})
		env.quotes.submittedFor["OPP-1"] = true

		err := env.svc.SetStatusForMany(context.Background(), "user-1", []string{"OPP-1"}, "Lost")
		require.Error(t, err)
		assert.EqualError(t, err, "Cannot declare as lost, because Quotation has been made.")
	})
}

func TestConvertToQuotation(t *testing.T) {
	seed := func(env *testEnv) *domain.Opportunity {
		env.seedCustomer("CUST-1", "Acme Corp")
		opp := &domain.Opportunity{
			ID:           "OPP-1",
			EnquiryFrom:  domain.EnquiryFromCustomer,
			EnquiryType:  "Sales",
			CustomerID:   strPtr("CUST-1"),
			CustomerName: "Acme Corp",
			Status:       domain.StatusOpen,
			Items: []domain.OpportunityItem{
				{ItemCode: "WIDGET", ItemName: "Widget", UOM: "Nos", Qty: 2, Rate: 100},
				{ItemCode: "GADGET", ItemName: "Gadget", UOM: "Box", Qty: 1, Rate: 50},
			},
		}
		env.seedOpportunity(opp)
		return opp
	}

	t.Run("MapsFieldsAndLines", func(t *testing.T) {
		env := newTestEnv(t)
		seed(env)

		q, err := env.svc.ConvertToQuotation(context.Background(), "user-1", "OPP-1", nil)
		require.NoError(t, err)

		assert.Equal(t, "Customer", q.QuotationTo)
		assert.Equal(t, "Sales", q.OrderType)
		assert.Equal(t, "OPP-1", q.EnqNo, "the source identifier is kept as the back-reference")
		assert.Equal(t, "Acme Corp", q.CustomerName)
		assert.Equal(t, domain.QuotationStatusDraft, q.Status)
		assert.Equal(t, "USD", q.Currency)

		require.Len(t, q.Items, 2)
		assert.Equal(t, "WIDGET", q.Items[0].ItemCode)
		assert.Equal(t, "Nos", q.Items[0].StockUOM)
		assert.Equal(t, "OPP-1", q.Items[0].PrevdocDocname)
		assert.Equal(t, "Opportunity", q.Items[0].PrevdocDoctype)
		assert.Equal(t, 200.0, q.Items[0].Amount)

		assert.Equal(t, 250.0, q.NetTotal)
		assert.Equal(t, 250.0, q.GrandTotal)
	})

	t.Run("SourceStaysUntouched", func(t *testing.T) {
		env := newTestEnv(t)
		seed(env)

		_, err := env.svc.ConvertToQuotation(context.Background(), "user-1", "OPP-1", nil)
		require.NoError(t, err)

		got, err := env.svc.Get(context.Background(), "OPP-1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusOpen, got.Status)
		assert.Len(t, got.Items, 2)
	})

	t.Run("OverridesWin", func(t *testing.T) {
		env := newTestEnv(t)
		seed(env)

		q, err := env.svc.ConvertToQuotation(context.Background(), "user-1", "OPP-1", &domain.QuotationOverrides{
			OrderType:    strPtr("Maintenance"),
			CustomerName: strPtr("Acme Corp EU"),
			Items: []domain.CreateOpportunityItemRequest{
				{ItemCode: "SERVICE", UOM: "Unit", Qty: 3, Rate: 10},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, "Maintenance", q.OrderType)
		assert.Equal(t, "Acme Corp EU", q.CustomerName)
		require.Len(t, q.Items, 1)
		assert.Equal(t, "SERVICE", q.Items[0].ItemCode)
		assert.Equal(t, "OPP-1", q.Items[0].PrevdocDocname, "override lines still reference the source")
		assert.Equal(t, 30.0, q.NetTotal)
	})

	t.Run("NoLinesMapsToEmptyQuotation", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedCustomer("CUST-1", "Acme Corp")
		env.seedOpportunity(&domain.Opportunity{
			ID:          "OPP-2",
			EnquiryFrom: domain.EnquiryFromCustomer,
			CustomerID:  strPtr("CUST-1"),
			Status:      domain.StatusOpen,
		})

		q, err := env.svc.ConvertToQuotation(context.Background(), "user-1", "OPP-2", nil)
		require.NoError(t, err)
		assert.Empty(t, q.Items)
		assert.Zero(t, q.NetTotal)
		assert.Zero(t, q.GrandTotal)
	})
}

func TestCustomerSnapshot(t *testing.T) {
	t.Run("WithPrimaryContact", func(t *testing.T) {
		env := newTestEnv(t)
		env.customers.byID["CUST-1"] = &domain.Customer{
			ID:            "CUST-1",
			CustomerName:  "Acme Corp",
			Address:       "1 Main St",
			Territory:     "EMEA",
			CustomerGroup: "Enterprise",
		}
		env.customers.contacts["CUST-1"] = &domain.Contact{
			ContactName: "John Buyer",
			ContactNo:   "+1 555 0100",
			EmailID:     "john@acme.example",
		}

		snap, err := env.svc.CustomerSnapshot(context.Background(), "CUST-1")
		require.NoError(t, err)
		assert.Equal(t, "Acme Corp", snap.CustomerName)
		assert.Equal(t, "EMEA", snap.Territory)
		assert.Equal(t, "John Buyer", snap.ContactPerson)
		assert.Equal(t, "john@acme.example", snap.EmailID)
	})

	t.Run("WithoutPrimaryContact", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedCustomer("CUST-1", "Acme Corp")

		snap, err := env.svc.CustomerSnapshot(context.Background(), "CUST-1")
		require.NoError(t, err)
		assert.Equal(t, "Acme Corp", snap.CustomerName)
		assert.Empty(t, snap.ContactPerson)
		assert.Empty(t, snap.ContactNo)
		assert.Empty(t, snap.EmailID)
	})

	t.Run("UnknownCustomer", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.svc.CustomerSnapshot(context.Background(), "CUST-missing")
		var nf *domain.NotFoundError
		assert.ErrorAs(t, err, &nf)
	})
}

func TestItemDetails(t *testing.T) {
	t.Run("KnownItem", func(t *testing.T) {
		env := newTestEnv(t)
		env.items.byCode["WIDGET"] = &domain.Item{
			ItemCode: "WIDGET",
			ItemName: "Widget",
			StockUOM: "Nos",
			Image:    "/files/widget.png",
		}

		details, err := env.svc.ItemDetails(context.Background(), "WIDGET")
		require.NoError(t, err)
		assert.Equal(t, "Widget", details.ItemName)
		assert.Equal(t, "Nos", details.UOM)
		assert.Equal(t, "/files/widget.png", details.Image)
	})

	t.Run("UnknownItemReturnsEmptyFields", func(t *testing.T) {
		env := newTestEnv(t)

		details, err := env.svc.ItemDetails(context.Background(), "NOPE")
		require.NoError(t, err)
		assert.Equal(t, &domain.ItemDetails{}, details)
	})
}

func TestHasOrderedQuotation(t *testing.T) {
	env := newTestEnv(t)
	env.quotes.orderedFor["OPP-1"] = []string{"QTN-1", "QTN-2"}

	ids, err := env.svc.HasOrderedQuotation(context.Background(), "OPP-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"QTN-1", "QTN-2"}, ids)

	ids, err = env.svc.HasOrderedQuotation(context.Background(), "OPP-other")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
