package service

import (
	"context"

	"prospect-api/internal/domain"
)

// Store interfaces consumed by the services. The pgx implementations live
// in internal/repo; tests provide in-memory fakes.

type OpportunityStore interface {
	Get(ctx context.Context, id string) (*domain.Opportunity, error)
	Create(ctx context.Context, opp *domain.Opportunity) error
	Update(ctx context.Context, opp *domain.Opportunity) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, status *domain.OpportunityStatus, limit, offset int) ([]domain.Opportunity, error)
	// SetStatus writes status and lost reason directly, without running
	// the validate pipeline.
	SetStatus(ctx context.Context, id string, status domain.OpportunityStatus, lostReason *string) error
	ExistsForLead(ctx context.Context, leadID string) (bool, error)
}

type LeadStore interface {
	Get(ctx context.Context, id string) (*domain.Lead, error)
	// FindByEmail returns (nil, nil) when no lead carries the email.
	FindByEmail(ctx context.Context, email string) (*domain.Lead, error)
	Create(ctx context.Context, lead *domain.Lead) error
	SetStatus(ctx context.Context, id string, status domain.LeadStatus) error
}

type CustomerStore interface {
	// Get returns a NotFoundError for missing or cancelled customers.
	Get(ctx context.Context, id string) (*domain.Customer, error)
	// PrimaryContact returns (nil, nil) when the customer has no
	// designated primary contact.
	PrimaryContact(ctx context.Context, customerID string) (*domain.Contact, error)
}

type ItemStore interface {
	// GetFields returns (nil, nil) when the item code is unknown.
	GetFields(ctx context.Context, itemCode string) (*domain.Item, error)
}

type QuotationStore interface {
	Create(ctx context.Context, q *domain.Quotation) error
	// HasSubmittedItemFor reports whether any submitted quotation line
	// references the opportunity.
	HasSubmittedItemFor(ctx context.Context, opportunityID string) (bool, error)
	// OrderedQuotationIDs lists submitted quotations in Ordered status
	// tracing back to the opportunity through at least one line.
	OrderedQuotationIDs(ctx context.Context, opportunityID string) ([]string, error)
}

type EventStore interface {
	// Upsert creates or refreshes the single follow-up event for the
	// owning document. force always creates a new event.
	Upsert(ctx context.Context, ownerDoc string, fields domain.EventFields, force bool) (string, error)
	// DeleteForOwner is a no-op when no event exists.
	DeleteForOwner(ctx context.Context, ownerDoc string) error
}

type AuditStore interface {
	LogAction(ctx context.Context, actorID, action, resourceType string, resourceID *string, metadata map[string]interface{}) error
}
