package service

import (
	"math"
	"time"

	"prospect-api/internal/domain"
)

// StatusPolicy derives an opportunity's status from its current field
// state. The exact rule set is deployment configuration; the default
// below keeps terminal statuses and normalizes everything else.
type StatusPolicy func(opp *domain.Opportunity) domain.OpportunityStatus

// DefaultStatusPolicy keeps Lost/Closed sticky, preserves any other
// valid status, and falls back to Open.
func DefaultStatusPolicy(opp *domain.Opportunity) domain.OpportunityStatus {
	if opp.Status.IsTerminal() {
		return opp.Status
	}
	if opp.Status.IsValid() {
		return opp.Status
	}
	return domain.StatusOpen
}

// FiscalYearValidator checks a transaction date against a fiscal year
// label. Implementations are opaque to the entity code.
type FiscalYearValidator interface {
	Validate(date *time.Time, fiscalYear, label string) error
}

// CalendarYearPolicy treats the fiscal year label as a calendar year:
// when both date and label are present, the date's year must match.
type CalendarYearPolicy struct{}

func (CalendarYearPolicy) Validate(date *time.Time, fiscalYear, label string) error {
	if date == nil || fiscalYear == "" {
		return nil
	}
	if date.Format("2006") != fiscalYear {
		return domain.NewValidationError("%s %s is not within fiscal year %s",
			label, date.Format("2006-01-02"), fiscalYear)
	}
	return nil
}

// DisabledFiscalYearPolicy skips fiscal year checking entirely.
type DisabledFiscalYearPolicy struct{}

func (DisabledFiscalYearPolicy) Validate(*time.Time, string, string) error { return nil }

// UOMValidator verifies that quantities expressed in whole-number units
// are integral.
type UOMValidator interface {
	ValidateIntegerUOM(items []domain.OpportunityItem) error
}

// WholeNumberUOMs validates against a configured set of integer-only
// units of measure.
type WholeNumberUOMs struct {
	uoms map[string]struct{}
}

// NewWholeNumberUOMs builds the validator from the configured unit names.
func NewWholeNumberUOMs(uoms []string) *WholeNumberUOMs {
	set := make(map[string]struct{}, len(uoms))
	for _, u := range uoms {
		set[u] = struct{}{}
	}
	return &WholeNumberUOMs{uoms: set}
}

func (v *WholeNumberUOMs) ValidateIntegerUOM(items []domain.OpportunityItem) error {
	for _, it := range items {
		if _, ok := v.uoms[it.UOM]; !ok {
			continue
		}
		if it.Qty != math.Trunc(it.Qty) {
			return domain.NewValidationError(
				"Quantity cannot be a fraction for UOM %s (item %s)", it.UOM, it.ItemCode)
		}
	}
	return nil
}
