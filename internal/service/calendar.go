package service

import (
	"context"
	"fmt"

	"prospect-api/internal/domain"
)

// followupFields builds the subject, description and due date for the
// follow-up reminder of an opportunity. The wording is part of the
// contract with downstream calendar consumers.
func followupFields(opp *domain.Opportunity) domain.EventFields {
	description := ""
	if opp.CustomerID != nil && *opp.CustomerID != "" {
		if opp.ContactPerson != "" {
			description = "Contact " + opp.ContactPerson
		} else {
			description = "Contact customer " + *opp.CustomerID
		}
	} else if opp.LeadID != nil && *opp.LeadID != "" {
		if opp.ContactDisplay != "" {
			description = "Contact " + opp.ContactDisplay
		} else {
			description = "Contact lead " + *opp.LeadID
		}
	}

	subject := description
	description += ". By : " + opp.ContactBy
	if opp.ToDiscuss != "" {
		description += " To Discuss : " + opp.ToDiscuss
	}

	return domain.EventFields{
		Subject:     subject,
		Description: description,
		DueDate:     opp.ContactDate,
	}
}

// syncFollowupEvent creates or refreshes the single follow-up event tied
// to the opportunity. force always creates a fresh reminder.
func (s *OpportunityService) syncFollowupEvent(ctx context.Context, opp *domain.Opportunity, force bool) error {
	fields := followupFields(opp)
	if _, err := s.events.Upsert(ctx, opp.ID, fields, force); err != nil {
		return fmt.Errorf("upsert followup event: %w", err)
	}
	return nil
}
