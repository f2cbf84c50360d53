package domain

import "time"

// CalendarEvent is a follow-up reminder tied to an owning opportunity.
// The synchronizer keeps at most one event per owner unless a fresh one
// is forced.
type CalendarEvent struct {
	ID          string     `json:"id"`
	OwnerDoc    string     `json:"ownerDoc"`
	Subject     string     `json:"subject"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// EventFields is the computed subject/description/date handed to the
// event upsert.
type EventFields struct {
	Subject     string
	Description string
	DueDate     *time.Time
}
