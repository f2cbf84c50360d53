package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// EnquiryFrom identifies the originating party of an opportunity
// (native PostgreSQL ENUM). Schema: public."EnquiryFrom" ('Lead', 'Customer')
type EnquiryFrom string

const (
	EnquiryFromLead     EnquiryFrom = "Lead"
	EnquiryFromCustomer EnquiryFrom = "Customer"
)

func (e EnquiryFrom) IsValid() bool {
	switch e {
	case EnquiryFromLead, EnquiryFromCustomer:
		return true
	}
	return false
}

func (e *EnquiryFrom) Scan(src interface{}) error {
	if src == nil {
		*e = ""
		return nil
	}
	var str string
	switch v := src.(type) {
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		return fmt.Errorf("cannot scan %T into EnquiryFrom", src)
	}
	*e = EnquiryFrom(str)
	return nil
}

func (e EnquiryFrom) Value() (driver.Value, error) {
	return string(e), nil
}

// OpportunityStatus is the workflow status of an opportunity.
// Lost is the only value set directly by this service; the rest come
// from the status derivation policy.
type OpportunityStatus string

const (
	StatusOpen      OpportunityStatus = "Open"
	StatusQuotation OpportunityStatus = "Quotation"
	StatusConverted OpportunityStatus = "Converted"
	StatusLost      OpportunityStatus = "Lost"
	StatusClosed    OpportunityStatus = "Closed"
)

func (s OpportunityStatus) IsValid() bool {
	switch s {
	case StatusOpen, StatusQuotation, StatusConverted, StatusLost, StatusClosed:
		return true
	}
	return false
}

// IsTerminal reports whether the status is final and must not be
// recomputed away by the derivation policy.
func (s OpportunityStatus) IsTerminal() bool {
	return s == StatusLost || s == StatusClosed
}

func (s *OpportunityStatus) Scan(src interface{}) error {
	if src == nil {
		*s = StatusOpen
		return nil
	}
	var str string
	switch v := src.(type) {
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		return fmt.Errorf("cannot scan %T into OpportunityStatus", src)
	}
	*s = OpportunityStatus(str)
	return nil
}

func (s OpportunityStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Opportunity is a tracked prospective sale linked to a lead or a customer.
type Opportunity struct {
	ID              string            `json:"id"`
	EnquiryFrom     EnquiryFrom       `json:"enquiryFrom"`
	EnquiryType     string            `json:"enquiryType"`
	LeadID          *string           `json:"leadId"`
	CustomerID      *string           `json:"customerId"`
	CustomerName    string            `json:"customerName"`
	ContactEmail    string            `json:"contactEmail"`
	ContactPerson   string            `json:"contactPerson"`
	ContactDisplay  string            `json:"contactDisplay"`
	ContactBy       string            `json:"contactBy"`
	ContactDate     *time.Time        `json:"contactDate"`
	ToDiscuss       string            `json:"toDiscuss"`
	Title           string            `json:"title"`
	Status          OpportunityStatus `json:"status"`
	OrderLostReason *string           `json:"orderLostReason"`
	TransactionDate *time.Time        `json:"transactionDate"`
	FiscalYear      string            `json:"fiscalYear"`
	Items           []OpportunityItem `json:"items"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// OpportunityItem is one enquired line, carrying denormalized copies of
// the catalog item's descriptive fields.
type OpportunityItem struct {
	ID          string  `json:"id"`
	ItemCode    string  `json:"itemCode"`
	ItemName    string  `json:"itemName"`
	Description string  `json:"description"`
	ItemGroup   string  `json:"itemGroup"`
	Brand       string  `json:"brand"`
	UOM         string  `json:"uom"`
	Qty         float64 `json:"qty"`
	Rate        float64 `json:"rate"`
}

// PrevSnapshot carries the previously persisted contact fields into the
// validate pass. Nil for records that have never been saved.
type PrevSnapshot struct {
	ContactDate *time.Time
	ContactBy   string
}

// CustomerSnapshot is the flattened customer + primary-contact view
// returned by the customer lookup operation.
type CustomerSnapshot struct {
	CustomerName  string `json:"customerName"`
	Address       string `json:"address"`
	Territory     string `json:"territory"`
	CustomerGroup string `json:"customerGroup"`
	ContactPerson string `json:"contactPerson"`
	ContactNo     string `json:"contactNo"`
	EmailID       string `json:"emailId"`
}

// CreateOpportunityRequest is the DTO for opportunity creation.
type CreateOpportunityRequest struct {
	EnquiryFrom     EnquiryFrom                    `json:"enquiryFrom"`
	EnquiryType     string                         `json:"enquiryType"`
	LeadID          *string                        `json:"leadId"`
	CustomerID      *string                        `json:"customerId"`
	ContactEmail    string                         `json:"contactEmail" validate:"omitempty,email"`
	ContactPerson   string                         `json:"contactPerson"`
	ContactDisplay  string                         `json:"contactDisplay"`
	ContactBy       string                         `json:"contactBy"`
	ContactDate     *time.Time                     `json:"contactDate"`
	ToDiscuss       string                         `json:"toDiscuss"`
	Title           string                         `json:"title"`
	TransactionDate *time.Time                     `json:"transactionDate"`
	FiscalYear      string                         `json:"fiscalYear"`
	Items           []CreateOpportunityItemRequest `json:"items" validate:"dive"`
}

// CreateOpportunityItemRequest is one requested line item.
type CreateOpportunityItemRequest struct {
	ItemCode    string  `json:"itemCode"`
	ItemName    string  `json:"itemName"`
	Description string  `json:"description"`
	ItemGroup   string  `json:"itemGroup"`
	Brand       string  `json:"brand"`
	UOM         string  `json:"uom"`
	Qty         float64 `json:"qty" validate:"gte=0"`
	Rate        float64 `json:"rate" validate:"gte=0"`
}

// Validate sanitizes and validates the create request.
func (r *CreateOpportunityRequest) Validate() error {
	r.ContactEmail = strings.TrimSpace(r.ContactEmail)
	r.Title = strings.TrimSpace(r.Title)

	validate := validator.New()
	return validate.Struct(r)
}

// UpdateOpportunityRequest is the DTO for partial updates. Nil fields
// are left untouched.
type UpdateOpportunityRequest struct {
	EnquiryFrom     *EnquiryFrom                    `json:"enquiryFrom"`
	EnquiryType     *string                         `json:"enquiryType"`
	LeadID          *string                         `json:"leadId"`
	CustomerID      *string                         `json:"customerId"`
	ContactEmail    *string                         `json:"contactEmail" validate:"omitempty,email"`
	ContactPerson   *string                         `json:"contactPerson"`
	ContactDisplay  *string                         `json:"contactDisplay"`
	ContactBy       *string                         `json:"contactBy"`
	ContactDate     *time.Time                      `json:"contactDate"`
	ToDiscuss       *string                         `json:"toDiscuss"`
	Title           *string                         `json:"title"`
	TransactionDate *time.Time                      `json:"transactionDate"`
	FiscalYear      *string                         `json:"fiscalYear"`
	Items           *[]CreateOpportunityItemRequest `json:"items" validate:"omitempty,dive"`
}

// Validate sanitizes and validates the update request.
func (r *UpdateOpportunityRequest) Validate() error {
	if r.ContactEmail != nil {
		trimmed := strings.TrimSpace(*r.ContactEmail)
		r.ContactEmail = &trimmed
	}
	if r.Title != nil {
		trimmed := strings.TrimSpace(*r.Title)
		r.Title = &trimmed
	}

	validate := validator.New()
	return validate.Struct(r)
}

// DeclareLostRequest carries the reason for losing an opportunity.
type DeclareLostRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// Validate validates the declare-lost request.
func (r *DeclareLostRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)

	validate := validator.New()
	return validate.Struct(r)
}

// SetStatusRequest is the bulk status update payload. Names arrive as a
// pre-serialized JSON array of identifiers.
type SetStatusRequest struct {
	Names  string `json:"names" validate:"required"`
	Status string `json:"status" validate:"required"`
}

// Validate validates the bulk status update request.
func (r *SetStatusRequest) Validate() error {
	r.Status = strings.TrimSpace(r.Status)

	validate := validator.New()
	return validate.Struct(r)
}
