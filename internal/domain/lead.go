package domain

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// LeadStatus is the aggregate status of a lead, recomputed whenever a
// linked opportunity is created.
type LeadStatus string

const (
	LeadStatusOpen        LeadStatus = "Open"
	LeadStatusReplied     LeadStatus = "Replied"
	LeadStatusOpportunity LeadStatus = "Opportunity"
	LeadStatusConverted   LeadStatus = "Converted"
)

func (s LeadStatus) IsValid() bool {
	switch s {
	case LeadStatusOpen, LeadStatusReplied, LeadStatusOpportunity, LeadStatusConverted:
		return true
	}
	return false
}

func (s *LeadStatus) Scan(src interface{}) error {
	if src == nil {
		*s = LeadStatusOpen
		return nil
	}
	var str string
	switch v := src.(type) {
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		return fmt.Errorf("cannot scan %T into LeadStatus", src)
	}
	*s = LeadStatus(str)
	return nil
}

func (s LeadStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Lead is an unqualified prospective contact, convertible into a customer.
type Lead struct {
	ID        string     `json:"id"`
	LeadName  string     `json:"leadName"`
	EmailID   string     `json:"emailId"`
	Status    LeadStatus `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}
