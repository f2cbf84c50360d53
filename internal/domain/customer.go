package domain

import "time"

// Customer is a qualified counterparty. Cancelled customers stay in the
// store but are excluded from lookups.
type Customer struct {
	ID            string    `json:"id"`
	CustomerName  string    `json:"customerName"`
	Address       string    `json:"address"`
	Territory     string    `json:"territory"`
	CustomerGroup string    `json:"customerGroup"`
	Cancelled     bool      `json:"cancelled"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Contact is a named person attached to a customer. At most one contact
// per customer carries the primary flag.
type Contact struct {
	ID               string `json:"id"`
	CustomerID       string `json:"customerId"`
	ContactName      string `json:"contactName"`
	ContactNo        string `json:"contactNo"`
	EmailID          string `json:"emailId"`
	IsCustomerContact bool  `json:"isCustomerContact"`
	IsPrimary        bool   `json:"isPrimary"`
	Cancelled        bool   `json:"cancelled"`
}
