package domain

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// QuotationStatus is the lifecycle status of a quotation document.
type QuotationStatus string

const (
	QuotationStatusDraft     QuotationStatus = "Draft"
	QuotationStatusSubmitted QuotationStatus = "Submitted"
	QuotationStatusOrdered   QuotationStatus = "Ordered"
	QuotationStatusLost      QuotationStatus = "Lost"
	QuotationStatusCancelled QuotationStatus = "Cancelled"
)

func (s QuotationStatus) IsValid() bool {
	switch s {
	case QuotationStatusDraft, QuotationStatusSubmitted, QuotationStatusOrdered,
		QuotationStatusLost, QuotationStatusCancelled:
		return true
	}
	return false
}

func (s *QuotationStatus) Scan(src interface{}) error {
	if src == nil {
		*s = QuotationStatusDraft
		return nil
	}
	var str string
	switch v := src.(type) {
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		return fmt.Errorf("cannot scan %T into QuotationStatus", src)
	}
	*s = QuotationStatus(str)
	return nil
}

func (s QuotationStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Quotation is a formal price offer document. Once created from an
// opportunity it is fully independent of the source except for EnqNo,
// the back-reference used for lookups.
type Quotation struct {
	ID           string          `json:"id"`
	QuotationTo  string          `json:"quotationTo"`
	OrderType    string          `json:"orderType"`
	EnqNo        string          `json:"enqNo"`
	CustomerID   *string         `json:"customerId"`
	LeadID       *string         `json:"leadId"`
	CustomerName string          `json:"customerName"`
	Currency     string          `json:"currency"`
	Status       QuotationStatus `json:"status"`
	Submitted    bool            `json:"submitted"`
	NetTotal     float64         `json:"netTotal"`
	GrandTotal   float64         `json:"grandTotal"`
	Items        []QuotationItem `json:"items"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// QuotationItem is one offered line, carrying the reference back to the
// originating document.
type QuotationItem struct {
	ID             string  `json:"id"`
	ItemCode       string  `json:"itemCode"`
	ItemName       string  `json:"itemName"`
	Description    string  `json:"description"`
	ItemGroup      string  `json:"itemGroup"`
	Brand          string  `json:"brand"`
	StockUOM       string  `json:"stockUom"`
	Qty            float64 `json:"qty"`
	Rate           float64 `json:"rate"`
	Amount         float64 `json:"amount"`
	PrevdocDocname string  `json:"prevdocDocname"`
	PrevdocDoctype string  `json:"prevdocDoctype"`
}

// QuotationOverrides is a partially pre-filled target record supplied by
// the caller of the conversion. Explicitly set fields win over mapped
// values.
type QuotationOverrides struct {
	QuotationTo  *string                        `json:"quotationTo"`
	OrderType    *string                        `json:"orderType"`
	CustomerID   *string                        `json:"customerId"`
	CustomerName *string                        `json:"customerName"`
	Currency     *string                        `json:"currency"`
	Items        []CreateOpportunityItemRequest `json:"items"`
}
