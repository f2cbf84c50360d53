package domain

// Item is a catalog entry. Only the descriptive fields consumed by
// opportunity and quotation lines are modeled here.
type Item struct {
	ItemCode    string `json:"itemCode"`
	ItemName    string `json:"itemName"`
	Description string `json:"description"`
	ItemGroup   string `json:"itemGroup"`
	Brand       string `json:"brand"`
	StockUOM    string `json:"stockUom"`
	Image       string `json:"image"`
}

// ItemDetails is the flattened catalog view returned to callers. All
// fields default to the empty string when the item or a field is absent.
type ItemDetails struct {
	ItemName    string `json:"itemName"`
	UOM         string `json:"uom"`
	Description string `json:"description"`
	Image       string `json:"image"`
	ItemGroup   string `json:"itemGroup"`
	Brand       string `json:"brand"`
}
