package model

import "time"

// Supplier is a counterparty: a source for stock-in or a destination for
// stock-out, disambiguated by SupplierType.
type Supplier struct {
	SupplierCode        string    `json:"supplier_code"`
	SupplierName        string    `json:"supplier_name"`
	SupplierType        Action    `json:"supplier_type"`
	SupplierAddress     string    `json:"supplier_address,omitempty"`
	SupplierDescription string    `json:"supplier_description,omitempty"`
	UpdatedAt           time.Time `json:"updated_at"`
	UpdatedBy           string    `json:"updated_by"`
}

// Offers reports whether the supplier may act as counterparty for the given
// movement direction.
func (s Supplier) Offers(a Action) bool {
	return s.SupplierType == a
}
