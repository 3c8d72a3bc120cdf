package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one ledger entry. Quantity carries the sign convention fixed
// at creation time: positive for "in", negative for "out". ID and ItemCode are
// immutable once the backend has assigned them.
type Transaction struct {
	ID           int64            `json:"id,omitempty"`
	ItemCode     string           `json:"item_code"`
	ItemName     string           `json:"item_name,omitempty"`
	SupplierCode string           `json:"supplier_code,omitempty"`
	SupplierName string           `json:"supplier_name,omitempty"`
	Action       Action           `json:"action"`
	Quantity     int              `json:"quantity"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	UpdatedAt    time.Time        `json:"updated_at,omitempty"`
	UpdatedBy    string           `json:"updated_by"`
}

// Magnitude returns the unsigned quantity, the form shown for editing.
func (t Transaction) Magnitude() int {
	if t.Quantity < 0 {
		return -t.Quantity
	}
	return t.Quantity
}
