package model

import "time"

// Product is an inventory item as served by the backend.
//
// BaselineQuantity is the quantity recorded at creation or at the last manual
// stock-set. CurrentStock is derived: baseline plus the signed sum of the
// item's ledger entries. The backend includes its own derivation on list
// responses, but once the client holds the ledger it recomputes locally and
// never trusts a cached value (see reconcile.Recompute).
type Product struct {
	ItemCode         string    `json:"item_code"`
	ItemName         string    `json:"item_name"`
	BaselineQuantity int       `json:"item_quantity"`
	CurrentStock     int       `json:"current_stock"`
	UpdatedAt        time.Time `json:"updated_at"`
	UpdatedBy        string    `json:"updated_by"`
}
