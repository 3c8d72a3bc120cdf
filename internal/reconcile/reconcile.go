// Package reconcile derives quantity-on-hand from the transaction ledger.
// Once the client holds a ledger it is the only source of displayed stock; a
// stock value cached on a product record is never trusted over it.
package reconcile

import (
	"github.com/oyako-li/inventoria/internal/collection"
	"github.com/oyako-li/inventoria/internal/model"
)

// Recompute returns the product's derived stock: baseline quantity plus the
// signed sum of matching ledger entries. Order of the ledger is irrelevant.
// The result may be negative — an inconsistent ledger is surfaced, not
// corrected; the backend rules on legality.
func Recompute(p model.Product, ledger []model.Transaction) int {
	stock := p.BaselineQuantity
	for _, t := range ledger {
		if t.ItemCode == p.ItemCode {
			stock += t.Quantity
		}
	}
	return stock
}

// Engine re-derives products against the live collections. Callers invoke it
// after every ledger mutation, with the mutation already applied.
type Engine struct {
	products     *collection.Collection[string, model.Product]
	transactions *collection.Collection[int64, model.Transaction]
}

func NewEngine(
	products *collection.Collection[string, model.Product],
	transactions *collection.Collection[int64, model.Transaction],
) *Engine {
	return &Engine{products: products, transactions: transactions}
}

// Refresh recomputes one product's stock from the current ledger and merges
// the updated record back. Unknown item codes are a no-op.
func (e *Engine) Refresh(itemCode string) (model.Product, bool) {
	p, ok := e.products.Get(itemCode)
	if !ok {
		return model.Product{}, false
	}
	p.CurrentStock = Recompute(p, e.transactions.Items())
	e.products.MergeByKey(p)
	return p, true
}

// RefreshAll re-derives every product, e.g. after a full ledger reload.
func (e *Engine) RefreshAll() {
	for _, p := range e.products.Items() {
		p.CurrentStock = Recompute(p, e.transactions.Items())
		e.products.MergeByKey(p)
	}
}
