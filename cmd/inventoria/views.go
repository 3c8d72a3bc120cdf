package main

import (
	"strings"

	"github.com/oyako-li/inventoria/internal/inventory"
	"github.com/oyako-li/inventoria/internal/model"
	"github.com/oyako-li/inventoria/internal/view"
)

// viewKind names the list currently on screen; paging and row selection act
// on that list only.
type viewKind int

const (
	viewProducts viewKind = iota
	viewLedger
	viewSuppliers
)

// views holds the three pagers. The item query searches names, the ledger and
// supplier queries match codes — same split as the browser UI's search boxes.
type views struct {
	client       *inventory.Client
	products     *view.Pager[model.Product]
	suppliers    *view.Pager[model.Supplier]
	transactions *view.Pager[model.Transaction]

	active viewKind

	// versions last rendered, to re-source pagers only when data moved
	productsVer, suppliersVer, transactionsVer uint64
}

func newViews(pageSize int, client *inventory.Client) *views {
	return &views{
		client: client,
		products: view.NewPager(pageSize, func(p model.Product, q string) bool {
			return strings.Contains(strings.ToLower(p.ItemName), strings.ToLower(q)) ||
				strings.Contains(p.ItemCode, q)
		}),
		suppliers: view.NewPager(pageSize, func(s model.Supplier, q string) bool {
			return strings.Contains(strings.ToLower(s.SupplierName), strings.ToLower(q)) ||
				strings.Contains(s.SupplierCode, q)
		}),
		transactions: view.NewPager(pageSize, func(t model.Transaction, q string) bool {
			return strings.Contains(t.ItemCode, q)
		}),
	}
}

// refresh re-sources any pager whose collection has changed since the last
// render. Re-sourcing resets that pager to its first page.
func (v *views) refresh() {
	if ver := v.client.Products().Version(); ver != v.productsVer {
		v.products.SetSource(v.client.Products().Items())
		v.productsVer = ver
	}
	if ver := v.client.Suppliers().Version(); ver != v.suppliersVer {
		v.suppliers.SetSource(v.client.Suppliers().Items())
		v.suppliersVer = ver
	}
	if ver := v.client.Transactions().Version(); ver != v.transactionsVer {
		v.transactions.SetSource(v.client.Transactions().Items())
		v.transactionsVer = ver
	}
}

// setQuery applies one query to every pager, the way a scanned code filters
// whichever tab is showing.
func (v *views) setQuery(q string) {
	v.products.SetQuery(q)
	v.suppliers.SetQuery(q)
	v.transactions.SetQuery(q)
}

func (v *views) show(k viewKind) { v.active = k }

// next and prev page the active list only; the others keep their position.
func (v *views) next() {
	switch v.active {
	case viewLedger:
		v.transactions.Next()
	case viewSuppliers:
		v.suppliers.Next()
	default:
		v.products.Next()
	}
}

func (v *views) prev() {
	switch v.active {
	case viewLedger:
		v.transactions.Prev()
	case viewSuppliers:
		v.suppliers.Prev()
	default:
		v.products.Prev()
	}
}

// selectRow hands the row-th entity of the active page to its registered
// handler.
func (v *views) selectRow(row int) error {
	switch v.active {
	case viewLedger:
		return v.transactions.Select(row)
	case viewSuppliers:
		return v.suppliers.Select(row)
	default:
		return v.products.Select(row)
	}
}
