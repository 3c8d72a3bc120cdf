// Package inventory is the client facade: it owns the three entity
// collections, keeps them in sync with the backend through the gateway, and
// re-derives displayed stock after every ledger change. No mutation is applied
// locally before the backend has confirmed it.
package inventory

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/oyako-li/inventoria/internal/collection"
	"github.com/oyako-li/inventoria/internal/gateway"
	"github.com/oyako-li/inventoria/internal/model"
	"github.com/oyako-li/inventoria/internal/reconcile"
	"github.com/oyako-li/inventoria/internal/session"
)

// Client syncs products, suppliers, and transactions for the current team.
type Client struct {
	gw   *gateway.Client
	sess *session.Context

	products     *collection.Collection[string, model.Product]
	suppliers    *collection.Collection[string, model.Supplier]
	transactions *collection.Collection[int64, model.Transaction]
	engine       *reconcile.Engine
}

func New(gw *gateway.Client, sess *session.Context) *Client {
	products := collection.New(func(p model.Product) string { return p.ItemCode })
	suppliers := collection.New(func(s model.Supplier) string { return s.SupplierCode })
	transactions := collection.New(func(t model.Transaction) int64 { return t.ID })
	return &Client{
		gw:           gw,
		sess:         sess,
		products:     products,
		suppliers:    suppliers,
		transactions: transactions,
		engine:       reconcile.NewEngine(products, transactions),
	}
}

func (c *Client) Products() *collection.Collection[string, model.Product]        { return c.products }
func (c *Client) Suppliers() *collection.Collection[string, model.Supplier]      { return c.suppliers }
func (c *Client) Transactions() *collection.Collection[int64, model.Transaction] { return c.transactions }

// Discard drops everything held for the previous team; the next refresh
// repopulates under the new scope. Entities from different teams never mix.
func (c *Client) Discard() {
	c.products.ReplaceAll(nil)
	c.suppliers.ReplaceAll(nil)
	c.transactions.ReplaceAll(nil)
}

// ReloadAll refreshes the three collections and re-derives all stock. Wired
// as the session's team-changed hook by the composition root.
func (c *Client) ReloadAll(ctx context.Context) error {
	c.Discard()
	if err := c.RefreshProducts(ctx); err != nil {
		return err
	}
	if err := c.RefreshSuppliers(ctx); err != nil {
		return err
	}
	if err := c.RefreshTransactions(ctx); err != nil {
		return err
	}
	return nil
}

func (c *Client) RefreshProducts(ctx context.Context) error {
	var items []model.Product
	if err := c.fetch(ctx, "/inventory/", &items); err != nil {
		return err
	}
	c.products.ReplaceAll(items)
	// Stock shown is always derived from the ledger we hold, not the
	// response's cached value.
	c.engine.RefreshAll()
	return nil
}

func (c *Client) RefreshSuppliers(ctx context.Context) error {
	var items []model.Supplier
	if err := c.fetch(ctx, "/supplier/", &items); err != nil {
		return err
	}
	c.suppliers.ReplaceAll(items)
	return nil
}

func (c *Client) RefreshTransactions(ctx context.Context) error {
	var items []model.Transaction
	if err := c.fetch(ctx, "/transaction", &items); err != nil {
		return err
	}
	c.transactions.ReplaceAll(items)
	c.engine.RefreshAll()
	return nil
}

func (c *Client) fetch(ctx context.Context, endpoint string, v interface{}) error {
	resp, err := c.gw.Get(ctx, endpoint, c.sess.AuthHeaders())
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}
	return resp.Decode(v)
}

// ── Products ─────────────────────────────────────────────────────────────────

// CreateProduct registers a new item and prepends the backend's record.
func (c *Client) CreateProduct(ctx context.Context, name string, quantity int, updatedBy string) (model.Product, error) {
	body := map[string]interface{}{
		"item_name":     name,
		"item_quantity": quantity,
		"updated_by":    updatedBy,
	}
	resp, err := c.gw.Post(ctx, "/item/", body, c.sess.AuthHeaders())
	if err != nil {
		return model.Product{}, err
	}
	if err := resp.Err(); err != nil {
		return model.Product{}, err
	}
	var p model.Product
	if err := resp.Decode(&p); err != nil {
		return model.Product{}, err
	}
	c.products.Prepend(p)
	log.Info().Str("item_code", p.ItemCode).Str("item_name", p.ItemName).Msg("product created")
	return p, nil
}

// UpdateProduct saves name/baseline edits and merges the backend's record.
func (c *Client) UpdateProduct(ctx context.Context, p model.Product) (model.Product, error) {
	resp, err := c.gw.Put(ctx, "/item/", p, c.sess.AuthHeaders())
	if err != nil {
		return model.Product{}, err
	}
	if err := resp.Err(); err != nil {
		return model.Product{}, err
	}
	var updated model.Product
	if err := resp.Decode(&updated); err != nil {
		return model.Product{}, err
	}
	c.products.MergeByKey(updated)
	c.engine.Refresh(updated.ItemCode)
	return updated, nil
}

// DeleteProduct removes an item after backend confirmation.
func (c *Client) DeleteProduct(ctx context.Context, itemCode string) error {
	resp, err := c.gw.Delete(ctx, "/item/"+url.PathEscape(itemCode), c.sess.AuthHeaders())
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}
	c.products.RemoveByKey(itemCode)
	return nil
}

// ── Suppliers ────────────────────────────────────────────────────────────────

// CreateSupplier registers a counterparty; the backend assigns its code.
func (c *Client) CreateSupplier(ctx context.Context, s model.Supplier) (model.Supplier, error) {
	return c.saveSupplier(ctx, s, true)
}

// UpdateSupplier saves edits to an existing counterparty.
func (c *Client) UpdateSupplier(ctx context.Context, s model.Supplier) (model.Supplier, error) {
	return c.saveSupplier(ctx, s, false)
}

func (c *Client) saveSupplier(ctx context.Context, s model.Supplier, create bool) (model.Supplier, error) {
	var (
		resp *gateway.Response
		err  error
	)
	if create {
		resp, err = c.gw.Post(ctx, "/supplier/", s, c.sess.AuthHeaders())
	} else {
		resp, err = c.gw.Put(ctx, "/supplier/", s, c.sess.AuthHeaders())
	}
	if err != nil {
		return model.Supplier{}, err
	}
	if err := resp.Err(); err != nil {
		return model.Supplier{}, err
	}
	var saved model.Supplier
	if err := resp.Decode(&saved); err != nil {
		return model.Supplier{}, err
	}
	if create {
		c.suppliers.Prepend(saved)
	} else {
		c.suppliers.MergeByKey(saved)
	}
	return saved, nil
}

// DeleteSupplier removes a counterparty after backend confirmation.
func (c *Client) DeleteSupplier(ctx context.Context, supplierCode string) error {
	resp, err := c.gw.Delete(ctx, "/supplier/"+url.PathEscape(supplierCode), c.sess.AuthHeaders())
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}
	c.suppliers.RemoveByKey(supplierCode)
	return nil
}

// ── Transactions (workflow.Submitter) ────────────────────────────────────────
//
// The backend answers every ledger mutation with the affected product,
// recomputed server-side. The client still re-derives stock from its own
// ledger afterwards — the two must agree, and the local ledger is what the
// views present.

// CreateTransaction persists a new ledger entry. The backend assigns the id,
// so the ledger is re-fetched to hold the authoritative row before
// reconciliation.
func (c *Client) CreateTransaction(ctx context.Context, t model.Transaction) (model.Product, error) {
	resp, err := c.gw.Post(ctx, "/transaction/", t, c.sess.AuthHeaders())
	if err != nil {
		return model.Product{}, err
	}
	if err := resp.Err(); err != nil {
		return model.Product{}, err
	}
	var p model.Product
	if err := resp.Decode(&p); err != nil {
		return model.Product{}, err
	}
	if err := c.RefreshTransactions(ctx); err != nil {
		return model.Product{}, err
	}
	c.products.MergeByKey(p)
	return c.reconciled(p)
}

// UpdateTransaction saves an edit; id and item_code stay fixed.
func (c *Client) UpdateTransaction(ctx context.Context, t model.Transaction) (model.Product, error) {
	resp, err := c.gw.Put(ctx, "/transaction/", t, c.sess.AuthHeaders())
	if err != nil {
		return model.Product{}, err
	}
	if err := resp.Err(); err != nil {
		return model.Product{}, err
	}
	var p model.Product
	if err := resp.Decode(&p); err != nil {
		return model.Product{}, err
	}
	t.UpdatedAt = p.UpdatedAt
	c.transactions.MergeByKey(t)
	c.products.MergeByKey(p)
	return c.reconciled(p)
}

// DeleteTransaction removes a ledger entry and re-derives the product.
func (c *Client) DeleteTransaction(ctx context.Context, id int64, itemCode string) (model.Product, error) {
	resp, err := c.gw.Delete(ctx, fmt.Sprintf("/transaction/%d", id), c.sess.AuthHeaders())
	if err != nil {
		return model.Product{}, err
	}
	if err := resp.Err(); err != nil {
		return model.Product{}, err
	}
	var p model.Product
	if err := resp.Decode(&p); err != nil {
		return model.Product{}, err
	}
	c.transactions.RemoveByKey(id)
	c.products.MergeByKey(p)
	return c.reconciled(p)
}

// reconciled recomputes the product from the ledger held after the mutation.
func (c *Client) reconciled(p model.Product) (model.Product, error) {
	if derived, ok := c.engine.Refresh(p.ItemCode); ok {
		return derived, nil
	}
	return p, nil
}
