package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oyako-li/inventoria/internal/gateway"
	"github.com/oyako-li/inventoria/internal/model"
	"github.com/oyako-li/inventoria/internal/session"
)

// fakeBackend is an in-memory rendition of the inventory API. Ledger
// mutations answer with 303 See Other pointing at the affected product, the
// way the real backend does; the HTTP client follows it as a GET.
type fakeBackend struct {
	mu sync.Mutex

	products  []model.Product
	suppliers []model.Supplier
	txns      []model.Transaction
	nextTxnID int64
	nextItem  int

	teamIDs []string // X-Team-ID seen on scoped requests
}

func (f *fakeBackend) stockOf(itemCode string) int {
	var sum int
	for _, t := range f.txns {
		if t.ItemCode == itemCode {
			sum += t.Quantity
		}
	}
	for _, p := range f.products {
		if p.ItemCode == itemCode {
			return p.BaselineQuantity + sum
		}
	}
	return sum
}

func (f *fakeBackend) productView(itemCode string) (model.Product, bool) {
	for _, p := range f.products {
		if p.ItemCode == itemCode {
			p.CurrentStock = f.stockOf(itemCode)
			return p, true
		}
	}
	return model.Product{}, false
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	record := func(r *http.Request) {
		if id := r.Header.Get("X-Team-ID"); id != "" {
			f.teamIDs = append(f.teamIDs, id)
		}
	}
	redirectToProduct := func(w http.ResponseWriter, r *http.Request, itemCode string) {
		http.Redirect(w, r, "/inventory/"+itemCode, http.StatusSeeOther)
	}

	// auth, just enough for the session to hold a team scope
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
		signed, _ := tok.SignedString([]byte("secret"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"token": signed,
			"user":  model.User{ID: 1, Name: "Alice", Email: "alice@example.com"},
		})
	})
	mux.HandleFunc("GET /api/teams/my", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"teams": []model.Team{{ID: 3, Name: "Warehouse"}}})
	})

	mux.HandleFunc("GET /inventory/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		record(r)
		if code := strings.TrimPrefix(r.URL.Path, "/inventory/"); code != "" {
			p, ok := f.productView(code)
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(map[string]string{"detail": "item not found"})
				return
			}
			json.NewEncoder(w).Encode(p)
			return
		}
		out := make([]model.Product, len(f.products))
		for i, p := range f.products {
			p.CurrentStock = f.stockOf(p.ItemCode)
			out[i] = p
		}
		json.NewEncoder(w).Encode(out)
	})

	mux.HandleFunc("GET /supplier/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		record(r)
		json.NewEncoder(w).Encode(f.suppliers)
	})

	mux.HandleFunc("GET /transaction", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		record(r)
		json.NewEncoder(w).Encode(f.txns)
	})

	mux.HandleFunc("POST /item/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		record(r)
		var in model.Product
		json.NewDecoder(r.Body).Decode(&in)
		f.nextItem++
		in.ItemCode = fmt.Sprintf("P%03d", f.nextItem)
		in.UpdatedAt = time.Now().UTC()
		f.products = append(f.products, in)
		in.CurrentStock = in.BaselineQuantity
		json.NewEncoder(w).Encode(in)
	})

	mux.HandleFunc("PUT /item/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		record(r)
		var in model.Product
		json.NewDecoder(r.Body).Decode(&in)
		for i, p := range f.products {
			if p.ItemCode == in.ItemCode {
				in.UpdatedAt = time.Now().UTC()
				f.products[i] = in
				in.CurrentStock = f.stockOf(in.ItemCode)
				json.NewEncoder(w).Encode(in)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	})

	mux.HandleFunc("DELETE /item/{code}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		record(r)
		code := r.PathValue("code")
		for i, p := range f.products {
			if p.ItemCode == code {
				f.products = append(f.products[:i], f.products[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	})

	mux.HandleFunc("POST /supplier/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		record(r)
		var in model.Supplier
		json.NewDecoder(r.Body).Decode(&in)
		if in.SupplierCode == "" {
			in.SupplierCode = fmt.Sprintf("S%03d", len(f.suppliers)+1)
		}
		f.suppliers = append(f.suppliers, in)
		json.NewEncoder(w).Encode(in)
	})

	mux.HandleFunc("DELETE /supplier/{code}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		record(r)
		code := r.PathValue("code")
		for i, s := range f.suppliers {
			if s.SupplierCode == code {
				f.suppliers = append(f.suppliers[:i], f.suppliers[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	})

	mux.HandleFunc("POST /transaction/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		record(r)
		var in model.Transaction
		json.NewDecoder(r.Body).Decode(&in)
		f.nextTxnID++
		in.ID = f.nextTxnID
		in.UpdatedAt = time.Now().UTC()
		f.txns = append(f.txns, in)
		f.mu.Unlock()
		redirectToProduct(w, r, in.ItemCode)
	})

	mux.HandleFunc("PUT /transaction/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		record(r)
		var in model.Transaction
		json.NewDecoder(r.Body).Decode(&in)
		for i, t := range f.txns {
			if t.ID == in.ID {
				in.UpdatedAt = time.Now().UTC()
				f.txns[i] = in
			}
		}
		f.mu.Unlock()
		redirectToProduct(w, r, in.ItemCode)
	})

	mux.HandleFunc("DELETE /transaction/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		record(r)
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		itemCode := ""
		for i, t := range f.txns {
			if t.ID == id {
				itemCode = t.ItemCode
				f.txns = append(f.txns[:i], f.txns[i+1:]...)
				break
			}
		}
		f.mu.Unlock()
		if itemCode == "" {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"detail": "transaction not found"})
			return
		}
		redirectToProduct(w, r, itemCode)
	})

	return mux
}

func newClient(t *testing.T, backend *fakeBackend) (*Client, *session.Context) {
	t.Helper()
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	gw := gateway.New(srv.URL, 5*time.Second)
	sess := session.NewContext(gw, session.NewTokenStore(filepath.Join(t.TempDir(), "token")))
	require.NoError(t, sess.Login(context.Background(), "alice@example.com", "hunter2"))
	return New(gw, sess), sess
}

func seeded() *fakeBackend {
	return &fakeBackend{
		products: []model.Product{
			{ItemCode: "P001", ItemName: "Widget", BaselineQuantity: 10, UpdatedAt: time.Now().UTC(), UpdatedBy: "admin"},
			{ItemCode: "P002", ItemName: "Gadget", BaselineQuantity: 4, UpdatedAt: time.Now().UTC(), UpdatedBy: "admin"},
		},
		suppliers: []model.Supplier{
			{SupplierCode: "S001", SupplierName: "Acme Wholesale", SupplierType: model.ActionIn},
		},
		nextItem: 2,
	}
}

func TestReloadAllPopulatesAndDerivesStock(t *testing.T) {
	backend := seeded()
	backend.txns = []model.Transaction{
		{ID: 1, ItemCode: "P001", Action: model.ActionIn, Quantity: 5, UpdatedBy: "alice"},
		{ID: 2, ItemCode: "P001", Action: model.ActionOut, Quantity: -3, UpdatedBy: "alice"},
	}
	backend.nextTxnID = 2
	client, _ := newClient(t, backend)

	require.NoError(t, client.ReloadAll(context.Background()))
	assert.Equal(t, 2, client.Products().Len())
	assert.Equal(t, 1, client.Suppliers().Len())
	assert.Equal(t, 2, client.Transactions().Len())

	p, ok := client.Products().Get("P001")
	require.True(t, ok)
	assert.Equal(t, 12, p.CurrentStock, "baseline 10 + 5 - 3")
}

func TestDerivedStockOverridesCachedValue(t *testing.T) {
	backend := seeded()
	backend.txns = []model.Transaction{{ID: 1, ItemCode: "P001", Action: model.ActionIn, Quantity: 5}}
	backend.nextTxnID = 1
	client, _ := newClient(t, backend)
	require.NoError(t, client.ReloadAll(context.Background()))

	// drop the ledger row behind the client's back and refresh only products:
	// the stock shown must come from the ledger the client holds
	backend.mu.Lock()
	backend.txns = nil
	backend.mu.Unlock()
	require.NoError(t, client.RefreshProducts(context.Background()))

	p, _ := client.Products().Get("P001")
	assert.Equal(t, 15, p.CurrentStock, "derived from the held ledger, not the response's cached 10")
}

func TestCreateTransactionFlow(t *testing.T) {
	backend := seeded()
	client, _ := newClient(t, backend)
	require.NoError(t, client.ReloadAll(context.Background()))

	p, err := client.CreateTransaction(context.Background(), model.Transaction{
		ItemCode:  "P001",
		ItemName:  "Widget",
		Action:    model.ActionIn,
		Quantity:  5,
		UpdatedBy: "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, 15, p.CurrentStock)

	// the re-fetched ledger holds the server-assigned id
	require.Equal(t, 1, client.Transactions().Len())
	stored := client.Transactions().Items()[0]
	assert.Equal(t, int64(1), stored.ID)
	assert.Equal(t, 5, stored.Quantity)

	merged, _ := client.Products().Get("P001")
	assert.Equal(t, 15, merged.CurrentStock)
}

func TestUpdateTransactionFlow(t *testing.T) {
	backend := seeded()
	backend.txns = []model.Transaction{{ID: 1, ItemCode: "P001", ItemName: "Widget", Action: model.ActionIn, Quantity: 5, UpdatedBy: "alice"}}
	backend.nextTxnID = 1
	client, _ := newClient(t, backend)
	require.NoError(t, client.ReloadAll(context.Background()))

	p, err := client.UpdateTransaction(context.Background(), model.Transaction{
		ID:        1,
		ItemCode:  "P001",
		ItemName:  "Widget",
		Action:    model.ActionOut,
		Quantity:  -2,
		UpdatedBy: "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, 8, p.CurrentStock, "baseline 10 - 2")

	stored, ok := client.Transactions().Get(1)
	require.True(t, ok)
	assert.Equal(t, -2, stored.Quantity)
	assert.Equal(t, model.ActionOut, stored.Action)
	assert.False(t, stored.UpdatedAt.IsZero(), "edit carries the backend's audit timestamp")
}

func TestDeleteTransactionFlow(t *testing.T) {
	backend := seeded()
	backend.txns = []model.Transaction{
		{ID: 1, ItemCode: "P001", ItemName: "Widget", Action: model.ActionIn, Quantity: 5, UpdatedBy: "alice"},
		{ID: 2, ItemCode: "P001", ItemName: "Widget", Action: model.ActionOut, Quantity: -3, UpdatedBy: "alice"},
	}
	backend.nextTxnID = 2
	client, _ := newClient(t, backend)
	require.NoError(t, client.ReloadAll(context.Background()))

	p, err := client.DeleteTransaction(context.Background(), 1, "P001")
	require.NoError(t, err)
	assert.Equal(t, 7, p.CurrentStock, "baseline 10 - 3 once the +5 entry is gone")

	_, ok := client.Transactions().Get(1)
	assert.False(t, ok)
	assert.Equal(t, 1, client.Transactions().Len())
}

func TestDeleteTransactionNotFound(t *testing.T) {
	client, _ := newClient(t, seeded())
	require.NoError(t, client.ReloadAll(context.Background()))

	_, err := client.DeleteTransaction(context.Background(), 99, "P001")
	var se *gateway.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Status)
	assert.Equal(t, "transaction not found", se.Detail)
}

func TestCreateProductPrepends(t *testing.T) {
	client, _ := newClient(t, seeded())
	require.NoError(t, client.ReloadAll(context.Background()))

	p, err := client.CreateProduct(context.Background(), "Sprocket", 7, "alice")
	require.NoError(t, err)
	assert.Equal(t, "P003", p.ItemCode)
	assert.Equal(t, 7, p.BaselineQuantity)

	items := client.Products().Items()
	require.Len(t, items, 3)
	assert.Equal(t, "P003", items[0].ItemCode, "new item shows first")
}

func TestDeleteProduct(t *testing.T) {
	client, _ := newClient(t, seeded())
	require.NoError(t, client.ReloadAll(context.Background()))

	require.NoError(t, client.DeleteProduct(context.Background(), "P002"))
	_, ok := client.Products().Get("P002")
	assert.False(t, ok)
}

func TestSupplierLifecycle(t *testing.T) {
	client, _ := newClient(t, seeded())
	require.NoError(t, client.ReloadAll(context.Background()))

	s, err := client.CreateSupplier(context.Background(), model.Supplier{
		SupplierName: "Corner Shop",
		SupplierType: model.ActionOut,
		UpdatedBy:    "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, "S002", s.SupplierCode)
	assert.Equal(t, 2, client.Suppliers().Len())
	assert.Equal(t, "S002", client.Suppliers().Items()[0].SupplierCode)

	require.NoError(t, client.DeleteSupplier(context.Background(), "S002"))
	assert.Equal(t, 1, client.Suppliers().Len())
}

func TestRequestsCarryTeamScope(t *testing.T) {
	backend := seeded()
	client, sess := newClient(t, backend)
	require.NotNil(t, sess.Team())

	require.NoError(t, client.ReloadAll(context.Background()))

	backend.mu.Lock()
	defer backend.mu.Unlock()
	require.NotEmpty(t, backend.teamIDs)
	for _, id := range backend.teamIDs {
		assert.Equal(t, "3", id)
	}
}

func TestDiscardEmptiesCollections(t *testing.T) {
	client, _ := newClient(t, seeded())
	require.NoError(t, client.ReloadAll(context.Background()))
	require.NotZero(t, client.Products().Len())

	client.Discard()
	assert.Zero(t, client.Products().Len())
	assert.Zero(t, client.Suppliers().Len())
	assert.Zero(t, client.Transactions().Len())
}
