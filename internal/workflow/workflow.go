// Package workflow drives transaction entry and editing: Closed → Open →
// Submitting → Closed, with failures returning to Open. It validates input,
// applies the sign convention, and hands the server's authoritative records
// to the submitter for merging.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/oyako-li/inventoria/internal/model"
)

// Phase is the workflow's lifecycle position.
type Phase int

const (
	PhaseClosed Phase = iota
	PhaseOpen
	PhaseSubmitting
)

// Mode distinguishes entering a new transaction from editing a stored one.
type Mode int

const (
	ModeNew Mode = iota
	ModeEdit
)

var (
	ErrNotOpen          = errors.New("workflow: not open")
	ErrAlreadyOpen      = errors.New("workflow: already open")
	ErrNotEditing       = errors.New("workflow: delete requires an edit session")
	ErrItemNameRequired = errors.New("workflow: item name is required")
	ErrQuantityInvalid  = errors.New("workflow: quantity must be greater than zero")
	ErrCounterparty     = errors.New("workflow: counterparty is required")
	ErrCounterpartyType = errors.New("workflow: counterparty does not serve this direction")
	ErrUpdaterRequired  = errors.New("workflow: updater identity is required")
	ErrNotConfirmed     = errors.New("workflow: deletion not confirmed")
)

var validate = validator.New()

// Submitter persists the intent and folds the backend's authoritative records
// into the client's collections, triggering reconciliation.
type Submitter interface {
	CreateTransaction(ctx context.Context, t model.Transaction) (model.Product, error)
	UpdateTransaction(ctx context.Context, t model.Transaction) (model.Product, error)
	DeleteTransaction(ctx context.Context, id int64, itemCode string) (model.Product, error)
}

// Form is the editable state of an open workflow. Quantity is the unsigned
// magnitude; the sign is reapplied from Action at submit time.
type Form struct {
	Action       model.Action
	Quantity     int
	ItemName     string
	SupplierCode string
	UpdatedBy    string
	Date         string // date-only, reconstructed from the audit timestamp
}

// Workflow is one entry/edit session over a single transaction.
type Workflow struct {
	submitter Submitter

	phase Phase
	mode  Mode
	basis model.Transaction // id + item_code fixed for the session
	form  Form

	suppliers           []model.Supplier
	requireCounterparty bool
}

func New(submitter Submitter) *Workflow {
	return &Workflow{submitter: submitter}
}

func (w *Workflow) Phase() Phase { return w.phase }
func (w *Workflow) Mode() Mode   { return w.mode }
func (w *Workflow) Form() *Form  { return &w.form }

// RequireCounterparty makes the counterparty mandatory at submit; whether it
// is depends on the surrounding flow, not on the workflow itself.
func (w *Workflow) RequireCounterparty(required bool) { w.requireCounterparty = required }

// OpenNew starts entry of a new transaction for the given product:
// stock-in, quantity 1, no counterparty.
func (w *Workflow) OpenNew(p model.Product, suppliers []model.Supplier, updatedBy string) error {
	if w.phase != PhaseClosed {
		return ErrAlreadyOpen
	}
	w.phase = PhaseOpen
	w.mode = ModeNew
	w.suppliers = suppliers
	w.basis = model.Transaction{ItemCode: p.ItemCode, ItemName: p.ItemName}
	w.form = Form{
		Action:    model.ActionIn,
		Quantity:  1,
		ItemName:  p.ItemName,
		UpdatedBy: updatedBy,
		Date:      time.Now().Format("2006-01-02"),
	}
	return nil
}

// OpenEdit starts editing a stored transaction, converting the signed
// quantity back to magnitude + direction for display.
func (w *Workflow) OpenEdit(t model.Transaction, suppliers []model.Supplier) error {
	if w.phase != PhaseClosed {
		return ErrAlreadyOpen
	}
	qty := t.Magnitude()
	if qty == 0 {
		qty = 1
	}
	updatedBy := t.UpdatedBy
	if updatedBy == "" {
		updatedBy = "admin"
	}
	w.phase = PhaseOpen
	w.mode = ModeEdit
	w.suppliers = suppliers
	w.basis = t
	w.form = Form{
		Action:       t.Action,
		Quantity:     qty,
		ItemName:     t.ItemName,
		SupplierCode: t.SupplierCode,
		UpdatedBy:    updatedBy,
		Date:         t.UpdatedAt.Format("2006-01-02"),
	}
	return nil
}

// CounterpartyOptions lists only suppliers serving the current direction. A
// previously chosen counterparty that fell out of the filter is not cleared
// here; Submit re-validates it.
func (w *Workflow) CounterpartyOptions() []model.Supplier {
	var out []model.Supplier
	for _, s := range w.suppliers {
		if s.Offers(w.form.Action) {
			out = append(out, s)
		}
	}
	return out
}

// Validate runs the submit rules in order; the first violated rule wins.
func (w *Workflow) Validate() error {
	if err := validate.Var(w.form.ItemName, "required"); err != nil {
		return ErrItemNameRequired
	}
	if err := validate.Var(w.form.Quantity, "gt=0"); err != nil {
		return ErrQuantityInvalid
	}
	if w.requireCounterparty {
		if err := validate.Var(w.form.SupplierCode, "required"); err != nil {
			return ErrCounterparty
		}
	}
	if w.form.SupplierCode != "" && !w.counterpartyMatches() {
		return ErrCounterpartyType
	}
	if err := validate.Var(w.form.UpdatedBy, "required"); err != nil {
		return ErrUpdaterRequired
	}
	return nil
}

func (w *Workflow) counterpartyMatches() bool {
	for _, s := range w.suppliers {
		if s.SupplierCode == w.form.SupplierCode {
			return s.Offers(w.form.Action)
		}
	}
	return false
}

// Submit validates, re-signs the quantity, and persists through the
// submitter. On failure the workflow stays Open with state unchanged; on
// success it closes and returns the backend's recomputed product.
func (w *Workflow) Submit(ctx context.Context) (model.Product, error) {
	if w.phase != PhaseOpen {
		return model.Product{}, ErrNotOpen
	}
	if err := w.Validate(); err != nil {
		return model.Product{}, err
	}

	intent := w.buildIntent()
	w.phase = PhaseSubmitting

	var (
		p   model.Product
		err error
	)
	if w.mode == ModeEdit {
		p, err = w.submitter.UpdateTransaction(ctx, intent)
	} else {
		p, err = w.submitter.CreateTransaction(ctx, intent)
	}
	if err != nil {
		w.phase = PhaseOpen
		return model.Product{}, err
	}
	w.phase = PhaseClosed
	return p, nil
}

func (w *Workflow) buildIntent() model.Transaction {
	return model.Transaction{
		ID:           w.basis.ID,
		ItemCode:     w.basis.ItemCode,
		ItemName:     w.form.ItemName,
		Action:       w.form.Action,
		Quantity:     w.form.Action.Sign(w.form.Quantity),
		SupplierCode: w.form.SupplierCode,
		Price:        w.basis.Price,
		UpdatedBy:    w.form.UpdatedBy,
	}
}

// Delete removes the transaction under edit after an explicit confirmation.
// The session stays open when the user declines.
func (w *Workflow) Delete(ctx context.Context, confirm func(prompt string) bool) (model.Product, error) {
	if w.phase != PhaseOpen {
		return model.Product{}, ErrNotOpen
	}
	if w.mode != ModeEdit {
		return model.Product{}, ErrNotEditing
	}
	if confirm == nil || !confirm(fmt.Sprintf("delete transaction %d? this cannot be undone", w.basis.ID)) {
		return model.Product{}, ErrNotConfirmed
	}

	w.phase = PhaseSubmitting
	p, err := w.submitter.DeleteTransaction(ctx, w.basis.ID, w.basis.ItemCode)
	if err != nil {
		w.phase = PhaseOpen
		return model.Product{}, err
	}
	w.phase = PhaseClosed
	return p, nil
}

// Close abandons the session without submitting.
func (w *Workflow) Close() { w.phase = PhaseClosed }

// PriceForDisplay formats the basis price, empty when unset.
func (w *Workflow) PriceForDisplay() string {
	if w.basis.Price == nil {
		return ""
	}
	return w.basis.Price.StringFixed(2)
}
