package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/oyako-li/inventoria/internal/export"
	"github.com/oyako-li/inventoria/internal/model"
	"github.com/oyako-li/inventoria/internal/qrlabel"
	"github.com/oyako-li/inventoria/internal/scanner"
	"github.com/oyako-li/inventoria/internal/workflow"
)

var errUsage = errors.New("bad arguments, see help")

func (a *app) dispatch(ctx context.Context, args []string) error {
	switch args[0] {
	case "help":
		a.printHelp()
		return nil

	// ── Session ──────────────────────────────────────────────────────────
	case "login":
		if len(args) != 3 {
			return errUsage
		}
		if err := a.sess.Login(ctx, args[1], args[2]); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "logged in as %s (team: %s)\n", a.sess.User().Name, teamName(a.sess))
		return nil
	case "register":
		if len(args) != 4 {
			return errUsage
		}
		return a.sess.Register(ctx, args[1], args[2], args[3])
	case "logout":
		a.sess.Logout()
		a.client.Discard()
		return nil
	case "whoami":
		fmt.Fprintf(a.out, "state: %s", a.sess.State())
		if u := a.sess.User(); u != nil {
			fmt.Fprintf(a.out, ", user: %s <%s>, team: %s", u.Name, u.Email, teamName(a.sess))
		}
		fmt.Fprintln(a.out)
		return nil

	// ── Teams ────────────────────────────────────────────────────────────
	case "teams":
		for i, t := range a.sess.Teams() {
			marker := " "
			if cur := a.sess.Team(); cur != nil && cur.ID == t.ID {
				marker = "*"
			}
			fmt.Fprintf(a.out, "%s %d. %s\t%s\n", marker, i+1, t.Name, t.Description)
		}
		return nil
	case "team":
		if len(args) != 2 {
			return errUsage
		}
		n, err := strconv.Atoi(args[1])
		teams := a.sess.Teams()
		if err != nil || n < 1 || n > len(teams) {
			return errUsage
		}
		a.sess.SelectTeam(&teams[n-1])
		return nil
	case "newteam":
		if len(args) < 2 {
			return errUsage
		}
		return a.sess.CreateTeam(ctx, args[1], strings.Join(args[2:], " "))
	case "invite":
		if len(args) < 2 {
			return errUsage
		}
		team := a.sess.Team()
		if team == nil {
			return errors.New("no team selected")
		}
		role := "member"
		if len(args) > 2 {
			role = args[2]
		}
		return a.sess.InviteMember(ctx, team.ID, args[1], role)
	case "members":
		team := a.sess.Team()
		if team == nil {
			return errors.New("no team selected")
		}
		members, err := a.sess.TeamMembers(ctx, team.ID)
		if err != nil {
			return err
		}
		for _, m := range members {
			fmt.Fprintf(a.out, "%s\t%s\t%s\n", m.Name, m.Email, m.Role)
		}
		return nil

	// ── Listing and paging ───────────────────────────────────────────────
	case "items":
		a.views.refresh()
		a.views.show(viewProducts)
		a.renderActive()
		return nil
	case "ledger":
		a.views.refresh()
		a.views.show(viewLedger)
		a.renderActive()
		return nil
	case "suppliers":
		a.views.refresh()
		a.views.show(viewSuppliers)
		a.renderActive()
		return nil
	case "search":
		a.views.setQuery(strings.Join(args[1:], " "))
		a.renderActive()
		return nil
	case "next":
		a.views.next()
		a.renderActive()
		return nil
	case "prev":
		a.views.prev()
		a.renderActive()
		return nil
	case "sel":
		if len(args) != 2 {
			return errUsage
		}
		row, err := strconv.Atoi(args[1])
		if err != nil || row < 1 {
			return errUsage
		}
		return a.views.selectRow(row - 1)
	case "reload":
		if err := a.client.ReloadAll(ctx); err != nil {
			return err
		}
		a.views.refresh()
		return nil

	// ── Products ─────────────────────────────────────────────────────────
	case "additem":
		if len(args) < 2 {
			return errUsage
		}
		qty := 0
		name := strings.Join(args[1:], " ")
		if n, err := strconv.Atoi(args[len(args)-1]); err == nil && len(args) > 2 {
			qty = n
			name = strings.Join(args[1:len(args)-1], " ")
		}
		p, err := a.client.CreateProduct(ctx, name, qty, a.updatedBy())
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "created %s (%s)\n", p.ItemName, p.ItemCode)
		return nil
	case "edititem":
		if len(args) < 3 {
			return errUsage
		}
		p, ok := a.client.Products().Get(args[1])
		if !ok {
			return fmt.Errorf("unknown item %s", args[1])
		}
		name := strings.Join(args[2:], " ")
		if n, err := strconv.Atoi(args[len(args)-1]); err == nil && len(args) > 3 {
			p.BaselineQuantity = n
			name = strings.Join(args[2:len(args)-1], " ")
		}
		p.ItemName = name
		p.UpdatedBy = a.updatedBy()
		updated, err := a.client.UpdateProduct(ctx, p)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "saved %s: stock now %d\n", updated.ItemName, updated.CurrentStock)
		return nil
	case "delitem":
		if len(args) != 2 {
			return errUsage
		}
		if !a.confirm(fmt.Sprintf("delete item %s? this cannot be undone", args[1])) {
			return nil
		}
		return a.client.DeleteProduct(ctx, args[1])
	case "label":
		if len(args) != 2 {
			return errUsage
		}
		p, ok := a.client.Products().Get(args[1])
		if !ok {
			return fmt.Errorf("unknown item %s", args[1])
		}
		path, err := qrlabel.Write(a.cfg.ExportDir, p)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "label written to %s\n", path)
		return nil

	// ── Suppliers ────────────────────────────────────────────────────────
	case "addsupplier":
		if len(args) < 3 {
			return errUsage
		}
		stype := model.Action(args[2])
		if !stype.Valid() {
			return errUsage
		}
		s, err := a.client.CreateSupplier(ctx, model.Supplier{
			SupplierName:    args[1],
			SupplierType:    stype,
			SupplierAddress: strings.Join(args[3:], " "),
			UpdatedBy:       a.updatedBy(),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "created supplier %s (%s)\n", s.SupplierName, s.SupplierCode)
		return nil
	case "editsupplier":
		if len(args) < 3 {
			return errUsage
		}
		s, ok := a.client.Suppliers().Get(args[1])
		if !ok {
			return fmt.Errorf("unknown supplier %s", args[1])
		}
		stype := model.Action(args[2])
		if !stype.Valid() {
			return errUsage
		}
		s.SupplierType = stype
		if len(args) > 3 {
			s.SupplierAddress = strings.Join(args[3:], " ")
		}
		s.UpdatedBy = a.updatedBy()
		if _, err := a.client.UpdateSupplier(ctx, s); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "saved supplier %s\n", s.SupplierCode)
		return nil
	case "delsupplier":
		if len(args) != 2 {
			return errUsage
		}
		if !a.confirm(fmt.Sprintf("delete supplier %s? this cannot be undone", args[1])) {
			return nil
		}
		return a.client.DeleteSupplier(ctx, args[1])

	// ── Stock movements ──────────────────────────────────────────────────
	case "in", "out":
		return a.recordMovement(ctx, args)
	case "edit":
		return a.editTransaction(ctx, args)
	case "deltxn":
		return a.deleteTransaction(ctx, args)

	// ── Export and scanning ──────────────────────────────────────────────
	case "export":
		name := fmt.Sprintf("inventoria-%s.xlsx", time.Now().Format("20060102-150405"))
		path := filepath.Join(a.cfg.ExportDir, name)
		err := export.Report(path, a.client.Products().Items(), a.client.Transactions().Items())
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "report written to %s\n", path)
		return nil
	case "scan":
		return a.toggleScanner(args)

	default:
		return fmt.Errorf("unknown command %q, see help", args[0])
	}
}

// recordMovement is the new-transaction flow: in|out <item_code> <qty> [supplier_code].
func (a *app) recordMovement(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return errUsage
	}
	p, ok := a.client.Products().Get(args[1])
	if !ok {
		return fmt.Errorf("unknown item %s", args[1])
	}
	qty, err := strconv.Atoi(args[2])
	if err != nil {
		return errUsage
	}

	w := workflow.New(a.client)
	if err := w.OpenNew(p, a.client.Suppliers().Items(), a.updatedBy()); err != nil {
		return err
	}
	form := w.Form()
	form.Quantity = qty
	if args[0] == "out" {
		form.Action = model.ActionOut
		if qty > p.CurrentStock {
			// Advisory only: the backend rules on legality.
			fmt.Fprintf(a.out, "warning: stock-out of %d exceeds current stock %d\n", qty, p.CurrentStock)
		}
	}
	if len(args) > 3 {
		form.SupplierCode = args[3]
	}

	updated, err := w.Submit(ctx)
	if err != nil {
		return err
	}
	a.views.refresh()
	fmt.Fprintf(a.out, "%s: stock now %d\n", updated.ItemName, updated.CurrentStock)
	return nil
}

// editTransaction re-signs and saves: edit <txn_id> <in|out> <qty> [supplier_code].
func (a *app) editTransaction(ctx context.Context, args []string) error {
	if len(args) < 4 {
		return errUsage
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return errUsage
	}
	t, ok := a.client.Transactions().Get(id)
	if !ok {
		return fmt.Errorf("unknown transaction %d", id)
	}
	action := model.Action(args[2])
	if !action.Valid() {
		return errUsage
	}
	qty, err := strconv.Atoi(args[3])
	if err != nil {
		return errUsage
	}

	w := workflow.New(a.client)
	if err := w.OpenEdit(t, a.client.Suppliers().Items()); err != nil {
		return err
	}
	if price := w.PriceForDisplay(); price != "" {
		fmt.Fprintf(a.out, "recorded price: %s\n", price)
	}
	form := w.Form()
	form.Action = action
	form.Quantity = qty
	if len(args) > 4 {
		form.SupplierCode = args[4]
	}

	updated, err := w.Submit(ctx)
	if err != nil {
		return err
	}
	a.views.refresh()
	fmt.Fprintf(a.out, "%s: stock now %d\n", updated.ItemName, updated.CurrentStock)
	return nil
}

func (a *app) deleteTransaction(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return errUsage
	}
	t, ok := a.client.Transactions().Get(id)
	if !ok {
		return fmt.Errorf("unknown transaction %d", id)
	}

	w := workflow.New(a.client)
	if err := w.OpenEdit(t, a.client.Suppliers().Items()); err != nil {
		return err
	}
	updated, err := w.Delete(ctx, a.confirm)
	if err != nil {
		if errors.Is(err, workflow.ErrNotConfirmed) {
			return nil
		}
		return err
	}
	a.views.refresh()
	fmt.Fprintf(a.out, "%s: stock now %d\n", updated.ItemName, updated.CurrentStock)
	return nil
}

func (a *app) toggleScanner(args []string) error {
	if a.cfg.ScannerDevice == "" {
		return errors.New("no scanner device configured (SCANNER_DEVICE)")
	}
	if len(args) == 2 && args[1] == "stop" {
		if a.scan != nil {
			a.scan.Stop()
		}
		return nil
	}
	if a.scan == nil {
		// The session owns the device: opened per Start, closed on Stop.
		a.scan = scanner.New(func() (io.ReadCloser, error) {
			return os.Open(a.cfg.ScannerDevice)
		}, func(code string) {
			a.scanned <- code
		})
	}
	return a.scan.Start()
}

func (a *app) renderActive() {
	switch a.views.active {
	case viewLedger:
		a.renderLedger()
	case viewSuppliers:
		a.renderSuppliers()
	default:
		a.renderProducts()
	}
}

func (a *app) renderProducts() {
	pager := a.views.products
	fmt.Fprintln(a.out, "   code\tname\tstock\tupdated\tby")
	for i, p := range pager.Page() {
		fmt.Fprintf(a.out, "%d. %s\t%s\t%d\t%s\t%s\n",
			i+1, p.ItemCode, p.ItemName, p.CurrentStock, p.UpdatedAt.Format("2006-01-02 15:04"), p.UpdatedBy)
	}
	fmt.Fprintf(a.out, "page %d / %d\n", pager.CurrentPage()+1, pager.PageCount())
}

func (a *app) renderLedger() {
	pager := a.views.transactions
	fmt.Fprintln(a.out, "   id\titem\taction\tqty\tsupplier\tby")
	for i, t := range pager.Page() {
		fmt.Fprintf(a.out, "%d. %d\t%s\t%s\t%d\t%s\t%s\n",
			i+1, t.ID, t.ItemCode, t.Action, t.Quantity, t.SupplierCode, t.UpdatedBy)
	}
	fmt.Fprintf(a.out, "page %d / %d\n", pager.CurrentPage()+1, pager.PageCount())
}

func (a *app) renderSuppliers() {
	pager := a.views.suppliers
	fmt.Fprintln(a.out, "   code\tname\ttype\taddress")
	for i, s := range pager.Page() {
		fmt.Fprintf(a.out, "%d. %s\t%s\t%s\t%s\n",
			i+1, s.SupplierCode, s.SupplierName, s.SupplierType, s.SupplierAddress)
	}
	fmt.Fprintf(a.out, "page %d / %d\n", pager.CurrentPage()+1, pager.PageCount())
}

func (a *app) updatedBy() string {
	if u := a.sess.User(); u != nil {
		return u.Name
	}
	return "admin"
}

func (a *app) confirm(prompt string) bool {
	fmt.Fprintf(a.out, "%s [y/N] ", prompt)
	if !a.in.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(a.in.Text()))
	return answer == "y" || answer == "yes"
}

func (a *app) printHelp() {
	fmt.Fprint(a.out, `session:  login <email> <pw> | register <name> <email> <pw> | logout | whoami
teams:    teams | team <n> | newteam <name> [desc] | invite <email> [role] | members
browse:   items | ledger | suppliers | search <q> | sel <row> | next | prev | reload
products: additem <name> [qty] | edititem <code> <name> [qty] | delitem <code> | label <code>
partners: addsupplier <name> <in|out> [address] | editsupplier <code> <in|out> [address] | delsupplier <code>
stock:    in <code> <qty> [supplier] | out <code> <qty> [supplier]
          edit <txn_id> <in|out> <qty> [supplier] | deltxn <txn_id>
tools:    export | scan [stop] | quit
`)
}
