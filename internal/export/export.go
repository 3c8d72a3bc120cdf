// Package export writes the current client state to an XLSX workbook: one
// sheet for the inventory (derived stock) and one for the transaction ledger.
package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/oyako-li/inventoria/internal/model"
)

const (
	sheetInventory = "Inventory"
	sheetLedger    = "Transactions"
)

// Report writes products and transactions to path. The zero value of a
// missing optional field (supplier, price) leaves its cell empty.
func Report(path string, products []model.Product, transactions []model.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), sheetInventory)
	if _, err := f.NewSheet(sheetLedger); err != nil {
		return fmt.Errorf("export: create sheet: %w", err)
	}

	if err := writeInventory(f, products); err != nil {
		return err
	}
	if err := writeLedger(f, transactions); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("export: save %s: %w", path, err)
	}
	return nil
}

func writeInventory(f *excelize.File, products []model.Product) error {
	header := []interface{}{"Item Code", "Item Name", "Baseline", "Current Stock", "Updated At", "Updated By"}
	if err := f.SetSheetRow(sheetInventory, "A1", &header); err != nil {
		return fmt.Errorf("export: inventory header: %w", err)
	}
	for i, p := range products {
		row := []interface{}{
			p.ItemCode,
			p.ItemName,
			p.BaselineQuantity,
			p.CurrentStock,
			formatTime(p.UpdatedAt),
			p.UpdatedBy,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheetInventory, cell, &row); err != nil {
			return fmt.Errorf("export: inventory row %d: %w", i+2, err)
		}
	}
	return nil
}

func writeLedger(f *excelize.File, transactions []model.Transaction) error {
	header := []interface{}{"ID", "Item Code", "Item Name", "Action", "Quantity", "Supplier", "Price", "Updated At", "Updated By"}
	if err := f.SetSheetRow(sheetLedger, "A1", &header); err != nil {
		return fmt.Errorf("export: ledger header: %w", err)
	}
	for i, t := range transactions {
		price := ""
		if t.Price != nil {
			price = t.Price.StringFixed(2)
		}
		row := []interface{}{
			t.ID,
			t.ItemCode,
			t.ItemName,
			string(t.Action),
			t.Quantity,
			t.SupplierCode,
			price,
			formatTime(t.UpdatedAt),
			t.UpdatedBy,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheetLedger, cell, &row); err != nil {
			return fmt.Errorf("export: ledger row %d: %w", i+2, err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}
