// Package qrlabel renders item codes as QR label images, the print-and-stick
// replacement for the browser UI's on-screen QR display.
package qrlabel

import (
	"fmt"
	"os"
	"path/filepath"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/oyako-li/inventoria/internal/model"
)

const labelSize = 256 // px, square

// Write renders the product's item code as a QR PNG under dir and returns the
// file path. The file is named after the item code.
func Write(dir string, p model.Product) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("qrlabel: create dir: %w", err)
	}
	path := filepath.Join(dir, p.ItemCode+".png")
	if err := qrcode.WriteFile(p.ItemCode, qrcode.Medium, labelSize, path); err != nil {
		return "", fmt.Errorf("qrlabel: encode %s: %w", p.ItemCode, err)
	}
	return path, nil
}

// Encode returns the label as PNG bytes for callers that print or embed it
// without touching the filesystem.
func Encode(p model.Product) ([]byte, error) {
	png, err := qrcode.Encode(p.ItemCode, qrcode.Medium, labelSize)
	if err != nil {
		return nil, fmt.Errorf("qrlabel: encode %s: %w", p.ItemCode, err)
	}
	return png, nil
}
