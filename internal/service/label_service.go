package service

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/qr"

	"github.com/GTDGit/halal_inventory_api/internal/models"
)

const (
	barcodeWidth  = 400
	barcodeHeight = 100
	qrSize        = 256
)

// skuSeparator splits the owner segment from the SKU in a derived barcode.
// SKUs may not contain it, so every barcode maps back to one owner and SKU.
const skuSeparator = "/"

// DeriveBarcode builds the product barcode from its place in the hierarchy:
// HALAL-S<store>/<SKU> for store products, HALAL-S<store>-L<sub>/<SKU> for
// sub-location products and HALAL/<SKU> for unowned ones. parentStoreID is
// only read for sub-location owners.
func DeriveBarcode(owner models.Owner, parentStoreID int64, sku string) string {
	sku = strings.ToUpper(strings.TrimSpace(sku))
	switch owner.Kind() {
	case models.OwnerStore:
		return fmt.Sprintf("HALAL-S%d%s%s", owner.ID(), skuSeparator, sku)
	case models.OwnerSubLocation:
		return fmt.Sprintf("HALAL-S%d-L%d%s%s", parentStoreID, owner.ID(), skuSeparator, sku)
	}
	return "HALAL" + skuSeparator + sku
}

// QRPayload is what a product QR code encodes. scan_barcode accepts it back.
type QRPayload struct {
	ID      string `json:"id"`
	Barcode string `json:"barcode"`
}

// LabelService renders barcode and QR images as PNG data URIs.
type LabelService struct{}

// NewLabelService creates a new LabelService.
func NewLabelService() *LabelService {
	return &LabelService{}
}

// Render returns the Code 128 and QR images for p.
func (s *LabelService) Render(p *models.Product) (barcodeImage, qrImage string, err error) {
	bc, err := code128.Encode(p.Barcode)
	if err != nil {
		return "", "", fmt.Errorf("encode code128: %w", err)
	}
	width := barcodeWidth
	if w := bc.Bounds().Dx(); w > width {
		width = w
	}
	if barcodeImage, err = toDataURI(bc, width, barcodeHeight); err != nil {
		return "", "", err
	}

	payload, err := json.Marshal(QRPayload{ID: p.ID.String(), Barcode: p.Barcode})
	if err != nil {
		return "", "", err
	}
	code, err := qr.Encode(string(payload), qr.M, qr.Auto)
	if err != nil {
		return "", "", fmt.Errorf("encode qr: %w", err)
	}
	if qrImage, err = toDataURI(code, qrSize, qrSize); err != nil {
		return "", "", err
	}
	return barcodeImage, qrImage, nil
}

func toDataURI(code barcode.Barcode, width, height int) (string, error) {
	scaled, err := barcode.Scale(code, width, height)
	if err != nil {
		return "", fmt.Errorf("scale barcode: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
