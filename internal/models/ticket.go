package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ProductTicket is a printed shelf label snapshot.
type ProductTicket struct {
	ID         int64           `db:"id" json:"id"`
	ProductID  uuid.UUID       `db:"product_id" json:"product_id"`
	TicketData json.RawMessage `db:"ticket_data" json:"ticket_data"`
	CreatedBy  *int64          `db:"created_by" json:"created_by"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// TicketData is the content rendered on a label.
type TicketData struct {
	ProductName     string  `json:"product_name"`
	SKU             string  `json:"sku"`
	Barcode         string  `json:"barcode"`
	BarcodeImage    string  `json:"barcode_image"`
	QRCodeImage     string  `json:"qr_code_image"`
	Price           string  `json:"price"`
	ExpiryDate      *string `json:"expiry_date"`
	CertifiedStatus string  `json:"certified_status"`
	CertificationNo string  `json:"certification_number"`
	Category        string  `json:"category"`
	Supplier        string  `json:"supplier"`
	GeneratedAt     string  `json:"generated_at"`
}
