package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable certified unit owned by a store or one of its sub-locations.
// CurrentStock is only ever written by the stock ledger.
type Product struct {
	ID                  uuid.UUID       `db:"id" json:"id"`
	Name                string          `db:"name" json:"name"`
	Description         string          `db:"description" json:"description"`
	SKU                 string          `db:"sku" json:"sku"`
	Barcode             string          `db:"barcode" json:"barcode"`
	CategoryID          int64           `db:"category_id" json:"category_id"`
	SupplierID          int64           `db:"supplier_id" json:"supplier_id"`
	StoreID             *int64          `db:"store_id" json:"store_id"`
	SubLocationID       *int64          `db:"sub_location_id" json:"sub_location_id"`
	Price               decimal.Decimal `db:"price" json:"price"`
	CostPrice           decimal.Decimal `db:"cost_price" json:"cost_price"`
	CurrentStock        int             `db:"current_stock" json:"current_stock"`
	MinimumStock        int             `db:"minimum_stock" json:"minimum_stock"`
	MaximumStock        int             `db:"maximum_stock" json:"maximum_stock"`
	ManufacturingDate   *time.Time      `db:"manufacturing_date" json:"manufacturing_date"`
	ExpiryDate          *time.Time      `db:"expiry_date" json:"expiry_date"`
	IsCertified         bool            `db:"is_certified" json:"is_certified"`
	CertificationNumber string          `db:"certification_number" json:"certification_number"`
	CertifiedBy         *int64          `db:"certified_by" json:"certified_by,omitempty"`
	CertifiedAt         *time.Time      `db:"certified_at" json:"certified_at,omitempty"`
	BarcodeImage        string          `db:"barcode_image" json:"barcode_image"`
	QRCodeImage         string          `db:"qr_code_image" json:"qr_code_image"`
	IsActive            bool            `db:"is_active" json:"is_active"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time       `db:"updated_at" json:"updated_at"`

	// Populated by joins on list queries.
	CategoryName string `db:"category_name" json:"category_name,omitempty"`
	SupplierName string `db:"supplier_name" json:"supplier_name,omitempty"`
}

// Owner returns the product's place in the store hierarchy.
func (p *Product) Owner() Owner {
	o, _ := OwnerFromColumns(p.StoreID, p.SubLocationID)
	return o
}

// SetOwner writes the owner columns.
func (p *Product) SetOwner(o Owner) {
	p.StoreID, p.SubLocationID = o.Columns()
}

// StockValue is current_stock × cost_price.
func (p *Product) StockValue() decimal.Decimal {
	return p.CostPrice.Mul(decimal.NewFromInt(int64(p.CurrentStock)))
}

// ProductFilter narrows product list queries.
type ProductFilter struct {
	Scope           Scope
	Search          string
	CategoryID      *int64
	SupplierID      *int64
	StoreID         *int64
	SubLocationID   *int64
	IncludeInactive bool
	Page            int
	Limit           int
}
