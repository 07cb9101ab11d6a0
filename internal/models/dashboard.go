package models

import "github.com/shopspring/decimal"

// InventoryStats is the counter block shown on dashboards.
type InventoryStats struct {
	TotalProducts   int             `db:"total_products" json:"total_products"`
	OutOfStock      int             `db:"out_of_stock" json:"out_of_stock_products"`
	LowStock        int             `db:"low_stock" json:"low_stock_products"`
	Normal          int             `db:"normal" json:"normal_stock_products"`
	Overstock       int             `db:"overstock" json:"overstock_products"`
	ExpiringSoon    int             `db:"expiring_soon" json:"expiring_soon_products"`
	Expired         int             `db:"expired" json:"expired_products"`
	TotalStockValue decimal.Decimal `db:"total_stock_value" json:"total_stock_value"`
	TotalStockUnits int64           `db:"total_stock_units" json:"total_stock_units"`
}

// SubLocationStats is InventoryStats restricted to one sub-location.
type SubLocationStats struct {
	SubLocation SubLocation    `json:"sub_location"`
	Stats       InventoryStats `json:"stats"`
}
