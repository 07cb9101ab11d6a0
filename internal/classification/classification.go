// Package classification derives stock and expiry labels from a product
// snapshot. Nothing here is persisted; results depend on the "today" passed in.
package classification

import (
	"time"

	"github.com/GTDGit/halal_inventory_api/internal/models"
)

// StockStatus is exactly one of the four stock levels.
type StockStatus string

const (
	OutOfStock StockStatus = "OUT_OF_STOCK"
	LowStock   StockStatus = "LOW_STOCK"
	Normal     StockStatus = "NORMAL"
	Overstock  StockStatus = "OVERSTOCK"
)

// DefaultHorizonDays is how far ahead a product counts as expiring soon.
const DefaultHorizonDays = 30

// Policy carries the tunable thresholds.
type Policy struct {
	HorizonDays int
}

// DefaultPolicy uses the 30 day expiry horizon.
func DefaultPolicy() Policy {
	return Policy{HorizonDays: DefaultHorizonDays}
}

// StockStatusOf checks zero first, then minimum, then maximum.
func StockStatusOf(current, minimum, maximum int) StockStatus {
	switch {
	case current == 0:
		return OutOfStock
	case current <= minimum:
		return LowStock
	case current >= maximum:
		return Overstock
	default:
		return Normal
	}
}

// IsLowStock is the reorder predicate: at or below minimum, zero included.
func IsLowStock(current, minimum int) bool {
	return current <= minimum
}

// DateOf drops the clock part of t, keeping its calendar date in t's location.
// The result is midnight UTC so dates from any source compare directly.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today is the calendar date of now in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(now.In(loc))
}

// IsExpired reports expiry < today. No expiry date never expires.
func IsExpired(expiry *time.Time, today time.Time) bool {
	if expiry == nil {
		return false
	}
	return DateOf(*expiry).Before(DateOf(today))
}

// HorizonEnd is the last date that still counts as expiring soon.
func (p Policy) HorizonEnd(today time.Time) time.Time {
	return DateOf(today).AddDate(0, 0, p.HorizonDays)
}

// IsExpiringSoon reports expiry <= today+horizon for products that are not yet expired.
func (p Policy) IsExpiringSoon(expiry *time.Time, today time.Time) bool {
	if expiry == nil || IsExpired(expiry, today) {
		return false
	}
	return !DateOf(*expiry).After(p.HorizonEnd(today))
}

// DaysUntilExpiry is negative once expired and nil without an expiry date.
func DaysUntilExpiry(expiry *time.Time, today time.Time) *int {
	if expiry == nil {
		return nil
	}
	days := int(DateOf(*expiry).Sub(DateOf(today)).Hours() / 24)
	return &days
}

// Snapshot is every derived label for one product.
type Snapshot struct {
	StockStatus     StockStatus `json:"stock_status"`
	IsLowStock      bool        `json:"is_low_stock"`
	IsExpired       bool        `json:"is_expired"`
	IsExpiringSoon  bool        `json:"is_expiring_soon"`
	DaysUntilExpiry *int        `json:"days_until_expiry"`
}

// Classify derives the snapshot for p as of today.
func (p Policy) Classify(prod *models.Product, today time.Time) Snapshot {
	return Snapshot{
		StockStatus:     StockStatusOf(prod.CurrentStock, prod.MinimumStock, prod.MaximumStock),
		IsLowStock:      IsLowStock(prod.CurrentStock, prod.MinimumStock),
		IsExpired:       IsExpired(prod.ExpiryDate, today),
		IsExpiringSoon:  p.IsExpiringSoon(prod.ExpiryDate, today),
		DaysUntilExpiry: DaysUntilExpiry(prod.ExpiryDate, today),
	}
}

// AlertKindFor returns the alert a product currently deserves, if any.
func (p Policy) AlertKindFor(expiry *time.Time, today time.Time) (models.AlertKind, bool) {
	switch {
	case IsExpired(expiry, today):
		return models.AlertExpired, true
	case p.IsExpiringSoon(expiry, today):
		return models.AlertExpiringSoon, true
	}
	return "", false
}
