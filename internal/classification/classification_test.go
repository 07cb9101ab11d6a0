package classification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/halal_inventory_api/internal/models"
)

var today = time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

func daysFromToday(n int) *time.Time {
	d := today.AddDate(0, 0, n)
	return &d
}

func TestStockStatusOf(t *testing.T) {
	tests := []struct {
		name                      string
		current, minimum, maximum int
		want                      StockStatus
	}{
		{"zero stock", 0, 10, 100, OutOfStock},
		{"zero stock with zero minimum", 0, 0, 100, OutOfStock},
		{"at minimum", 10, 10, 100, LowStock},
		{"below minimum", 5, 10, 100, LowStock},
		{"between bounds", 50, 10, 100, Normal},
		{"at maximum", 100, 10, 100, Overstock},
		{"above maximum", 150, 10, 100, Overstock},
		{"minimum equals maximum", 10, 10, 10, LowStock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StockStatusOf(tt.current, tt.minimum, tt.maximum))
		})
	}
}

func TestStockStatusOf_TotalAndExclusive(t *testing.T) {
	valid := map[StockStatus]bool{OutOfStock: true, LowStock: true, Normal: true, Overstock: true}
	for current := 0; current <= 25; current++ {
		for minimum := 0; minimum <= 12; minimum++ {
			for maximum := minimum; maximum <= 20; maximum++ {
				got := StockStatusOf(current, minimum, maximum)
				require.True(t, valid[got], "no status for (%d,%d,%d)", current, minimum, maximum)

				matches := 0
				if current == 0 {
					matches++
				}
				if current > 0 && current <= minimum {
					matches++
				}
				if current > minimum && current >= maximum {
					matches++
				}
				if current > minimum && current < maximum {
					matches++
				}
				require.Equal(t, 1, matches, "(%d,%d,%d)", current, minimum, maximum)
			}
		}
	}
}

func TestExpiry(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name     string
		expiry   *time.Time
		expired  bool
		expiring bool
		days     *int
	}{
		{"no expiry date", nil, false, false, nil},
		{"yesterday", daysFromToday(-1), true, false, intPtr(-1)},
		{"today", daysFromToday(0), false, true, intPtr(0)},
		{"in ten days", daysFromToday(10), false, true, intPtr(10)},
		{"on the horizon", daysFromToday(30), false, true, intPtr(30)},
		{"past the horizon", daysFromToday(31), false, false, intPtr(31)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expired, IsExpired(tt.expiry, today))
			assert.Equal(t, tt.expiring, p.IsExpiringSoon(tt.expiry, today))
			assert.Equal(t, tt.days, DaysUntilExpiry(tt.expiry, today))
		})
	}
}

func TestExpiry_MutuallyExclusive(t *testing.T) {
	for _, horizon := range []int{0, 1, 7, 30, 90} {
		p := Policy{HorizonDays: horizon}
		for offset := -60; offset <= 120; offset++ {
			expiry := daysFromToday(offset)
			assert.False(t, IsExpired(expiry, today) && p.IsExpiringSoon(expiry, today),
				"horizon %d offset %d", horizon, offset)
		}
	}
}

func TestExpiry_IgnoresTimeOfDay(t *testing.T) {
	lateToday := today.Add(23 * time.Hour)
	expiry := today.Add(time.Hour)
	assert.False(t, IsExpired(&expiry, lateToday))
	assert.Equal(t, 0, *DaysUntilExpiry(&expiry, lateToday))
}

func TestToday(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	now := time.Date(2026, 10, 15, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), Today(now, jakarta))
	assert.Equal(t, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), Today(now, nil))
}

func TestClassify(t *testing.T) {
	p := DefaultPolicy()
	prod := &models.Product{CurrentStock: 5, MinimumStock: 10, MaximumStock: 100, ExpiryDate: daysFromToday(10)}

	s := p.Classify(prod, today)
	assert.Equal(t, LowStock, s.StockStatus)
	assert.True(t, s.IsLowStock)
	assert.True(t, s.IsExpiringSoon)
	assert.False(t, s.IsExpired)
	assert.Equal(t, 10, *s.DaysUntilExpiry)

	kind, ok := p.AlertKindFor(prod.ExpiryDate, today)
	assert.True(t, ok)
	assert.Equal(t, models.AlertExpiringSoon, kind)

	kind, ok = p.AlertKindFor(daysFromToday(-3), today)
	assert.True(t, ok)
	assert.Equal(t, models.AlertExpired, kind)

	_, ok = p.AlertKindFor(daysFromToday(45), today)
	assert.False(t, ok)
}

func intPtr(v int) *int { return &v }
