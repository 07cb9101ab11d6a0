package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/halal_inventory_api/internal/models"
)

// DashboardRepository computes read-only inventory rollups.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository creates a new DashboardRepository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Stats aggregates the counter block over active certified products in scope.
// today and horizonEnd are calendar days; the stock buckets mirror the
// classification order (out, low, overstock, normal).
func (r *DashboardRepository) Stats(ctx context.Context, scope models.Scope, today, horizonEnd time.Time) (*models.InventoryStats, error) {
	var stats models.InventoryStats
	if scope.IsEmpty() {
		return &stats, nil
	}

	where, args, argIdx := scopeClause("p", scope, 1)
	q := fmt.Sprintf(`
		SELECT
			COUNT(*) AS total_products,
			COUNT(*) FILTER (WHERE p.current_stock = 0) AS out_of_stock,
			COUNT(*) FILTER (WHERE p.current_stock > 0 AND p.current_stock <= p.minimum_stock) AS low_stock,
			COUNT(*) FILTER (WHERE p.current_stock > 0 AND p.current_stock > p.minimum_stock AND p.current_stock < p.maximum_stock) AS normal,
			COUNT(*) FILTER (WHERE p.current_stock > 0 AND p.current_stock > p.minimum_stock AND p.current_stock >= p.maximum_stock) AS overstock,
			COUNT(*) FILTER (WHERE p.expiry_date >= $%d::date AND p.expiry_date <= $%d::date) AS expiring_soon,
			COUNT(*) FILTER (WHERE p.expiry_date < $%d::date) AS expired,
			COALESCE(SUM(p.current_stock * p.cost_price), 0) AS total_stock_value,
			COALESCE(SUM(p.current_stock), 0) AS total_stock_units
		FROM products p
		WHERE p.is_active AND p.is_certified AND %s`, argIdx, argIdx+1, argIdx, where)

	args = append(args, today.Format(dateLayout), horizonEnd.Format(dateLayout))
	if err := r.db.GetContext(ctx, &stats, q, args...); err != nil {
		return nil, err
	}
	return &stats, nil
}
