package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/halal_inventory_api/internal/database"
	"github.com/GTDGit/halal_inventory_api/internal/models"
	"github.com/GTDGit/halal_inventory_api/internal/utils"
)

// ProductRepository handles data access for products.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productSelect = `
	SELECT p.*, c.name AS category_name, s.name AS supplier_name
	FROM products p
	JOIN categories c ON c.id = p.category_id
	JOIN suppliers s ON s.id = p.supplier_id`

// productErr maps constraint violations on products to caller-facing errors.
func productErr(err error) error {
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err, "products_barcode_key"):
		return utils.ErrDuplicateBarcode
	case isUniqueViolation(err, ""):
		return utils.ErrDuplicateSKU
	case isForeignKeyViolation(err, "products_category_id_fkey"):
		return utils.ErrCategoryNotFound
	case isForeignKeyViolation(err, "products_supplier_id_fkey"):
		return utils.ErrSupplierNotFound
	case isForeignKeyViolation(err, "products_store_id_fkey"):
		return utils.ErrStoreNotFound
	case isForeignKeyViolation(err, "products_sub_location_id_fkey"):
		return utils.ErrSubLocationNotFound
	}
	return err
}

// Create inserts a product and, when opening is non-nil, the ledger entry that
// brings it from 0 to its initial stock. Both land in one transaction.
func (r *ProductRepository) Create(ctx context.Context, p *models.Product, opening *models.StockTransaction) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const q = `
			INSERT INTO products (
				id, name, description, sku, barcode, category_id, supplier_id, store_id, sub_location_id,
				price, cost_price, current_stock, minimum_stock, maximum_stock,
				manufacturing_date, expiry_date, is_certified, certification_number, certified_by, certified_at,
				barcode_image, qr_code_image, is_active
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
			RETURNING created_at, updated_at`

		err := tx.QueryRowxContext(ctx, q,
			p.ID, p.Name, p.Description, p.SKU, p.Barcode, p.CategoryID, p.SupplierID, p.StoreID, p.SubLocationID,
			p.Price, p.CostPrice, p.CurrentStock, p.MinimumStock, p.MaximumStock,
			p.ManufacturingDate, p.ExpiryDate, p.IsCertified, p.CertificationNumber, p.CertifiedBy, p.CertifiedAt,
			p.BarcodeImage, p.QRCodeImage, p.IsActive,
		).Scan(&p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return productErr(err)
		}

		if opening != nil {
			opening.ProductID = p.ID
			return insertTransaction(ctx, tx, opening)
		}
		return nil
	})
}

// GetByID returns a visible product by id. Out-of-scope products are reported as sql.ErrNoRows.
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID, scope models.Scope) (*models.Product, error) {
	where, args, _ := scopeClause("p", scope, 2)
	q := productSelect + ` WHERE p.id = $1 AND ` + where

	var p models.Product
	if err := r.db.GetContext(ctx, &p, q, append([]interface{}{id}, args...)...); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByBarcode returns an active certified product by barcode within scope.
func (r *ProductRepository) GetByBarcode(ctx context.Context, barcode string, scope models.Scope) (*models.Product, error) {
	where, args, _ := scopeClause("p", scope, 2)
	q := productSelect + ` WHERE p.barcode = $1 AND p.is_active AND p.is_certified AND ` + where

	var p models.Product
	if err := r.db.GetContext(ctx, &p, q, append([]interface{}{barcode}, args...)...); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns products with filters and pagination and also returns the total count.
func (r *ProductRepository) List(ctx context.Context, f models.ProductFilter) ([]models.Product, int, error) {
	_, limit, offset := pageBounds(f.Page, f.Limit)

	where, args, argIdx := scopeClause("p", f.Scope, 1)
	baseQ := ` WHERE ` + where
	if !f.IncludeInactive {
		baseQ += " AND p.is_active"
	}
	if f.Search != "" {
		baseQ += fmt.Sprintf(" AND (p.name ILIKE $%d OR p.sku ILIKE $%d OR p.barcode ILIKE $%d)", argIdx, argIdx, argIdx)
		args = append(args, "%"+f.Search+"%")
		argIdx++
	}
	if f.CategoryID != nil {
		baseQ += fmt.Sprintf(" AND p.category_id = $%d", argIdx)
		args = append(args, *f.CategoryID)
		argIdx++
	}
	if f.SupplierID != nil {
		baseQ += fmt.Sprintf(" AND p.supplier_id = $%d", argIdx)
		args = append(args, *f.SupplierID)
		argIdx++
	}
	if f.StoreID != nil {
		baseQ += fmt.Sprintf(" AND p.store_id = $%d", argIdx)
		args = append(args, *f.StoreID)
		argIdx++
	}
	if f.SubLocationID != nil {
		baseQ += fmt.Sprintf(" AND p.sub_location_id = $%d", argIdx)
		args = append(args, *f.SubLocationID)
		argIdx++
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(1) FROM products p`+baseQ, args...); err != nil {
		return nil, 0, err
	}

	listQ := productSelect + baseQ + fmt.Sprintf(` ORDER BY p.name, p.id LIMIT $%d OFFSET $%d`, argIdx, argIdx+1)
	products := []models.Product{}
	if err := r.db.SelectContext(ctx, &products, listQ, append(args, limit, offset)...); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// ListExpiringBetween returns active certified products whose expiry date lies in [from, to].
func (r *ProductRepository) ListExpiringBetween(ctx context.Context, scope models.Scope, from, to time.Time) ([]models.Product, error) {
	where, args, argIdx := scopeClause("p", scope, 1)
	q := productSelect + fmt.Sprintf(`
		WHERE p.is_active AND p.is_certified AND %s
		AND p.expiry_date >= $%d::date AND p.expiry_date <= $%d::date
		ORDER BY p.expiry_date, p.name`, where, argIdx, argIdx+1)

	products := []models.Product{}
	err := r.db.SelectContext(ctx, &products, q, append(args, from.Format(dateLayout), to.Format(dateLayout))...)
	return products, err
}

// ListExpiredBefore returns active certified products whose expiry date is before day.
func (r *ProductRepository) ListExpiredBefore(ctx context.Context, scope models.Scope, day time.Time) ([]models.Product, error) {
	where, args, argIdx := scopeClause("p", scope, 1)
	q := productSelect + fmt.Sprintf(`
		WHERE p.is_active AND p.is_certified AND %s
		AND p.expiry_date < $%d::date
		ORDER BY p.expiry_date, p.name`, where, argIdx)

	products := []models.Product{}
	err := r.db.SelectContext(ctx, &products, q, append(args, day.Format(dateLayout))...)
	return products, err
}

// ListLowStock returns active certified products at or below their minimum stock.
func (r *ProductRepository) ListLowStock(ctx context.Context, scope models.Scope) ([]models.Product, error) {
	where, args, _ := scopeClause("p", scope, 1)
	q := productSelect + `
		WHERE p.is_active AND p.is_certified AND ` + where + `
		AND p.current_stock <= p.minimum_stock
		ORDER BY p.current_stock, p.name`

	products := []models.Product{}
	err := r.db.SelectContext(ctx, &products, q, args...)
	return products, err
}

// ListAlertCandidates returns active certified products expiring on or before until.
func (r *ProductRepository) ListAlertCandidates(ctx context.Context, scope models.Scope, until time.Time) ([]models.Product, error) {
	where, args, argIdx := scopeClause("p", scope, 1)
	q := fmt.Sprintf(`
		SELECT p.* FROM products p
		WHERE p.is_active AND p.is_certified AND %s
		AND p.expiry_date IS NOT NULL AND p.expiry_date <= $%d::date
		ORDER BY p.expiry_date, p.id`, where, argIdx)

	products := []models.Product{}
	err := r.db.SelectContext(ctx, &products, q, append(args, until.Format(dateLayout))...)
	return products, err
}

// Update writes the editable catalog fields. current_stock is never touched here.
func (r *ProductRepository) Update(ctx context.Context, p *models.Product) error {
	const q = `
		UPDATE products SET
			name = $2, description = $3, category_id = $4, supplier_id = $5,
			price = $6, cost_price = $7, minimum_stock = $8, maximum_stock = $9,
			manufacturing_date = $10, expiry_date = $11, certification_number = $12, is_active = $13,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, q,
		p.ID, p.Name, p.Description, p.CategoryID, p.SupplierID,
		p.Price, p.CostPrice, p.MinimumStock, p.MaximumStock,
		p.ManufacturingDate, p.ExpiryDate, p.CertificationNumber, p.IsActive,
	).Scan(&p.UpdatedAt)
	return productErr(err)
}

// SetImages stores rendered barcode and QR images.
func (r *ProductRepository) SetImages(ctx context.Context, id uuid.UUID, barcodeImage, qrImage string) error {
	const q = `UPDATE products SET barcode_image = $2, qr_code_image = $3 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id, barcodeImage, qrImage)
	return err
}

// Deactivate soft-deletes a visible product.
func (r *ProductRepository) Deactivate(ctx context.Context, id uuid.UUID, scope models.Scope) error {
	where, args, _ := scopeClause("p", scope, 2)
	q := `UPDATE products p SET is_active = FALSE, updated_at = NOW() WHERE p.id = $1 AND ` + where

	res, err := r.db.ExecContext(ctx, q, append([]interface{}{id}, args...)...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ExistsInScope is a cheap visibility probe.
func (r *ProductRepository) ExistsInScope(ctx context.Context, id uuid.UUID, scope models.Scope) (bool, error) {
	where, args, _ := scopeClause("p", scope, 2)
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM products p WHERE p.id = $1 AND `+where+`)`,
		append([]interface{}{id}, args...)...)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}
	return exists, nil
}
