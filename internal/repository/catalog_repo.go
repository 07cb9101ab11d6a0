package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/halal_inventory_api/internal/models"
	"github.com/GTDGit/halal_inventory_api/internal/utils"
)

// CatalogRepository handles data access for categories and suppliers.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListCategories returns all categories by name.
func (r *CatalogRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := r.db.SelectContext(ctx, &categories, `SELECT * FROM categories ORDER BY name`)
	return categories, err
}

// GetCategory returns a category by id.
func (r *CatalogRepository) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	var c models.Category
	if err := r.db.GetContext(ctx, &c, `SELECT * FROM categories WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCategory inserts a category. Names are unique.
func (r *CatalogRepository) CreateCategory(ctx context.Context, c *models.Category) error {
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO categories (name, description) VALUES ($1, $2) RETURNING id, created_at`,
		c.Name, c.Description,
	).Scan(&c.ID, &c.CreatedAt)
	if isUniqueViolation(err, "") {
		return utils.NewConflictError(utils.ErrDuplicateName, "a category with this name already exists")
	}
	return err
}

// UpdateCategory rewrites name and description.
func (r *CatalogRepository) UpdateCategory(ctx context.Context, c *models.Category) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = $2, description = $3 WHERE id = $1`, c.ID, c.Name, c.Description)
	if isUniqueViolation(err, "") {
		return utils.NewConflictError(utils.ErrDuplicateName, "a category with this name already exists")
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return utils.ErrCategoryNotFound
	}
	return nil
}

// DeleteCategory removes an unused category.
func (r *CatalogRepository) DeleteCategory(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if isForeignKeyViolation(err, "") {
		return utils.ErrInUse
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return utils.ErrCategoryNotFound
	}
	return nil
}

// ListSuppliers returns suppliers by name, optionally only certified ones.
func (r *CatalogRepository) ListSuppliers(ctx context.Context, certifiedOnly bool) ([]models.Supplier, error) {
	q := `SELECT * FROM suppliers`
	if certifiedOnly {
		q += ` WHERE is_certified`
	}
	suppliers := []models.Supplier{}
	err := r.db.SelectContext(ctx, &suppliers, q+` ORDER BY name, id`)
	return suppliers, err
}

// GetSupplier returns a supplier by id.
func (r *CatalogRepository) GetSupplier(ctx context.Context, id int64) (*models.Supplier, error) {
	var s models.Supplier
	if err := r.db.GetContext(ctx, &s, `SELECT * FROM suppliers WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSupplier inserts a supplier.
func (r *CatalogRepository) CreateSupplier(ctx context.Context, s *models.Supplier) error {
	const q = `
		INSERT INTO suppliers (name, contact_person, phone, email, address, is_certified, certification_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
	return r.db.QueryRowxContext(ctx, q,
		s.Name, s.ContactPerson, s.Phone, s.Email, s.Address, s.IsCertified, s.CertificationNumber,
	).Scan(&s.ID, &s.CreatedAt)
}

// UpdateSupplier rewrites a supplier's editable fields.
func (r *CatalogRepository) UpdateSupplier(ctx context.Context, s *models.Supplier) error {
	const q = `
		UPDATE suppliers SET name = $2, contact_person = $3, phone = $4, email = $5, address = $6,
			is_certified = $7, certification_number = $8
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q,
		s.ID, s.Name, s.ContactPerson, s.Phone, s.Email, s.Address, s.IsCertified, s.CertificationNumber)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return utils.ErrSupplierNotFound
	}
	return nil
}

// CatalogCounts backs the dashboard header.
type CatalogCounts struct {
	Categories         int `db:"categories" json:"total_categories"`
	Suppliers          int `db:"suppliers" json:"total_suppliers"`
	CertifiedSuppliers int `db:"certified_suppliers" json:"certified_suppliers"`
}

// Counts returns category and supplier totals.
func (r *CatalogRepository) Counts(ctx context.Context) (*CatalogCounts, error) {
	var c CatalogCounts
	const q = `
		SELECT
			(SELECT COUNT(*) FROM categories) AS categories,
			COUNT(*) AS suppliers,
			COUNT(*) FILTER (WHERE is_certified) AS certified_suppliers
		FROM suppliers`
	if err := r.db.GetContext(ctx, &c, q); err != nil {
		return nil, err
	}
	return &c, nil
}
