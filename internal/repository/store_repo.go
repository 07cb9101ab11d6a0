package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/GTDGit/halal_inventory_api/internal/models"
	"github.com/GTDGit/halal_inventory_api/internal/utils"
)

// StoreRepository handles data access for stores and their sub-locations.
type StoreRepository struct {
	db *sqlx.DB
}

// NewStoreRepository creates a new StoreRepository.
func NewStoreRepository(db *sqlx.DB) *StoreRepository {
	return &StoreRepository{db: db}
}

// GetStore returns a store by id.
func (r *StoreRepository) GetStore(ctx context.Context, id int64) (*models.Store, error) {
	var s models.Store
	if err := r.db.GetContext(ctx, &s, `SELECT * FROM stores WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListStores returns stores by id, or all stores when ids is nil.
func (r *StoreRepository) ListStores(ctx context.Context, ids []int64) ([]models.Store, error) {
	stores := []models.Store{}
	var err error
	if ids == nil {
		err = r.db.SelectContext(ctx, &stores, `SELECT * FROM stores ORDER BY name, id`)
	} else {
		err = r.db.SelectContext(ctx, &stores, `SELECT * FROM stores WHERE id = ANY($1) ORDER BY name, id`, pq.Array(ids))
	}
	return stores, err
}

// SetStoreActive toggles the store's activity flag.
func (r *StoreRepository) SetStoreActive(ctx context.Context, id int64, active bool) (*models.Store, error) {
	var s models.Store
	const q = `UPDATE stores SET is_active = $2, updated_at = NOW() WHERE id = $1 RETURNING *`
	if err := r.db.GetContext(ctx, &s, q, id, active); err != nil {
		return nil, err
	}
	return &s, nil
}

// VerifyStore marks a store verified by an administrator.
func (r *StoreRepository) VerifyStore(ctx context.Context, id, adminID int64) (*models.Store, error) {
	var s models.Store
	const q = `
		UPDATE stores SET is_verified = TRUE, verified_by = $2, verified_at = NOW(), updated_at = NOW()
		WHERE id = $1 RETURNING *`
	if err := r.db.GetContext(ctx, &s, q, id, adminID); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSubLocation returns a sub-location by id.
func (r *StoreRepository) GetSubLocation(ctx context.Context, id int64) (*models.SubLocation, error) {
	var l models.SubLocation
	if err := r.db.GetContext(ctx, &l, `SELECT * FROM sub_locations WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &l, nil
}

// ListSubLocations returns a store's sub-locations.
func (r *StoreRepository) ListSubLocations(ctx context.Context, storeID int64, activeOnly bool) ([]models.SubLocation, error) {
	q := `SELECT * FROM sub_locations WHERE store_id = $1`
	if activeOnly {
		q += ` AND is_active`
	}
	q += ` ORDER BY name, id`

	locations := []models.SubLocation{}
	err := r.db.SelectContext(ctx, &locations, q, storeID)
	return locations, err
}

// ActiveSubLocationIDs returns the ids of a store's active sub-locations.
func (r *StoreRepository) ActiveSubLocationIDs(ctx context.Context, storeID int64) ([]int64, error) {
	ids := []int64{}
	err := r.db.SelectContext(ctx, &ids, `SELECT id FROM sub_locations WHERE store_id = $1 AND is_active ORDER BY id`, storeID)
	return ids, err
}

// CreateSubLocation inserts a sub-location. Duplicate names in one store are a conflict.
func (r *StoreRepository) CreateSubLocation(ctx context.Context, l *models.SubLocation) error {
	const q = `
		INSERT INTO sub_locations (store_id, name, address, phone, manager_name, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, q, l.StoreID, l.Name, l.Address, l.Phone, l.ManagerName, l.IsActive).
		Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	switch {
	case isUniqueViolation(err, "sub_locations_store_name_key"):
		return utils.NewConflictError(utils.ErrDuplicateName, "a sub-location with this name already exists in the store")
	case isForeignKeyViolation(err, ""):
		return utils.ErrStoreNotFound
	}
	return err
}

// SetSubLocationActive toggles a sub-location's activity flag.
func (r *StoreRepository) SetSubLocationActive(ctx context.Context, id int64, active bool) (*models.SubLocation, error) {
	var l models.SubLocation
	const q = `UPDATE sub_locations SET is_active = $2, updated_at = NOW() WHERE id = $1 RETURNING *`
	if err := r.db.GetContext(ctx, &l, q, id, active); err != nil {
		return nil, err
	}
	return &l, nil
}

// AllActiveOwners lists every active store and active sub-location as owners.
// Used by the multi-store create "add to all stores" path.
func (r *StoreRepository) AllActiveOwners(ctx context.Context, scope models.Scope) ([]models.Owner, error) {
	var owners []models.Owner

	var storeIDs []int64
	storeQ := `SELECT id FROM stores WHERE is_active`
	var args []interface{}
	if !scope.All {
		storeQ += ` AND id = ANY($1)`
		args = append(args, pq.Array(scope.StoreIDs))
	}
	if err := r.db.SelectContext(ctx, &storeIDs, storeQ+` ORDER BY id`, args...); err != nil {
		return nil, err
	}
	for _, id := range storeIDs {
		owners = append(owners, models.StoreOwner(id))
	}

	var subIDs []int64
	subQ := `SELECT l.id FROM sub_locations l JOIN stores s ON s.id = l.store_id WHERE l.is_active AND s.is_active`
	args = nil
	if !scope.All {
		subQ += ` AND l.id = ANY($1)`
		args = append(args, pq.Array(scope.SubLocationIDs))
	}
	if err := r.db.SelectContext(ctx, &subIDs, subQ+` ORDER BY l.id`, args...); err != nil {
		return nil, err
	}
	for _, id := range subIDs {
		owners = append(owners, models.SubLocationOwner(id))
	}
	return owners, nil
}
