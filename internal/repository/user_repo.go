package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/halal_inventory_api/internal/database"
	"github.com/GTDGit/halal_inventory_api/internal/models"
	"github.com/GTDGit/halal_inventory_api/internal/utils"
)

// UserRepository handles data access for user accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByEmail returns a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db.GetContext(ctx, &u, `SELECT * FROM users WHERE email = $1`, email); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID returns a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	if err := r.db.GetContext(ctx, &u, `SELECT * FROM users WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a user.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	const q = `
		INSERT INTO users (email, password_hash, name, role, store_id, sub_location_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, q, u.Email, u.PasswordHash, u.Name, u.Role, u.StoreID, u.SubLocationID, u.IsActive).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err, "users_email_key") {
		return utils.ErrDuplicateEmail
	}
	return err
}

// RegisterStoreOwner creates a store and its owning account together.
func (r *UserRepository) RegisterStoreOwner(ctx context.Context, u *models.User, s *models.Store) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const storeQ = `
			INSERT INTO stores (name, address, phone, email, description)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, is_verified, is_active, created_at, updated_at`
		if err := tx.QueryRowxContext(ctx, storeQ, s.Name, s.Address, s.Phone, s.Email, s.Description).
			Scan(&s.ID, &s.IsVerified, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return err
		}

		u.StoreID = &s.ID
		const userQ = `
			INSERT INTO users (email, password_hash, name, role, store_id, is_active)
			VALUES ($1, $2, $3, $4, $5, TRUE)
			RETURNING id, is_active, created_at, updated_at`
		err := tx.QueryRowxContext(ctx, userQ, u.Email, u.PasswordHash, u.Name, u.Role, u.StoreID).
			Scan(&u.ID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
		if isUniqueViolation(err, "users_email_key") {
			return utils.ErrDuplicateEmail
		}
		if err != nil {
			return err
		}

		s.OwnerID = &u.ID
		_, err = tx.ExecContext(ctx, `UPDATE stores SET owner_id = $2 WHERE id = $1`, s.ID, u.ID)
		return err
	})
}

// TouchLastLogin records a successful login.
func (r *UserRepository) TouchLastLogin(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, id)
	return err
}
