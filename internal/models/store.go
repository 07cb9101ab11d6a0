package models

import "time"

// Store is the parent retail entity of the hierarchy.
type Store struct {
	ID          int64      `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Address     string     `db:"address" json:"address"`
	Phone       string     `db:"phone" json:"phone"`
	Email       string     `db:"email" json:"email"`
	Description string     `db:"description" json:"description"`
	OwnerID     *int64     `db:"owner_id" json:"owner_id,omitempty"`
	IsVerified  bool       `db:"is_verified" json:"is_verified"`
	VerifiedBy  *int64     `db:"verified_by" json:"verified_by,omitempty"`
	VerifiedAt  *time.Time `db:"verified_at" json:"verified_at,omitempty"`
	IsActive    bool       `db:"is_active" json:"is_active"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// SubLocation belongs to exactly one Store; its name is unique within that store.
type SubLocation struct {
	ID          int64     `db:"id" json:"id"`
	StoreID     int64     `db:"store_id" json:"store_id"`
	Name        string    `db:"name" json:"name"`
	Address     string    `db:"address" json:"address"`
	Phone       string    `db:"phone" json:"phone"`
	ManagerName string    `db:"manager_name" json:"manager_name"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
