package models

import "time"

// Role decides how an actor's scope is resolved.
type Role string

const (
	RoleAdmin              Role = "admin"
	RoleStoreOwner         Role = "store_owner"
	RoleSubLocationManager Role = "sub_location_manager"
)

// User is an account that can log in.
type User struct {
	ID            int64      `db:"id" json:"id"`
	Email         string     `db:"email" json:"email"`
	PasswordHash  string     `db:"password_hash" json:"-"`
	Name          string     `db:"name" json:"name"`
	Role          Role       `db:"role" json:"role"`
	StoreID       *int64     `db:"store_id" json:"store_id,omitempty"`
	SubLocationID *int64     `db:"sub_location_id" json:"sub_location_id,omitempty"`
	IsActive      bool       `db:"is_active" json:"is_active"`
	LastLoginAt   *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// Actor is the authenticated caller of a request.
type Actor struct {
	UserID        int64
	Email         string
	Role          Role
	StoreID       *int64
	SubLocationID *int64
}

// IsAdmin reports the privileged role.
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// HomeOwner is where products created by this actor land by default.
func (a *Actor) HomeOwner() Owner {
	if a == nil {
		return Owner{}
	}
	switch a.Role {
	case RoleStoreOwner:
		if a.StoreID != nil {
			return StoreOwner(*a.StoreID)
		}
	case RoleSubLocationManager:
		if a.SubLocationID != nil {
			return SubLocationOwner(*a.SubLocationID)
		}
	}
	return Owner{}
}

// UserIDPtr returns the actor id for nullable audit columns.
func (a *Actor) UserIDPtr() *int64 {
	if a == nil || a.UserID == 0 {
		return nil
	}
	id := a.UserID
	return &id
}
