package models

import "time"

// Category groups products.
type Category struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Supplier is where products come from; IsCertified tracks its own certificate.
type Supplier struct {
	ID                  int64     `db:"id" json:"id"`
	Name                string    `db:"name" json:"name"`
	ContactPerson       string    `db:"contact_person" json:"contact_person"`
	Phone               string    `db:"phone" json:"phone"`
	Email               string    `db:"email" json:"email"`
	Address             string    `db:"address" json:"address"`
	IsCertified         bool      `db:"is_certified" json:"is_certified"`
	CertificationNumber string    `db:"certification_number" json:"certification_number"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
}
