package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AlertKind is EXPIRING_SOON or EXPIRED.
type AlertKind string

const (
	AlertExpiringSoon AlertKind = "EXPIRING_SOON"
	AlertExpired      AlertKind = "EXPIRED"
)

// AlertKinds lists every alert kind in display order.
var AlertKinds = []AlertKind{AlertExpiringSoon, AlertExpired}

// ParseAlertKind validates a kind from a query string.
func ParseAlertKind(s string) (AlertKind, error) {
	switch k := AlertKind(strings.ToUpper(strings.TrimSpace(s))); k {
	case AlertExpiringSoon, AlertExpired:
		return k, nil
	}
	return "", fmt.Errorf("unknown alert type %q", s)
}

// ExpiryAlert is the at-most-one notice per (product, kind).
type ExpiryAlert struct {
	ID        int64     `db:"id" json:"id"`
	ProductID uuid.UUID `db:"product_id" json:"product_id"`
	AlertType AlertKind `db:"alert_type" json:"alert_type"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	ProductName string     `db:"product_name" json:"product_name,omitempty"`
	ExpiryDate  *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
}

// AlertFilter narrows alert listings.
type AlertFilter struct {
	Scope      Scope
	Kind       AlertKind
	UnreadOnly bool
	Limit      int
}
