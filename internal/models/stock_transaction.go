package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TransactionKind is the closed set of ledger entry kinds.
type TransactionKind string

const (
	TransactionIn         TransactionKind = "IN"
	TransactionOut        TransactionKind = "OUT"
	TransactionAdjustment TransactionKind = "ADJUSTMENT"
	TransactionExpired    TransactionKind = "EXPIRED"
)

// ParseTransactionKind accepts only the known kinds (case-insensitive).
func ParseTransactionKind(s string) (TransactionKind, error) {
	switch k := TransactionKind(strings.ToUpper(strings.TrimSpace(s))); k {
	case TransactionIn, TransactionOut, TransactionAdjustment, TransactionExpired:
		return k, nil
	}
	return "", fmt.Errorf("unknown transaction type %q", s)
}

// StockTransaction is one immutable ledger entry.
type StockTransaction struct {
	ID              int64           `db:"id" json:"id"`
	ProductID       uuid.UUID       `db:"product_id" json:"product_id"`
	TransactionType TransactionKind `db:"transaction_type" json:"transaction_type"`
	Quantity        int             `db:"quantity" json:"quantity"`
	PreviousStock   int             `db:"previous_stock" json:"previous_stock"`
	NewStock        int             `db:"new_stock" json:"new_stock"`
	Reason          string          `db:"reason" json:"reason"`
	UserID          *int64          `db:"user_id" json:"user_id"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`

	ProductName string `db:"product_name" json:"product_name,omitempty"`
	ProductSKU  string `db:"product_sku" json:"product_sku,omitempty"`
}

// TransactionFilter narrows ledger listings.
type TransactionFilter struct {
	Scope     Scope
	ProductID *uuid.UUID
	Kind      TransactionKind
	Page      int
	Limit     int
}
