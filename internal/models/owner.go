package models

import (
	"errors"
	"fmt"
)

// OwnerKind is the level of the store hierarchy a product hangs off.
type OwnerKind string

const (
	OwnerStore       OwnerKind = "store"
	OwnerSubLocation OwnerKind = "sub_location"
)

// Owner is either Store(id) or SubLocation(id). The zero value is "no owner",
// which only the administrative create path accepts.
type Owner struct {
	kind OwnerKind
	id   int64
}

// StoreOwner returns an owner pointing at a parent store.
func StoreOwner(id int64) Owner {
	return Owner{kind: OwnerStore, id: id}
}

// SubLocationOwner returns an owner pointing at a sub-location.
func SubLocationOwner(id int64) Owner {
	return Owner{kind: OwnerSubLocation, id: id}
}

// ParseOwner builds an owner from its wire form (store_type + store_id).
func ParseOwner(kind string, id int64) (Owner, error) {
	if id <= 0 {
		return Owner{}, errors.New("store_id must be positive")
	}
	switch OwnerKind(kind) {
	case OwnerStore:
		return StoreOwner(id), nil
	case OwnerSubLocation, "substore":
		return SubLocationOwner(id), nil
	}
	return Owner{}, fmt.Errorf("unknown store_type %q", kind)
}

// Kind reports which level of the hierarchy owns the product.
func (o Owner) Kind() OwnerKind { return o.kind }

// ID is the store or sub-location id.
func (o Owner) ID() int64 { return o.id }

// IsZero reports the unowned value.
func (o Owner) IsZero() bool { return o.kind == "" }

// Columns returns the (store_id, sub_location_id) pair stored on a product row.
// At most one is non-nil.
func (o Owner) Columns() (storeID, subLocationID *int64) {
	id := o.id
	switch o.kind {
	case OwnerStore:
		return &id, nil
	case OwnerSubLocation:
		return nil, &id
	}
	return nil, nil
}

func (o Owner) String() string {
	if o.IsZero() {
		return "unowned"
	}
	return fmt.Sprintf("%s:%d", o.kind, o.id)
}

// OwnerFromColumns rebuilds an Owner from a product row.
func OwnerFromColumns(storeID, subLocationID *int64) (Owner, error) {
	switch {
	case storeID != nil && subLocationID != nil:
		return Owner{}, errors.New("product has both store and sub-location set")
	case storeID != nil:
		return StoreOwner(*storeID), nil
	case subLocationID != nil:
		return SubLocationOwner(*subLocationID), nil
	}
	return Owner{}, nil
}
