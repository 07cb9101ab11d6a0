package models

// Scope is the set of products a caller may see, expressed through the store
// hierarchy. A product is in scope when its store_id is in StoreIDs or its
// sub_location_id is in SubLocationIDs. All short-circuits to every product.
type Scope struct {
	All            bool    `json:"all"`
	StoreIDs       []int64 `json:"store_ids"`
	SubLocationIDs []int64 `json:"sub_location_ids"`
}

// AllScope is the privileged scope.
func AllScope() Scope {
	return Scope{All: true}
}

// IsEmpty reports whether the scope can match nothing.
func (s Scope) IsEmpty() bool {
	return !s.All && len(s.StoreIDs) == 0 && len(s.SubLocationIDs) == 0
}

// HasStore reports whether products owned directly by store id are visible.
func (s Scope) HasStore(id int64) bool {
	return s.All || containsID(s.StoreIDs, id)
}

// HasSubLocation reports whether products owned by sub-location id are visible.
func (s Scope) HasSubLocation(id int64) bool {
	return s.All || containsID(s.SubLocationIDs, id)
}

// Allows reports whether an owner lies inside the scope. The zero owner is
// only visible to the privileged scope.
func (s Scope) Allows(o Owner) bool {
	switch o.Kind() {
	case OwnerStore:
		return s.HasStore(o.ID())
	case OwnerSubLocation:
		return s.HasSubLocation(o.ID())
	}
	return s.All
}

// Contains reports whether p is visible in the scope.
func (s Scope) Contains(p *Product) bool {
	if s.All {
		return true
	}
	if p.StoreID != nil {
		return containsID(s.StoreIDs, *p.StoreID)
	}
	if p.SubLocationID != nil {
		return containsID(s.SubLocationIDs, *p.SubLocationID)
	}
	return false
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
