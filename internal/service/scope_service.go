package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/halal_inventory_api/internal/models"
	"github.com/GTDGit/halal_inventory_api/internal/utils"
)

// ScopeService turns an authenticated actor into the set of products it may see.
type ScopeService struct {
	stores StoreDirectory
}

// NewScopeService creates a new ScopeService.
func NewScopeService(stores StoreDirectory) *ScopeService {
	return &ScopeService{stores: stores}
}

// Resolve returns the actor's visible scope:
//   - admin: everything
//   - store owner: the store plus its active sub-locations
//   - sub-location manager: that sub-location
//   - anything else: nothing
func (s *ScopeService) Resolve(ctx context.Context, actor *models.Actor) (models.Scope, error) {
	if actor == nil {
		return models.Scope{}, nil
	}

	switch actor.Role {
	case models.RoleAdmin:
		return models.AllScope(), nil

	case models.RoleStoreOwner:
		if actor.StoreID == nil {
			return models.Scope{}, nil
		}
		subs, err := s.stores.ActiveSubLocationIDs(ctx, *actor.StoreID)
		if err != nil {
			return models.Scope{}, fmt.Errorf("resolve sub-locations: %w", err)
		}
		return models.Scope{StoreIDs: []int64{*actor.StoreID}, SubLocationIDs: subs}, nil

	case models.RoleSubLocationManager:
		if actor.SubLocationID == nil {
			return models.Scope{}, nil
		}
		return models.Scope{SubLocationIDs: []int64{*actor.SubLocationID}}, nil
	}

	log.Warn().Int64("user_id", actor.UserID).Str("role", string(actor.Role)).Msg("Unknown role resolved to empty scope")
	return models.Scope{}, nil
}

// Narrow restricts a visible scope to one store (with its active
// sub-locations) or one sub-location. Targets outside the visible scope are
// reported as not found.
func (s *ScopeService) Narrow(ctx context.Context, visible models.Scope, target models.Owner) (models.Scope, error) {
	switch target.Kind() {
	case models.OwnerStore:
		if !visible.HasStore(target.ID()) {
			return models.Scope{}, utils.ErrStoreNotFound
		}
		if _, err := s.stores.GetStore(ctx, target.ID()); err != nil {
			return models.Scope{}, notFound(err, utils.ErrStoreNotFound)
		}
		subs, err := s.stores.ActiveSubLocationIDs(ctx, target.ID())
		if err != nil {
			return models.Scope{}, err
		}
		var visibleSubs []int64
		for _, id := range subs {
			if visible.HasSubLocation(id) {
				visibleSubs = append(visibleSubs, id)
			}
		}
		return models.Scope{StoreIDs: []int64{target.ID()}, SubLocationIDs: visibleSubs}, nil

	case models.OwnerSubLocation:
		if !visible.HasSubLocation(target.ID()) {
			return models.Scope{}, utils.ErrSubLocationNotFound
		}
		if _, err := s.stores.GetSubLocation(ctx, target.ID()); err != nil {
			return models.Scope{}, notFound(err, utils.ErrSubLocationNotFound)
		}
		return models.Scope{SubLocationIDs: []int64{target.ID()}}, nil
	}
	return models.Scope{}, utils.NewValidationError("store_type", "must be store or sub_location")
}
