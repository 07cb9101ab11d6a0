package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/halal_inventory_api/internal/models"
	"github.com/GTDGit/halal_inventory_api/internal/utils"
)

// SubLocationRequest creates a sub-location under a store.
type SubLocationRequest struct {
	StoreID     int64  `json:"store_id"`
	Name        string `json:"name" binding:"required"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	ManagerName string `json:"manager_name"`
}

// StoreWithLocations is a store and its sub-locations.
type StoreWithLocations struct {
	models.Store
	SubLocations []models.SubLocation `json:"sub_locations"`
}

// StoreService manages the store hierarchy.
type StoreService struct {
	stores StoreDirectory
}

// NewStoreService creates a new StoreService.
func NewStoreService(stores StoreDirectory) *StoreService {
	return &StoreService{stores: stores}
}

// List returns the stores whose products are visible in scope, each with
// every sub-location (active or not) the scope can see.
func (s *StoreService) List(ctx context.Context, scope models.Scope) ([]StoreWithLocations, error) {
	var ids []int64
	if !scope.All {
		ids = append(ids, scope.StoreIDs...)
		for _, subID := range scope.SubLocationIDs {
			loc, err := s.stores.GetSubLocation(ctx, subID)
			if err != nil {
				return nil, notFound(err, utils.ErrSubLocationNotFound)
			}
			ids = appendUnique(ids, loc.StoreID)
		}
		if len(ids) == 0 {
			return []StoreWithLocations{}, nil
		}
	}

	stores, err := s.stores.ListStores(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]StoreWithLocations, 0, len(stores))
	for _, st := range stores {
		locs, err := s.stores.ListSubLocations(ctx, st.ID, false)
		if err != nil {
			return nil, err
		}
		visible := make([]models.SubLocation, 0, len(locs))
		for _, l := range locs {
			if scope.HasStore(st.ID) || scope.HasSubLocation(l.ID) {
				visible = append(visible, l)
			}
		}
		out = append(out, StoreWithLocations{Store: st, SubLocations: visible})
	}
	return out, nil
}

// CreateSubLocation adds a sub-location to a store the actor owns.
func (s *StoreService) CreateSubLocation(ctx context.Context, actor *models.Actor, req SubLocationRequest) (*models.SubLocation, error) {
	storeID := req.StoreID
	if storeID == 0 && actor.StoreID != nil {
		storeID = *actor.StoreID
	}
	if err := s.requireStoreOwner(ctx, actor, storeID); err != nil {
		return nil, err
	}

	loc := &models.SubLocation{
		StoreID:     storeID,
		Name:        strings.TrimSpace(req.Name),
		Address:     req.Address,
		Phone:       req.Phone,
		ManagerName: req.ManagerName,
		IsActive:    true,
	}
	if loc.Name == "" {
		return nil, utils.NewValidationError("name", "is required")
	}
	if err := s.stores.CreateSubLocation(ctx, loc); err != nil {
		return nil, err
	}

	log.Info().Int64("store_id", storeID).Int64("sub_location_id", loc.ID).Msg("Sub-location created")
	return loc, nil
}

// SetSubLocationActive toggles a sub-location. Deactivated sub-locations drop
// out of their owner's scope.
func (s *StoreService) SetSubLocationActive(ctx context.Context, actor *models.Actor, id int64, active bool) (*models.SubLocation, error) {
	loc, err := s.stores.GetSubLocation(ctx, id)
	if err != nil {
		return nil, notFound(err, utils.ErrSubLocationNotFound)
	}
	if err := s.requireStoreOwner(ctx, actor, loc.StoreID); err != nil {
		return nil, utils.ErrSubLocationNotFound
	}
	return s.stores.SetSubLocationActive(ctx, id, active)
}

// SetStoreActive toggles a store.
func (s *StoreService) SetStoreActive(ctx context.Context, actor *models.Actor, id int64, active bool) (*models.Store, error) {
	if err := s.requireStoreOwner(ctx, actor, id); err != nil {
		return nil, err
	}
	st, err := s.stores.SetStoreActive(ctx, id, active)
	if err != nil {
		return nil, notFound(err, utils.ErrStoreNotFound)
	}
	return st, nil
}

// Verify marks a store verified. Admin only.
func (s *StoreService) Verify(ctx context.Context, actor *models.Actor, id int64) (*models.Store, error) {
	if !actor.IsAdmin() {
		return nil, utils.ErrForbidden
	}
	st, err := s.stores.VerifyStore(ctx, id, actor.UserID)
	if err != nil {
		return nil, notFound(err, utils.ErrStoreNotFound)
	}
	log.Info().Int64("store_id", id).Int64("admin_id", actor.UserID).Msg("Store verified")
	return st, nil
}

func (s *StoreService) requireStoreOwner(ctx context.Context, actor *models.Actor, storeID int64) error {
	if storeID == 0 {
		return utils.NewValidationError("store_id", "is required")
	}
	if !actor.IsAdmin() && (actor.Role != models.RoleStoreOwner || actor.StoreID == nil || *actor.StoreID != storeID) {
		return utils.ErrStoreNotFound
	}
	if _, err := s.stores.GetStore(ctx, storeID); err != nil {
		return notFound(err, utils.ErrStoreNotFound)
	}
	return nil
}

func appendUnique(ids []int64, id int64) []int64 {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}
