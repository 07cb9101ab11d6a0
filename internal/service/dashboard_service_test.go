package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/halal_inventory_api/internal/models"
	"github.com/GTDGit/halal_inventory_api/internal/utils"
)

func TestScopeResolve(t *testing.T) {
	h := newHarness(t)
	inactive := h.db.addSub(1, "Closed Branch", false)

	ownerScope := h.scope(t, h.owner)
	assert.Equal(t, []int64{1}, ownerScope.StoreIDs)
	assert.Equal(t, []int64{h.branch.ID}, ownerScope.SubLocationIDs)
	assert.False(t, ownerScope.HasSubLocation(inactive.ID))

	assert.Equal(t, models.Scope{SubLocationIDs: []int64{h.branch.ID}}, h.scope(t, h.manager))
	assert.True(t, h.scope(t, &models.Actor{UserID: 1, Role: models.RoleAdmin}).All)
	assert.True(t, h.scope(t, &models.Actor{UserID: 2, Role: models.RoleStoreOwner}).IsEmpty())
	assert.True(t, h.scope(t, nil).IsEmpty())
}

func TestDashboardStats(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	scope := h.scope(t, h.owner)

	h.create(t, productReq("D-OUT", 0))
	h.create(t, productReq("D-LOW", 10))
	h.create(t, productReq("D-NORM", 500))
	h.createExpiring(t, "D-SOON", 7)
	h.createExpiring(t, "D-GONE", -1)
	_, err := h.alerts.Generate(ctx, scope, ScanOptions{})
	require.NoError(t, err)

	stats, err := h.dashboard.Stats(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalProducts)
	assert.Equal(t, 1, stats.OutOfStock)
	assert.Equal(t, 1, stats.LowStock)
	assert.Equal(t, 3, stats.Normal)
	assert.Equal(t, 1, stats.ExpiringSoon)
	assert.Equal(t, 1, stats.Expired)
	assert.Equal(t, "4400", stats.TotalStockValue.String())
	assert.Len(t, stats.RecentTransactions, 4)
	assert.Len(t, stats.RecentAlerts, 2)

	empty, err := h.dashboard.Stats(ctx, models.Scope{})
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalProducts)
	assert.True(t, empty.TotalStockValue.IsZero())
	assert.Empty(t, empty.RecentTransactions)
}

func TestDashboardStoreSpecific(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	scope := h.scope(t, h.owner)

	h.create(t, productReq("S-1", 5))
	_, err := h.products.Create(ctx, h.manager, h.scope(t, h.manager), productReq("B-1", 50))
	require.NoError(t, err)

	store, err := h.dashboard.StoreSpecific(ctx, scope, models.StoreOwner(1))
	require.NoError(t, err)
	assert.Equal(t, 2, store.Stats.TotalProducts)
	require.Len(t, store.SubLocations, 1)
	assert.Equal(t, 1, store.SubLocations[0].Stats.TotalProducts)

	branch, err := h.dashboard.StoreSpecific(ctx, h.scope(t, h.manager), models.SubLocationOwner(h.branch.ID))
	require.NoError(t, err)
	assert.Equal(t, 1, branch.Stats.TotalProducts)
	assert.Empty(t, branch.SubLocations)

	_, err = h.dashboard.StoreSpecific(ctx, h.scope(t, h.manager), models.StoreOwner(1))
	assert.ErrorIs(t, err, utils.ErrStoreNotFound)
	_, err = h.dashboard.StoreSpecific(ctx, scope, models.StoreOwner(2))
	assert.ErrorIs(t, err, utils.ErrStoreNotFound)
}

func TestStoreService_SubLocations(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	loc, err := h.stores.CreateSubLocation(ctx, h.owner, SubLocationRequest{Name: "Branch B"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), loc.StoreID)

	_, err = h.stores.CreateSubLocation(ctx, h.owner, SubLocationRequest{Name: "Branch B"})
	assert.ErrorIs(t, err, utils.ErrDuplicateName)

	_, err = h.stores.CreateSubLocation(ctx, h.manager, SubLocationRequest{StoreID: 1, Name: "Branch C"})
	assert.ErrorIs(t, err, utils.ErrStoreNotFound)

	_, err = h.stores.SetSubLocationActive(ctx, h.owner, loc.ID, false)
	require.NoError(t, err)
	assert.NotContains(t, h.scope(t, h.owner).SubLocationIDs, loc.ID)
}
