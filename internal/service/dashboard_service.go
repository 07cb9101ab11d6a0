package service

import (
	"context"
	"time"

	"github.com/GTDGit/halal_inventory_api/internal/classification"
	"github.com/GTDGit/halal_inventory_api/internal/clock"
	"github.com/GTDGit/halal_inventory_api/internal/models"
	"github.com/GTDGit/halal_inventory_api/internal/repository"
)

// DashboardStats is the overview for the caller's whole scope.
type DashboardStats struct {
	models.InventoryStats
	Catalog            *repository.CatalogCounts `json:"catalog,omitempty"`
	RecentTransactions []models.StockTransaction `json:"recent_stock_transactions"`
	RecentAlerts       []models.ExpiryAlert      `json:"recent_expiry_alerts"`
}

// StoreSpecificStats is the overview of one store or sub-location, with a
// breakdown per visible sub-location when the target is a store.
type StoreSpecificStats struct {
	StoreType     string                    `json:"store_type"`
	StoreID       int64                     `json:"store_id"`
	Stats         models.InventoryStats     `json:"stats"`
	SubLocations  []models.SubLocationStats `json:"sub_locations"`
	RecentActions []models.StockTransaction `json:"recent_stock_transactions"`
	RecentAlerts  []models.ExpiryAlert      `json:"recent_expiry_alerts"`
}

// DashboardService composes read-only rollups. It never mutates anything.
type DashboardService struct {
	stats       StatsStore
	catalog     CatalogStore
	stores      StoreDirectory
	stock       *StockService
	alerts      *AlertService
	scopes      *ScopeService
	policy      classification.Policy
	recentLimit int
	cal         calendar
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(
	stats StatsStore,
	catalog CatalogStore,
	stores StoreDirectory,
	stock *StockService,
	alerts *AlertService,
	scopes *ScopeService,
	policy classification.Policy,
	recentLimit int,
	clk clock.Clock,
	loc *time.Location,
) *DashboardService {
	if recentLimit <= 0 {
		recentLimit = 10
	}
	return &DashboardService{
		stats:       stats,
		catalog:     catalog,
		stores:      stores,
		stock:       stock,
		alerts:      alerts,
		scopes:      scopes,
		policy:      policy,
		recentLimit: recentLimit,
		cal:         newCalendar(clk, loc),
	}
}

// Stats aggregates over the caller's scope. An empty scope yields zeros.
func (s *DashboardService) Stats(ctx context.Context, scope models.Scope) (*DashboardStats, error) {
	counters, err := s.counters(ctx, scope)
	if err != nil {
		return nil, err
	}
	out := &DashboardStats{InventoryStats: *counters}

	if s.catalog != nil {
		if out.Catalog, err = s.catalog.Counts(ctx); err != nil {
			return nil, err
		}
	}
	if out.RecentTransactions, out.RecentAlerts, err = s.recent(ctx, scope); err != nil {
		return nil, err
	}
	return out, nil
}

// StoreSpecific narrows the caller's scope to one target and aggregates it.
func (s *DashboardService) StoreSpecific(ctx context.Context, visible models.Scope, target models.Owner) (*StoreSpecificStats, error) {
	scope, err := s.scopes.Narrow(ctx, visible, target)
	if err != nil {
		return nil, err
	}

	counters, err := s.counters(ctx, scope)
	if err != nil {
		return nil, err
	}
	out := &StoreSpecificStats{
		StoreType:    string(target.Kind()),
		StoreID:      target.ID(),
		Stats:        *counters,
		SubLocations: []models.SubLocationStats{},
	}

	if target.Kind() == models.OwnerStore {
		locs, err := s.stores.ListSubLocations(ctx, target.ID(), true)
		if err != nil {
			return nil, err
		}
		for _, loc := range locs {
			if !scope.HasSubLocation(loc.ID) {
				continue
			}
			sub, err := s.counters(ctx, models.Scope{SubLocationIDs: []int64{loc.ID}})
			if err != nil {
				return nil, err
			}
			out.SubLocations = append(out.SubLocations, models.SubLocationStats{SubLocation: loc, Stats: *sub})
		}
	}

	if out.RecentActions, out.RecentAlerts, err = s.recent(ctx, scope); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *DashboardService) counters(ctx context.Context, scope models.Scope) (*models.InventoryStats, error) {
	if scope.IsEmpty() {
		return &models.InventoryStats{}, nil
	}
	today := s.cal.today()
	return s.stats.Stats(ctx, scope, today, s.policy.HorizonEnd(today))
}

func (s *DashboardService) recent(ctx context.Context, scope models.Scope) ([]models.StockTransaction, []models.ExpiryAlert, error) {
	txs, err := s.stock.Recent(ctx, scope, s.recentLimit)
	if err != nil {
		return nil, nil, err
	}
	alerts, err := s.alerts.List(ctx, models.AlertFilter{Scope: scope, UnreadOnly: true, Limit: s.recentLimit})
	if err != nil {
		return nil, nil, err
	}
	return txs, alerts, nil
}
