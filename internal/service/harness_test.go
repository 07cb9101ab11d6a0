package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/halal_inventory_api/internal/classification"
	"github.com/GTDGit/halal_inventory_api/internal/clock"
	"github.com/GTDGit/halal_inventory_api/internal/models"
)

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	stock  []models.StockTransaction
	alerts []models.ExpiryAlert
}

func (n *recordingNotifier) NotifyStockChanged(_ *models.Product, t *models.StockTransaction) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stock = append(n.stock, *t)
}

func (n *recordingNotifier) NotifyAlertCreated(_ *models.Product, a *models.ExpiryAlert) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, *a)
}

type harness struct {
	clock    *clock.MockClock
	db       *memDB
	notifier *recordingNotifier

	products  *ProductService
	stock     *StockService
	alerts    *AlertService
	scopes    *ScopeService
	dashboard *DashboardService
	pos       *POSService
	imports   *ImportService
	stores    *StoreService

	owner   *models.Actor
	manager *models.Actor
	store   *models.Store
	branch  *models.SubLocation
}

var testStart = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func newHarness(t *testing.T) *harness {
	t.Helper()
	clk := clock.NewMockClock(testStart)
	db := newMemDB(clk)
	n := &recordingNotifier{}
	policy := classification.DefaultPolicy()

	h := &harness{clock: clk, db: db, notifier: n}
	h.store = db.addStore(1, "Main Market")
	h.branch = db.addSub(1, "Branch A", true)
	db.addStore(2, "Other Market")

	storeID, subID := h.store.ID, h.branch.ID
	h.owner = &models.Actor{UserID: 10, Role: models.RoleStoreOwner, StoreID: &storeID}
	h.manager = &models.Actor{UserID: 11, Role: models.RoleSubLocationManager, SubLocationID: &subID}

	h.scopes = NewScopeService(db)
	h.products = NewProductService(db, db, memTickets{db}, NewLabelService(), policy, clk, time.UTC)
	h.stock = NewStockService(memLedger{db}, db, n, clk, time.UTC)
	h.alerts = NewAlertService(db, memAlerts{db}, n, policy, DefaultAlertRetention, clk, time.UTC)
	h.dashboard = NewDashboardService(memStats{db}, nil, db, h.stock, h.alerts, h.scopes, policy, 10, clk, time.UTC)
	h.pos = NewPOSService(h.stock, db, nil)
	h.imports = NewImportService(h.products, memImports{db}, clk)
	h.stores = NewStoreService(db)
	return h
}

func (h *harness) scope(t *testing.T, a *models.Actor) models.Scope {
	t.Helper()
	s, err := h.scopes.Resolve(context.Background(), a)
	require.NoError(t, err)
	return s
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func intp(n int) *int { return &n }

func strp(s string) *string { return &s }

func (h *harness) day(offset int) string {
	return testStart.AddDate(0, 0, offset).Format("2006-01-02")
}

func productReq(sku string, stock int) ProductRequest {
	return ProductRequest{
		Name:         "Chicken " + sku,
		SKU:          sku,
		CategoryID:   1,
		SupplierID:   1,
		Price:        dec("12.50"),
		CostPrice:    dec("8.00"),
		CurrentStock: intp(stock),
		IsCertified:  true,
	}
}

func (h *harness) create(t *testing.T, req ProductRequest) *ProductView {
	t.Helper()
	v, err := h.products.Create(context.Background(), h.owner, h.scope(t, h.owner), req)
	require.NoError(t, err)
	return v
}

func (h *harness) stockOf(id uuid.UUID) int {
	return h.db.product(id).CurrentStock
}
