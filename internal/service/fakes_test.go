package service

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GTDGit/halal_inventory_api/internal/classification"
	"github.com/GTDGit/halal_inventory_api/internal/clock"
	"github.com/GTDGit/halal_inventory_api/internal/models"
	"github.com/GTDGit/halal_inventory_api/internal/repository"
	"github.com/GTDGit/halal_inventory_api/internal/utils"
)

// memDB is an in-memory stand-in for the PostgreSQL repositories. One mutex
// plays the role of the product row lock.
type memDB struct {
	mu    sync.Mutex
	clock clock.Clock

	products map[uuid.UUID]*models.Product
	txs      []models.StockTransaction
	alerts   []*models.ExpiryAlert
	stores   map[int64]*models.Store
	subs     map[int64]*models.SubLocation
	tickets  []models.ProductTicket
	imports  map[uuid.UUID]*models.ImportBatch

	nextTx, nextAlert, nextSub, nextTicket int64

	// failEnsureAfter makes Ensure fail once that many alerts were created.
	failEnsureAfter int
}

func newMemDB(clk clock.Clock) *memDB {
	return &memDB{
		clock:           clk,
		products:        map[uuid.UUID]*models.Product{},
		stores:          map[int64]*models.Store{},
		subs:            map[int64]*models.SubLocation{},
		imports:         map[uuid.UUID]*models.ImportBatch{},
		failEnsureAfter: -1,
	}
}

func (m *memDB) addStore(id int64, name string) *models.Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &models.Store{ID: id, Name: name, IsActive: true}
	m.stores[id] = s
	return s
}

func (m *memDB) addSub(storeID int64, name string, active bool) *models.SubLocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSub++
	l := &models.SubLocation{ID: m.nextSub, StoreID: storeID, Name: name, IsActive: active}
	m.subs[l.ID] = l
	return l
}

func (m *memDB) history(id uuid.UUID) []models.StockTransaction {
	out, _ := m.History(context.Background(), id)
	return out
}

func (m *memDB) product(id uuid.UUID) models.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.products[id]
}

// ProductStore

func (m *memDB) Create(_ context.Context, p *models.Product, opening *models.StockTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.products {
		if other.Barcode == p.Barcode {
			return utils.ErrDuplicateBarcode
		}
		if other.SKU == p.SKU && other.Owner() == p.Owner() {
			return utils.ErrDuplicateSKU
		}
	}
	p.CreatedAt = m.clock.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	m.products[p.ID] = &cp
	if opening != nil {
		opening.ProductID = p.ID
		m.appendTx(opening)
	}
	return nil
}

func (m *memDB) appendTx(t *models.StockTransaction) {
	m.nextTx++
	t.ID = m.nextTx
	t.CreatedAt = m.clock.Now()
	m.txs = append(m.txs, *t)
}

func (m *memDB) visible(id uuid.UUID, scope models.Scope) (*models.Product, bool) {
	p, ok := m.products[id]
	if !ok || !scope.Contains(p) {
		return nil, false
	}
	return p, true
}

func (m *memDB) GetByID(_ context.Context, id uuid.UUID, scope models.Scope) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.visible(id, scope)
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (m *memDB) GetByBarcode(_ context.Context, barcode string, scope models.Scope) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.Barcode == barcode && p.IsActive && p.IsCertified && scope.Contains(p) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memDB) selectProducts(scope models.Scope, keep func(p *models.Product) bool) []models.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Product{}
	for _, p := range m.products {
		if scope.Contains(p) && keep(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *memDB) List(_ context.Context, f models.ProductFilter) ([]models.Product, int, error) {
	out := m.selectProducts(f.Scope, func(p *models.Product) bool {
		if !f.IncludeInactive && !p.IsActive {
			return false
		}
		return f.Search == "" || strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Search))
	})
	return out, len(out), nil
}

func (m *memDB) ListExpiringBetween(_ context.Context, scope models.Scope, from, to time.Time) ([]models.Product, error) {
	return m.selectProducts(scope, func(p *models.Product) bool {
		return p.IsActive && p.IsCertified && p.ExpiryDate != nil && !p.ExpiryDate.Before(from) && !p.ExpiryDate.After(to)
	}), nil
}

func (m *memDB) ListExpiredBefore(_ context.Context, scope models.Scope, day time.Time) ([]models.Product, error) {
	return m.selectProducts(scope, func(p *models.Product) bool {
		return p.IsActive && p.IsCertified && p.ExpiryDate != nil && p.ExpiryDate.Before(day)
	}), nil
}

func (m *memDB) ListLowStock(_ context.Context, scope models.Scope) ([]models.Product, error) {
	return m.selectProducts(scope, func(p *models.Product) bool {
		return p.IsActive && p.IsCertified && p.CurrentStock <= p.MinimumStock
	}), nil
}

func (m *memDB) ListAlertCandidates(_ context.Context, scope models.Scope, until time.Time) ([]models.Product, error) {
	return m.selectProducts(scope, func(p *models.Product) bool {
		return p.IsActive && p.IsCertified && p.ExpiryDate != nil && !p.ExpiryDate.After(until)
	}), nil
}

func (m *memDB) Update(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.products[p.ID]
	if !ok {
		return sql.ErrNoRows
	}
	stock := cur.CurrentStock
	cp := *p
	cp.CurrentStock = stock
	m.products[p.ID] = &cp
	return nil
}

func (m *memDB) SetImages(_ context.Context, id uuid.UUID, barcodeImage, qrImage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[id]; ok {
		p.BarcodeImage, p.QRCodeImage = barcodeImage, qrImage
	}
	return nil
}

func (m *memDB) Deactivate(_ context.Context, id uuid.UUID, scope models.Scope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.visible(id, scope)
	if !ok {
		return sql.ErrNoRows
	}
	p.IsActive = false
	return nil
}

// LedgerStore

func (m *memDB) ApplyMutation(_ context.Context, productID uuid.UUID, scope models.Scope, mutate repository.MutationFunc) (*models.Product, *models.StockTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.visible(productID, scope)
	if !ok || !p.IsActive {
		return nil, nil, utils.ErrProductNotFound
	}
	locked := *p
	t, err := mutate(&locked)
	if err != nil {
		return nil, nil, err
	}
	t.ProductID = p.ID
	p.CurrentStock = t.NewStock
	p.UpdatedAt = m.clock.Now()
	m.appendTx(t)
	out := *p
	return &out, t, nil
}

func (m *memDB) Recent(_ context.Context, scope models.Scope, limit int) ([]models.StockTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.StockTransaction{}
	for i := len(m.txs) - 1; i >= 0 && len(out) < limit; i-- {
		if p, ok := m.products[m.txs[i].ProductID]; ok && scope.Contains(p) {
			out = append(out, m.txs[i])
		}
	}
	return out, nil
}

func (m *memDB) History(_ context.Context, productID uuid.UUID) ([]models.StockTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.StockTransaction{}
	for _, t := range m.txs {
		if t.ProductID == productID {
			out = append(out, t)
		}
	}
	return out, nil
}

// memLedger adapts memDB's transaction listing to LedgerStore.List, which
// collides with ProductStore.List on memDB itself.
type memLedger struct{ *memDB }

func (l memLedger) List(_ context.Context, f models.TransactionFilter) ([]models.StockTransaction, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := []models.StockTransaction{}
	for i := len(l.txs) - 1; i >= 0; i-- {
		t := l.txs[i]
		p, ok := l.products[t.ProductID]
		if !ok || !f.Scope.Contains(p) {
			continue
		}
		if f.ProductID != nil && *f.ProductID != t.ProductID {
			continue
		}
		out = append(out, t)
	}
	return out, len(out), nil
}

// memAlerts adapts memDB to AlertStore.
type memAlerts struct{ *memDB }

func (a memAlerts) inScope(al *models.ExpiryAlert, scope models.Scope) bool {
	p, ok := a.products[al.ProductID]
	return ok && scope.Contains(p)
}

func (a memAlerts) Ensure(_ context.Context, productID uuid.UUID, kind models.AlertKind) (*models.ExpiryAlert, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, al := range a.alerts {
		if al.ProductID == productID && al.AlertType == kind {
			return nil, false, nil
		}
	}
	if a.failEnsureAfter >= 0 && len(a.alerts) >= a.failEnsureAfter {
		return nil, false, sql.ErrConnDone
	}
	a.nextAlert++
	al := &models.ExpiryAlert{ID: a.nextAlert, ProductID: productID, AlertType: kind, CreatedAt: a.clock.Now()}
	a.alerts = append(a.alerts, al)
	cp := *al
	return &cp, true, nil
}

func (a memAlerts) List(_ context.Context, f models.AlertFilter) ([]models.ExpiryAlert, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := []models.ExpiryAlert{}
	for i := len(a.alerts) - 1; i >= 0; i-- {
		al := a.alerts[i]
		if !a.inScope(al, f.Scope) || (f.UnreadOnly && al.IsRead) || (f.Kind != "" && al.AlertType != f.Kind) {
			continue
		}
		out = append(out, *al)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (a memAlerts) MarkRead(_ context.Context, id int64, scope models.Scope) (*models.ExpiryAlert, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, al := range a.alerts {
		if al.ID == id && a.inScope(al, scope) {
			al.IsRead = true
			cp := *al
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (a memAlerts) MarkAllRead(_ context.Context, scope models.Scope) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var n int64
	for _, al := range a.alerts {
		if !al.IsRead && a.inScope(al, scope) {
			al.IsRead = true
			n++
		}
	}
	return n, nil
}

func (a memAlerts) PurgeRead(_ context.Context, cutoff time.Time) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	kept := a.alerts[:0]
	var n int64
	for _, al := range a.alerts {
		if al.IsRead && al.CreatedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, al)
	}
	a.alerts = kept
	return n, nil
}

func (a memAlerts) DeleteInScope(_ context.Context, scope models.Scope) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	kept := a.alerts[:0]
	var n int64
	for _, al := range a.alerts {
		if a.inScope(al, scope) {
			n++
			continue
		}
		kept = append(kept, al)
	}
	a.alerts = kept
	return n, nil
}

func (a memAlerts) CountUnread(_ context.Context, scope models.Scope) (map[models.AlertKind]int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	counts := map[models.AlertKind]int{models.AlertExpiringSoon: 0, models.AlertExpired: 0}
	for _, al := range a.alerts {
		if !al.IsRead && a.inScope(al, scope) {
			counts[al.AlertType]++
		}
	}
	return counts, nil
}

// StoreDirectory

func (m *memDB) GetStore(_ context.Context, id int64) (*models.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stores[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

func (m *memDB) ListStores(_ context.Context, ids []int64) ([]models.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Store{}
	for _, s := range m.stores {
		if ids == nil || containsInt64(ids, s.ID) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memDB) SetStoreActive(_ context.Context, id int64, active bool) (*models.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stores[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	s.IsActive = active
	cp := *s
	return &cp, nil
}

func (m *memDB) VerifyStore(_ context.Context, id, adminID int64) (*models.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stores[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	now := m.clock.Now()
	s.IsVerified, s.VerifiedBy, s.VerifiedAt = true, &adminID, &now
	cp := *s
	return &cp, nil
}

func (m *memDB) GetSubLocation(_ context.Context, id int64) (*models.SubLocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.subs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *l
	return &cp, nil
}

func (m *memDB) ListSubLocations(_ context.Context, storeID int64, activeOnly bool) ([]models.SubLocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.SubLocation{}
	for _, l := range m.subs {
		if l.StoreID == storeID && (!activeOnly || l.IsActive) {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memDB) ActiveSubLocationIDs(ctx context.Context, storeID int64) ([]int64, error) {
	locs, _ := m.ListSubLocations(ctx, storeID, true)
	ids := make([]int64, 0, len(locs))
	for _, l := range locs {
		ids = append(ids, l.ID)
	}
	return ids, nil
}

func (m *memDB) CreateSubLocation(_ context.Context, l *models.SubLocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stores[l.StoreID]; !ok {
		return utils.ErrStoreNotFound
	}
	for _, other := range m.subs {
		if other.StoreID == l.StoreID && other.Name == l.Name {
			return utils.NewConflictError(utils.ErrDuplicateName, "sub-location name already exists in this store")
		}
	}
	m.nextSub++
	l.ID = m.nextSub
	cp := *l
	m.subs[l.ID] = &cp
	return nil
}

func (m *memDB) SetSubLocationActive(_ context.Context, id int64, active bool) (*models.SubLocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.subs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	l.IsActive = active
	cp := *l
	return &cp, nil
}

func (m *memDB) AllActiveOwners(_ context.Context, scope models.Scope) ([]models.Owner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var storeIDs []int64
	for id, s := range m.stores {
		if s.IsActive {
			storeIDs = append(storeIDs, id)
		}
	}
	sort.Slice(storeIDs, func(i, j int) bool { return storeIDs[i] < storeIDs[j] })

	var owners []models.Owner
	for _, id := range storeIDs {
		if o := models.StoreOwner(id); scope.Allows(o) {
			owners = append(owners, o)
		}
		var subIDs []int64
		for sid, l := range m.subs {
			if l.StoreID == id && l.IsActive {
				subIDs = append(subIDs, sid)
			}
		}
		sort.Slice(subIDs, func(i, j int) bool { return subIDs[i] < subIDs[j] })
		for _, sid := range subIDs {
			if o := models.SubLocationOwner(sid); scope.Allows(o) {
				owners = append(owners, o)
			}
		}
	}
	return owners, nil
}

// memTickets adapts memDB to TicketStore.
type memTickets struct{ *memDB }

func (t memTickets) Create(_ context.Context, tk *models.ProductTicket) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextTicket++
	tk.ID = t.nextTicket
	tk.CreatedAt = t.clock.Now()
	t.tickets = append(t.tickets, *tk)
	return nil
}

func (t memTickets) List(_ context.Context, scope models.Scope, productID *uuid.UUID, limit int) ([]models.ProductTicket, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := []models.ProductTicket{}
	for i := len(t.tickets) - 1; i >= 0; i-- {
		tk := t.tickets[i]
		p, ok := t.products[tk.ProductID]
		if !ok || !scope.Contains(p) || (productID != nil && *productID != tk.ProductID) {
			continue
		}
		out = append(out, tk)
	}
	return out, nil
}

// memImports adapts memDB to ImportStore.
type memImports struct{ *memDB }

func (i memImports) Create(_ context.Context, b *models.ImportBatch) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	b.CreatedAt = i.clock.Now()
	cp := *b
	i.imports[b.ID] = &cp
	return nil
}

func (i memImports) Complete(_ context.Context, b *models.ImportBatch) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	cp := *b
	i.imports[b.ID] = &cp
	return nil
}

func (i memImports) Get(_ context.Context, id uuid.UUID) (*models.ImportBatch, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	b, ok := i.imports[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *b
	return &cp, nil
}

// memStats computes dashboard counters the way the SQL aggregate does.
type memStats struct{ *memDB }

func (s memStats) Stats(_ context.Context, scope models.Scope, today, horizonEnd time.Time) (*models.InventoryStats, error) {
	policy := classification.Policy{HorizonDays: int(horizonEnd.Sub(today).Hours() / 24)}
	out := &models.InventoryStats{}
	for _, p := range s.selectProducts(scope, func(p *models.Product) bool { return p.IsActive && p.IsCertified }) {
		p := p
		snap := policy.Classify(&p, today)
		out.TotalProducts++
		switch snap.StockStatus {
		case classification.OutOfStock:
			out.OutOfStock++
		case classification.LowStock:
			out.LowStock++
		case classification.Normal:
			out.Normal++
		case classification.Overstock:
			out.Overstock++
		}
		if snap.IsExpiringSoon {
			out.ExpiringSoon++
		}
		if snap.IsExpired {
			out.Expired++
		}
		out.TotalStockValue = out.TotalStockValue.Add(p.StockValue())
		out.TotalStockUnits += int64(p.CurrentStock)
	}
	return out, nil
}

func containsInt64(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

var (
	_ ProductStore   = (*memDB)(nil)
	_ LedgerStore    = memLedger{}
	_ AlertStore     = memAlerts{}
	_ StoreDirectory = (*memDB)(nil)
	_ TicketStore    = memTickets{}
	_ ImportStore    = memImports{}
	_ StatsStore     = memStats{}
)
