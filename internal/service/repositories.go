package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/GTDGit/halal_inventory_api/internal/models"
	"github.com/GTDGit/halal_inventory_api/internal/repository"
)

// The interfaces below are the storage surface the services depend on. The
// repository package provides the PostgreSQL implementations.

// ProductStore persists the product catalog.
type ProductStore interface {
	Create(ctx context.Context, p *models.Product, opening *models.StockTransaction) error
	GetByID(ctx context.Context, id uuid.UUID, scope models.Scope) (*models.Product, error)
	GetByBarcode(ctx context.Context, barcode string, scope models.Scope) (*models.Product, error)
	List(ctx context.Context, f models.ProductFilter) ([]models.Product, int, error)
	ListExpiringBetween(ctx context.Context, scope models.Scope, from, to time.Time) ([]models.Product, error)
	ListExpiredBefore(ctx context.Context, scope models.Scope, day time.Time) ([]models.Product, error)
	ListLowStock(ctx context.Context, scope models.Scope) ([]models.Product, error)
	ListAlertCandidates(ctx context.Context, scope models.Scope, until time.Time) ([]models.Product, error)
	Update(ctx context.Context, p *models.Product) error
	SetImages(ctx context.Context, id uuid.UUID, barcodeImage, qrImage string) error
	Deactivate(ctx context.Context, id uuid.UUID, scope models.Scope) error
}

// LedgerStore persists stock transactions and is the only writer of current_stock.
type LedgerStore interface {
	ApplyMutation(ctx context.Context, productID uuid.UUID, scope models.Scope, mutate repository.MutationFunc) (*models.Product, *models.StockTransaction, error)
	List(ctx context.Context, f models.TransactionFilter) ([]models.StockTransaction, int, error)
	Recent(ctx context.Context, scope models.Scope, limit int) ([]models.StockTransaction, error)
	History(ctx context.Context, productID uuid.UUID) ([]models.StockTransaction, error)
}

// AlertStore persists expiry alerts.
type AlertStore interface {
	Ensure(ctx context.Context, productID uuid.UUID, kind models.AlertKind) (*models.ExpiryAlert, bool, error)
	List(ctx context.Context, f models.AlertFilter) ([]models.ExpiryAlert, error)
	MarkRead(ctx context.Context, id int64, scope models.Scope) (*models.ExpiryAlert, error)
	MarkAllRead(ctx context.Context, scope models.Scope) (int64, error)
	PurgeRead(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteInScope(ctx context.Context, scope models.Scope) (int64, error)
	CountUnread(ctx context.Context, scope models.Scope) (map[models.AlertKind]int, error)
}

// StoreDirectory persists stores and sub-locations.
type StoreDirectory interface {
	GetStore(ctx context.Context, id int64) (*models.Store, error)
	ListStores(ctx context.Context, ids []int64) ([]models.Store, error)
	SetStoreActive(ctx context.Context, id int64, active bool) (*models.Store, error)
	VerifyStore(ctx context.Context, id, adminID int64) (*models.Store, error)
	GetSubLocation(ctx context.Context, id int64) (*models.SubLocation, error)
	ListSubLocations(ctx context.Context, storeID int64, activeOnly bool) ([]models.SubLocation, error)
	ActiveSubLocationIDs(ctx context.Context, storeID int64) ([]int64, error)
	CreateSubLocation(ctx context.Context, l *models.SubLocation) error
	SetSubLocationActive(ctx context.Context, id int64, active bool) (*models.SubLocation, error)
	AllActiveOwners(ctx context.Context, scope models.Scope) ([]models.Owner, error)
}

// UserStore persists accounts.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	RegisterStoreOwner(ctx context.Context, u *models.User, s *models.Store) error
	TouchLastLogin(ctx context.Context, id int64) error
}

// CatalogStore persists categories and suppliers.
type CatalogStore interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) error
	UpdateCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id int64) error
	ListSuppliers(ctx context.Context, certifiedOnly bool) ([]models.Supplier, error)
	GetSupplier(ctx context.Context, id int64) (*models.Supplier, error)
	CreateSupplier(ctx context.Context, s *models.Supplier) error
	UpdateSupplier(ctx context.Context, s *models.Supplier) error
	Counts(ctx context.Context) (*repository.CatalogCounts, error)
}

// StatsStore computes dashboard aggregates.
type StatsStore interface {
	Stats(ctx context.Context, scope models.Scope, today, horizonEnd time.Time) (*models.InventoryStats, error)
}

// TicketStore persists printed labels.
type TicketStore interface {
	Create(ctx context.Context, t *models.ProductTicket) error
	List(ctx context.Context, scope models.Scope, productID *uuid.UUID, limit int) ([]models.ProductTicket, error)
}

// ImportStore persists spreadsheet import batches.
type ImportStore interface {
	Create(ctx context.Context, b *models.ImportBatch) error
	Complete(ctx context.Context, b *models.ImportBatch) error
	Get(ctx context.Context, id uuid.UUID) (*models.ImportBatch, error)
}

var (
	_ ProductStore   = (*repository.ProductRepository)(nil)
	_ LedgerStore    = (*repository.StockRepository)(nil)
	_ AlertStore     = (*repository.AlertRepository)(nil)
	_ StoreDirectory = (*repository.StoreRepository)(nil)
	_ UserStore      = (*repository.UserRepository)(nil)
	_ CatalogStore   = (*repository.CatalogRepository)(nil)
	_ StatsStore     = (*repository.DashboardRepository)(nil)
	_ TicketStore    = (*repository.TicketRepository)(nil)
	_ ImportStore    = (*repository.ImportRepository)(nil)
)
