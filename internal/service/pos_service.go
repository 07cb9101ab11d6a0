package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/GTDGit/halal_inventory_api/internal/cache"
	"github.com/GTDGit/halal_inventory_api/internal/models"
	"github.com/GTDGit/halal_inventory_api/internal/utils"
)

const (
	posEndpointStock = "stock_updates"
	posEndpointSales = "sales"
	maxPOSBatch      = 500
	posSyncPageLimit = 1000
)

// POSStockUpdate sets one product's stock to an absolute value.
type POSStockUpdate struct {
	ProductID string `json:"product_id"`
	NewStock  *int   `json:"new_stock"`
}

// POSStockUpdatesRequest is the stock_updates payload.
type POSStockUpdatesRequest struct {
	Updates []POSStockUpdate `json:"updates"`
	Source  string           `json:"source"`
}

// POSSale records units sold of one product.
type POSSale struct {
	ProductID    string `json:"product_id"`
	QuantitySold *int   `json:"quantity_sold"`
}

// POSSalesRequest is the sales payload.
type POSSalesRequest struct {
	Sales  []POSSale `json:"sales"`
	Source string    `json:"source"`
}

// POSItemResult is the outcome of one batch item.
type POSItemResult struct {
	ProductID     string           `json:"product_id"`
	Success       bool             `json:"success"`
	PreviousStock *int             `json:"previous_stock,omitempty"`
	NewStock      *int             `json:"new_stock,omitempty"`
	TransactionID *int64           `json:"transaction_id,omitempty"`
	Error         *utils.ErrorInfo `json:"error,omitempty"`
}

// POSBatchResult is the batch outcome. Success means at least one item worked.
type POSBatchResult struct {
	Success        bool            `json:"success"`
	ProcessedCount int             `json:"processed_count"`
	FailedCount    int             `json:"failed_count"`
	Results        []POSItemResult `json:"results"`
	Replayed       bool            `json:"replayed,omitempty"`
}

// POSProduct is the sync view an external POS keeps of a product.
type POSProduct struct {
	ID           uuid.UUID       `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Barcode      string          `json:"barcode"`
	Price        decimal.Decimal `json:"price"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	CurrentStock int             `json:"current_stock"`
	Category     string          `json:"category"`
	Supplier     string          `json:"supplier"`
	IsCertified  bool            `json:"is_certified"`
	StoreType    string          `json:"store_type"`
	StoreID      int64           `json:"store_id"`
	LastUpdated  time.Time       `json:"last_updated"`
}

// POSService applies batches from external point-of-sale systems. Every item
// goes through the stock ledger on its own; one bad item never fails the batch.
type POSService struct {
	stock    *StockService
	products ProductStore
	idem     *cache.IdempotencyCache
}

// NewPOSService creates a new POSService. idem may be nil, in which case
// Idempotency-Key headers are ignored.
func NewPOSService(stock *StockService, products ProductStore, idem *cache.IdempotencyCache) *POSService {
	return &POSService{stock: stock, products: products, idem: idem}
}

// Products lists active certified products in scope for POS synchronisation.
func (s *POSService) Products(ctx context.Context, scope models.Scope) ([]POSProduct, error) {
	if scope.IsEmpty() {
		return []POSProduct{}, nil
	}
	products, _, err := s.products.List(ctx, models.ProductFilter{Scope: scope, Page: 1, Limit: posSyncPageLimit})
	if err != nil {
		return nil, err
	}

	out := make([]POSProduct, 0, len(products))
	for _, p := range products {
		if !p.IsCertified {
			continue
		}
		owner := p.Owner()
		out = append(out, POSProduct{
			ID:           p.ID,
			SKU:          p.SKU,
			Name:         p.Name,
			Barcode:      p.Barcode,
			Price:        p.Price,
			CostPrice:    p.CostPrice,
			CurrentStock: p.CurrentStock,
			Category:     p.CategoryName,
			Supplier:     p.SupplierName,
			IsCertified:  p.IsCertified,
			StoreType:    string(owner.Kind()),
			StoreID:      owner.ID(),
			LastUpdated:  p.UpdatedAt,
		})
	}
	return out, nil
}

// StockUpdates sets each product's stock to the given absolute value.
func (s *POSService) StockUpdates(ctx context.Context, actor *models.Actor, scope models.Scope, idemKey string, req POSStockUpdatesRequest) (*POSBatchResult, error) {
	if len(req.Updates) == 0 {
		return nil, validation("updates", "must contain at least one item")
	}
	if len(req.Updates) > maxPOSBatch {
		return nil, validation("updates", "too many items in one batch")
	}

	return s.withIdempotency(ctx, posEndpointStock, actor, idemKey, func() *POSBatchResult {
		result := &POSBatchResult{Results: make([]POSItemResult, 0, len(req.Updates))}
		for _, u := range req.Updates {
			item := POSItemResult{ProductID: u.ProductID}
			id, err := parseItemID(u.ProductID)
			if err == nil && u.NewStock == nil {
				err = validation("new_stock", "is required")
			}
			if err == nil {
				var t *models.StockTransaction
				_, t, err = s.stock.SetStock(ctx, actor, scope, id, *u.NewStock, req.Source)
				if err == nil {
					item.fill(t)
				}
			}
			result.add(item, err)
		}
		return result
	})
}

// Sales records each sale as an OUT. A sale larger than stock fails that item
// with INSUFFICIENT_STOCK.
func (s *POSService) Sales(ctx context.Context, actor *models.Actor, scope models.Scope, idemKey string, req POSSalesRequest) (*POSBatchResult, error) {
	if len(req.Sales) == 0 {
		return nil, validation("sales", "must contain at least one item")
	}
	if len(req.Sales) > maxPOSBatch {
		return nil, validation("sales", "too many items in one batch")
	}

	return s.withIdempotency(ctx, posEndpointSales, actor, idemKey, func() *POSBatchResult {
		result := &POSBatchResult{Results: make([]POSItemResult, 0, len(req.Sales))}
		for _, sale := range req.Sales {
			item := POSItemResult{ProductID: sale.ProductID}
			id, err := parseItemID(sale.ProductID)
			if err == nil && sale.QuantitySold == nil {
				err = validation("quantity_sold", "is required")
			}
			if err == nil {
				var t *models.StockTransaction
				_, t, err = s.stock.RecordSale(ctx, actor, scope, id, *sale.QuantitySold, req.Source)
				if err == nil {
					item.fill(t)
				}
			}
			result.add(item, err)
		}
		return result
	})
}

func (s *POSService) withIdempotency(ctx context.Context, endpoint string, actor *models.Actor, idemKey string, run func() *POSBatchResult) (*POSBatchResult, error) {
	useCache := s.idem != nil && idemKey != "" && actor != nil
	if useCache {
		var cached POSBatchResult
		found, err := s.idem.Get(ctx, endpoint, actor.UserID, idemKey, &cached)
		if err != nil {
			log.Warn().Err(err).Str("endpoint", endpoint).Msg("Idempotency lookup failed, processing batch")
		} else if found {
			cached.Replayed = true
			log.Info().Str("endpoint", endpoint).Str("idempotency_key", idemKey).Msg("POS batch replayed from cache")
			return &cached, nil
		}
	}

	result := run()
	result.Success = result.ProcessedCount > 0

	log.Info().
		Str("endpoint", endpoint).
		Int("processed", result.ProcessedCount).
		Int("failed", result.FailedCount).
		Msg("POS batch processed")

	if useCache {
		if err := s.idem.Put(ctx, endpoint, actor.UserID, idemKey, result); err != nil {
			log.Warn().Err(err).Str("endpoint", endpoint).Msg("Failed to store idempotent result")
		}
	}
	return result, nil
}

func parseItemID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, validation("product_id", "must be a valid UUID")
	}
	return id, nil
}

func (r *POSItemResult) fill(t *models.StockTransaction) {
	prev, next, id := t.PreviousStock, t.NewStock, t.ID
	r.PreviousStock, r.NewStock, r.TransactionID = &prev, &next, &id
}

func (b *POSBatchResult) add(item POSItemResult, err error) {
	if err != nil {
		item.Error = errorInfo(err)
		b.FailedCount++
		if _, ok := utils.AsAppError(err); !ok {
			log.Error().Err(err).Str("product_id", item.ProductID).Msg("POS item failed")
		}
	} else {
		item.Success = true
		b.ProcessedCount++
	}
	b.Results = append(b.Results, item)
}
