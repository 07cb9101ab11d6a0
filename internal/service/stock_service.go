package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/halal_inventory_api/internal/classification"
	"github.com/GTDGit/halal_inventory_api/internal/clock"
	"github.com/GTDGit/halal_inventory_api/internal/models"
	"github.com/GTDGit/halal_inventory_api/internal/repository"
	"github.com/GTDGit/halal_inventory_api/internal/sse"
	"github.com/GTDGit/halal_inventory_api/internal/utils"
)

const (
	maxStock          = math.MaxInt32
	maxReasonLength   = 200
	posReasonPrefix   = "POS sync"
	writeOffReason    = "Expired stock written off"
	posSaleReasonBase = "POS sale"
)

// StockChange is one requested ledger mutation.
type StockChange struct {
	Kind     models.TransactionKind
	Quantity int
	Reason   string
}

// UpdateStockRequest is the update_stock payload.
type UpdateStockRequest struct {
	TransactionType string `json:"transaction_type" binding:"required"`
	Quantity        *int   `json:"quantity" binding:"required"`
	Reason          string `json:"reason"`
}

// Change validates the wire form. EXPIRED is reserved for write-offs.
func (r UpdateStockRequest) Change() (StockChange, error) {
	kind, err := models.ParseTransactionKind(r.TransactionType)
	if err != nil || kind == models.TransactionExpired {
		return StockChange{}, validation("transaction_type", "must be IN, OUT or ADJUSTMENT")
	}
	if r.Quantity == nil {
		return StockChange{}, validation("quantity", "is required")
	}
	return StockChange{Kind: kind, Quantity: *r.Quantity, Reason: r.Reason}, nil
}

// Apply computes the new stock for a change against current stock and the
// quantity the ledger records. It is the only place transaction kinds are
// interpreted.
func (c StockChange) Apply(current int) (newStock, recorded int, err error) {
	switch c.Kind {
	case models.TransactionIn:
		if c.Quantity <= 0 {
			return 0, 0, validation("quantity", "must be greater than 0")
		}
		if current > maxStock-c.Quantity {
			return 0, 0, validation("quantity", "resulting stock is too large")
		}
		return current + c.Quantity, c.Quantity, nil

	case models.TransactionOut, models.TransactionExpired:
		if c.Quantity <= 0 {
			return 0, 0, validation("quantity", "must be greater than 0")
		}
		if c.Quantity > current {
			return 0, 0, utils.NewInsufficientStockError(current)
		}
		return current - c.Quantity, c.Quantity, nil

	case models.TransactionAdjustment:
		if c.Quantity < 0 {
			return 0, 0, validation("quantity", "must not be negative")
		}
		if c.Quantity > maxStock {
			return 0, 0, validation("quantity", "is too large")
		}
		return c.Quantity, c.Quantity, nil
	}
	return 0, 0, validation("transaction_type", fmt.Sprintf("unsupported transaction type %q", c.Kind))
}

// LedgerAudit is the result of replaying a product's ledger from zero.
type LedgerAudit struct {
	ProductID     uuid.UUID                 `json:"product_id"`
	CurrentStock  int                       `json:"current_stock"`
	ReplayedStock int                       `json:"replayed_stock"`
	Entries       int                       `json:"entries"`
	Consistent    bool                      `json:"consistent"`
	BrokenAt      *int64                    `json:"broken_at_transaction_id,omitempty"`
	Transactions  []models.StockTransaction `json:"transactions"`
}

// Replay walks entries in creation order starting from zero stock. It returns
// the final stock and the id of the first entry that does not chain from its
// predecessor or does not match its own kind and quantity.
func Replay(entries []models.StockTransaction) (int, *int64) {
	stock := 0
	for i := range entries {
		e := entries[i]
		if e.PreviousStock != stock || !entryConsistent(e) {
			id := e.ID
			return stock, &id
		}
		stock = e.NewStock
	}
	return stock, nil
}

func entryConsistent(e models.StockTransaction) bool {
	switch e.TransactionType {
	case models.TransactionIn:
		return e.NewStock == e.PreviousStock+e.Quantity
	case models.TransactionOut, models.TransactionExpired:
		return e.NewStock == e.PreviousStock-e.Quantity
	case models.TransactionAdjustment:
		// Manual adjustments record the target, POS sync records the distance.
		return e.NewStock == e.Quantity || absInt(e.NewStock-e.PreviousStock) == e.Quantity
	}
	return false
}

// StockService is the single mutation path for current_stock.
type StockService struct {
	ledger   LedgerStore
	products ProductStore
	notifier sse.InventoryNotifier
	cal      calendar
}

// NewStockService creates a new StockService.
func NewStockService(ledger LedgerStore, products ProductStore, notifier sse.InventoryNotifier, clk clock.Clock, loc *time.Location) *StockService {
	if notifier == nil {
		notifier = &sse.NopNotifier{}
	}
	return &StockService{
		ledger:   ledger,
		products: products,
		notifier: notifier,
		cal:      newCalendar(clk, loc),
	}
}

// UpdateStock applies an IN, OUT or ADJUSTMENT change atomically. A short
// OUT fails with INSUFFICIENT_STOCK carrying the available quantity and
// leaves no trace.
func (s *StockService) UpdateStock(ctx context.Context, actor *models.Actor, scope models.Scope, productID uuid.UUID, change StockChange) (*models.Product, *models.StockTransaction, error) {
	reason, err := cleanReason(change.Reason)
	if err != nil {
		return nil, nil, err
	}
	// Reject malformed quantities before taking the row lock.
	if _, _, err := change.Apply(0); err != nil && !isInsufficient(err) {
		return nil, nil, err
	}

	return s.mutate(ctx, scope, productID, func(p *models.Product) (*models.StockTransaction, error) {
		if change.Kind == models.TransactionExpired && !classification.IsExpired(p.ExpiryDate, s.cal.today()) {
			return nil, validation("transaction_type", "product has not expired")
		}
		newStock, recorded, err := change.Apply(p.CurrentStock)
		if err != nil {
			return nil, err
		}
		return &models.StockTransaction{
			TransactionType: change.Kind,
			Quantity:        recorded,
			PreviousStock:   p.CurrentStock,
			NewStock:        newStock,
			Reason:          reason,
			UserID:          actor.UserIDPtr(),
		}, nil
	})
}

// SetStock is the external "set stock to N" path. It is recorded as an
// ADJUSTMENT whose quantity is the distance moved and whose reason names
// the origin.
func (s *StockService) SetStock(ctx context.Context, actor *models.Actor, scope models.Scope, productID uuid.UUID, newStock int, origin string) (*models.Product, *models.StockTransaction, error) {
	if newStock < 0 {
		return nil, nil, validation("new_stock", "must not be negative")
	}
	if newStock > maxStock {
		return nil, nil, validation("new_stock", "is too large")
	}

	reason := posReasonPrefix
	if origin = strings.TrimSpace(origin); origin != "" {
		reason += ": " + origin
	}
	reason, err := cleanReason(reason)
	if err != nil {
		return nil, nil, err
	}

	return s.mutate(ctx, scope, productID, func(p *models.Product) (*models.StockTransaction, error) {
		return &models.StockTransaction{
			TransactionType: models.TransactionAdjustment,
			Quantity:        absInt(newStock - p.CurrentStock),
			PreviousStock:   p.CurrentStock,
			NewStock:        newStock,
			Reason:          reason,
			UserID:          actor.UserIDPtr(),
		}, nil
	})
}

// RecordSale is an OUT for a POS sale.
func (s *StockService) RecordSale(ctx context.Context, actor *models.Actor, scope models.Scope, productID uuid.UUID, quantity int, origin string) (*models.Product, *models.StockTransaction, error) {
	reason := posSaleReasonBase
	if origin = strings.TrimSpace(origin); origin != "" {
		reason += ": " + origin
	}
	return s.UpdateStock(ctx, actor, scope, productID, StockChange{Kind: models.TransactionOut, Quantity: quantity, Reason: reason})
}

// WriteOffExpired removes all remaining stock of an expired product with an
// EXPIRED entry.
func (s *StockService) WriteOffExpired(ctx context.Context, actor *models.Actor, scope models.Scope, productID uuid.UUID, reason string) (*models.Product, *models.StockTransaction, error) {
	if strings.TrimSpace(reason) == "" {
		reason = writeOffReason
	}
	reason, err := cleanReason(reason)
	if err != nil {
		return nil, nil, err
	}

	return s.mutate(ctx, scope, productID, func(p *models.Product) (*models.StockTransaction, error) {
		if !classification.IsExpired(p.ExpiryDate, s.cal.today()) {
			return nil, validation("expiry_date", "product has not expired")
		}
		if p.CurrentStock == 0 {
			return nil, validation("current_stock", "nothing to write off")
		}
		return &models.StockTransaction{
			TransactionType: models.TransactionExpired,
			Quantity:        p.CurrentStock,
			PreviousStock:   p.CurrentStock,
			NewStock:        0,
			Reason:          reason,
			UserID:          actor.UserIDPtr(),
		}, nil
	})
}

func (s *StockService) mutate(ctx context.Context, scope models.Scope, productID uuid.UUID, fn repository.MutationFunc) (*models.Product, *models.StockTransaction, error) {
	p, t, err := s.ledger.ApplyMutation(ctx, productID, scope, fn)
	if err != nil {
		if _, ok := utils.AsAppError(err); !ok {
			log.Error().Err(err).Str("product_id", productID.String()).Msg("Stock mutation failed")
		}
		return nil, nil, err
	}

	log.Info().
		Str("product_id", p.ID.String()).
		Str("type", string(t.TransactionType)).
		Int("quantity", t.Quantity).
		Int("previous_stock", t.PreviousStock).
		Int("new_stock", t.NewStock).
		Msg("Stock updated")
	s.notifier.NotifyStockChanged(p, t)
	return p, t, nil
}

// List returns ledger entries newest first.
func (s *StockService) List(ctx context.Context, f models.TransactionFilter) ([]models.StockTransaction, int, error) {
	return s.ledger.List(ctx, f)
}

// Recent returns the newest entries in scope.
func (s *StockService) Recent(ctx context.Context, scope models.Scope, limit int) ([]models.StockTransaction, error) {
	if scope.IsEmpty() {
		return []models.StockTransaction{}, nil
	}
	return s.ledger.Recent(ctx, scope, limit)
}

// Audit replays a visible product's ledger and compares it to current_stock.
func (s *StockService) Audit(ctx context.Context, scope models.Scope, productID uuid.UUID) (*LedgerAudit, error) {
	p, err := s.products.GetByID(ctx, productID, scope)
	if err != nil {
		return nil, notFound(err, utils.ErrProductNotFound)
	}
	entries, err := s.ledger.History(ctx, productID)
	if err != nil {
		return nil, err
	}

	replayed, brokenAt := Replay(entries)
	audit := &LedgerAudit{
		ProductID:     p.ID,
		CurrentStock:  p.CurrentStock,
		ReplayedStock: replayed,
		Entries:       len(entries),
		BrokenAt:      brokenAt,
		Consistent:    brokenAt == nil && replayed == p.CurrentStock,
		Transactions:  entries,
	}
	if !audit.Consistent {
		log.Error().
			Str("product_id", p.ID.String()).
			Int("current_stock", p.CurrentStock).
			Int("replayed_stock", replayed).
			Msg("Ledger replay does not match current stock")
	}
	return audit, nil
}

func cleanReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) > maxReasonLength {
		return "", validation("reason", "must be at most 200 characters")
	}
	return reason, nil
}

func isInsufficient(err error) bool {
	appErr, ok := utils.AsAppError(err)
	return ok && appErr.Code == utils.ErrInsufficientStock.Code
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
