package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/halal_inventory_api/internal/database"
	"github.com/GTDGit/halal_inventory_api/internal/models"
	"github.com/GTDGit/halal_inventory_api/internal/utils"
)

// MutationFunc receives the locked product row and returns the ledger entry to
// record. Returning an error aborts the whole mutation.
type MutationFunc func(p *models.Product) (*models.StockTransaction, error)

// StockRepository owns the stock ledger: the stock_transactions table and the
// only code path that writes products.current_stock after creation.
type StockRepository struct {
	db *sqlx.DB
}

// NewStockRepository creates a new StockRepository.
func NewStockRepository(db *sqlx.DB) *StockRepository {
	return &StockRepository{db: db}
}

// ApplyMutation locks the product row, lets mutate compute the entry, then
// writes the new current_stock and the entry in the same transaction.
// Concurrent calls for one product queue on the row lock.
func (r *StockRepository) ApplyMutation(ctx context.Context, productID uuid.UUID, scope models.Scope, mutate MutationFunc) (*models.Product, *models.StockTransaction, error) {
	var product models.Product
	var entry *models.StockTransaction

	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		where, args, _ := scopeClause("p", scope, 2)
		lockQ := `SELECT p.* FROM products p WHERE p.id = $1 AND p.is_active AND ` + where + ` FOR UPDATE`
		if err := tx.GetContext(ctx, &product, lockQ, append([]interface{}{productID}, args...)...); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return utils.ErrProductNotFound
			}
			return fmt.Errorf("lock product: %w", err)
		}

		t, err := mutate(&product)
		if err != nil {
			return err
		}
		t.ProductID = product.ID

		const updateQ = `UPDATE products SET current_stock = $2, updated_at = NOW() WHERE id = $1 RETURNING updated_at`
		if err := tx.QueryRowxContext(ctx, updateQ, product.ID, t.NewStock).Scan(&product.UpdatedAt); err != nil {
			return fmt.Errorf("update stock: %w", err)
		}
		product.CurrentStock = t.NewStock

		if err := insertTransaction(ctx, tx, t); err != nil {
			return err
		}
		entry = t
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &product, entry, nil
}

func insertTransaction(ctx context.Context, tx *sqlx.Tx, t *models.StockTransaction) error {
	const q = `
		INSERT INTO stock_transactions (product_id, transaction_type, quantity, previous_stock, new_stock, reason, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := tx.QueryRowxContext(ctx, q,
		t.ProductID, t.TransactionType, t.Quantity, t.PreviousStock, t.NewStock, t.Reason, t.UserID,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert stock transaction: %w", err)
	}
	return nil
}

// List returns ledger entries newest first, restricted to products in scope.
func (r *StockRepository) List(ctx context.Context, f models.TransactionFilter) ([]models.StockTransaction, int, error) {
	_, limit, offset := pageBounds(f.Page, f.Limit)

	where, args, argIdx := scopeClause("p", f.Scope, 1)
	baseQ := `
		FROM stock_transactions t
		JOIN products p ON p.id = t.product_id
		WHERE ` + where
	if f.ProductID != nil {
		baseQ += fmt.Sprintf(" AND t.product_id = $%d", argIdx)
		args = append(args, *f.ProductID)
		argIdx++
	}
	if f.Kind != "" {
		baseQ += fmt.Sprintf(" AND t.transaction_type = $%d", argIdx)
		args = append(args, f.Kind)
		argIdx++
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(1) `+baseQ, args...); err != nil {
		return nil, 0, err
	}

	listQ := `SELECT t.*, p.name AS product_name, p.sku AS product_sku ` + baseQ +
		fmt.Sprintf(` ORDER BY t.id DESC LIMIT $%d OFFSET $%d`, argIdx, argIdx+1)
	entries := []models.StockTransaction{}
	if err := r.db.SelectContext(ctx, &entries, listQ, append(args, limit, offset)...); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// Recent returns the newest limit entries in scope.
func (r *StockRepository) Recent(ctx context.Context, scope models.Scope, limit int) ([]models.StockTransaction, error) {
	entries, _, err := r.List(ctx, models.TransactionFilter{Scope: scope, Page: 1, Limit: limit})
	return entries, err
}

// History returns every entry for one product in creation order.
func (r *StockRepository) History(ctx context.Context, productID uuid.UUID) ([]models.StockTransaction, error) {
	const q = `SELECT * FROM stock_transactions WHERE product_id = $1 ORDER BY id`
	entries := []models.StockTransaction{}
	err := r.db.SelectContext(ctx, &entries, q, productID)
	return entries, err
}
