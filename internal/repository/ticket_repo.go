package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/halal_inventory_api/internal/models"
)

// TicketRepository stores printed label snapshots.
type TicketRepository struct {
	db *sqlx.DB
}

// NewTicketRepository creates a new TicketRepository.
func NewTicketRepository(db *sqlx.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

// Create inserts a ticket.
func (r *TicketRepository) Create(ctx context.Context, t *models.ProductTicket) error {
	const q = `
		INSERT INTO product_tickets (product_id, ticket_data, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	return r.db.QueryRowxContext(ctx, q, t.ProductID, []byte(t.TicketData), t.CreatedBy).Scan(&t.ID, &t.CreatedAt)
}

// List returns tickets for products in scope, newest first.
func (r *TicketRepository) List(ctx context.Context, scope models.Scope, productID *uuid.UUID, limit int) ([]models.ProductTicket, error) {
	where, args, argIdx := scopeClause("p", scope, 1)
	q := `SELECT t.* FROM product_tickets t JOIN products p ON p.id = t.product_id WHERE ` + where
	if productID != nil {
		q += fmt.Sprintf(" AND t.product_id = $%d", argIdx)
		args = append(args, *productID)
		argIdx++
	}
	_, limit, _ = pageBounds(1, limit)
	q += fmt.Sprintf(" ORDER BY t.created_at DESC, t.id DESC LIMIT $%d", argIdx)
	args = append(args, limit)

	tickets := []models.ProductTicket{}
	err := r.db.SelectContext(ctx, &tickets, q, args...)
	return tickets, err
}
