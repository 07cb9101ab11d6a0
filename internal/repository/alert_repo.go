package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/halal_inventory_api/internal/models"
)

// AlertRepository handles data access for expiry alerts.
type AlertRepository struct {
	db *sqlx.DB
}

// NewAlertRepository creates a new AlertRepository.
func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Ensure creates an unread alert for (productID, kind) unless one already
// exists in any state. The unique constraint makes concurrent scans safe; the
// second return value reports whether this call created the row.
func (r *AlertRepository) Ensure(ctx context.Context, productID uuid.UUID, kind models.AlertKind) (*models.ExpiryAlert, bool, error) {
	const q = `
		INSERT INTO expiry_alerts (product_id, alert_type)
		VALUES ($1, $2)
		ON CONFLICT (product_id, alert_type) DO NOTHING
		RETURNING id, product_id, alert_type, is_read, created_at`

	var a models.ExpiryAlert
	if err := r.db.GetContext(ctx, &a, q, productID, kind); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &a, true, nil
}

// List returns alerts in scope newest first.
func (r *AlertRepository) List(ctx context.Context, f models.AlertFilter) ([]models.ExpiryAlert, error) {
	where, args, argIdx := scopeClause("p", f.Scope, 1)
	q := `
		SELECT a.*, p.name AS product_name, p.expiry_date
		FROM expiry_alerts a
		JOIN products p ON p.id = a.product_id
		WHERE ` + where
	if f.UnreadOnly {
		q += " AND NOT a.is_read"
	}
	if f.Kind != "" {
		q += fmt.Sprintf(" AND a.alert_type = $%d", argIdx)
		args = append(args, f.Kind)
		argIdx++
	}
	q += " ORDER BY a.created_at DESC, a.id DESC"
	if f.Limit > 0 {
		q += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, f.Limit)
	}

	alerts := []models.ExpiryAlert{}
	err := r.db.SelectContext(ctx, &alerts, q, args...)
	return alerts, err
}

// MarkRead flips one visible alert to read. Already-read alerts stay read.
func (r *AlertRepository) MarkRead(ctx context.Context, id int64, scope models.Scope) (*models.ExpiryAlert, error) {
	where, args, _ := scopeClause("p", scope, 2)
	q := `
		UPDATE expiry_alerts a SET is_read = TRUE
		FROM products p
		WHERE a.id = $1 AND p.id = a.product_id AND ` + where + `
		RETURNING a.id, a.product_id, a.alert_type, a.is_read, a.created_at, p.name AS product_name, p.expiry_date`

	var a models.ExpiryAlert
	if err := r.db.GetContext(ctx, &a, q, append([]interface{}{id}, args...)...); err != nil {
		return nil, err
	}
	return &a, nil
}

// MarkAllRead flips every unread alert in scope and returns how many changed.
func (r *AlertRepository) MarkAllRead(ctx context.Context, scope models.Scope) (int64, error) {
	where, args, _ := scopeClause("p", scope, 1)
	q := `
		UPDATE expiry_alerts a SET is_read = TRUE
		FROM products p
		WHERE p.id = a.product_id AND NOT a.is_read AND ` + where

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PurgeRead deletes read alerts created before cutoff. Unread alerts are never touched.
func (r *AlertRepository) PurgeRead(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `DELETE FROM expiry_alerts WHERE is_read AND created_at < $1`
	res, err := r.db.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteInScope removes every alert for products in scope. Used by forced regeneration.
func (r *AlertRepository) DeleteInScope(ctx context.Context, scope models.Scope) (int64, error) {
	where, args, _ := scopeClause("p", scope, 1)
	q := `DELETE FROM expiry_alerts a USING products p WHERE p.id = a.product_id AND ` + where

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountUnread returns unread alert counts per kind in scope.
func (r *AlertRepository) CountUnread(ctx context.Context, scope models.Scope) (map[models.AlertKind]int, error) {
	where, args, _ := scopeClause("p", scope, 1)
	q := `
		SELECT a.alert_type, COUNT(*) AS n
		FROM expiry_alerts a
		JOIN products p ON p.id = a.product_id
		WHERE NOT a.is_read AND ` + where + `
		GROUP BY a.alert_type`

	var rows []struct {
		Kind  models.AlertKind `db:"alert_type"`
		Count int              `db:"n"`
	}
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}

	counts := make(map[models.AlertKind]int, len(models.AlertKinds))
	for _, k := range models.AlertKinds {
		counts[k] = 0
	}
	for _, row := range rows {
		counts[row.Kind] = row.Count
	}
	return counts, nil
}
