package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/halal_inventory_api/internal/models"
)

// ImportRepository tracks spreadsheet import batches.
type ImportRepository struct {
	db *sqlx.DB
}

// NewImportRepository creates a new ImportRepository.
func NewImportRepository(db *sqlx.DB) *ImportRepository {
	return &ImportRepository{db: db}
}

// Create inserts a batch in PROCESSING state.
func (r *ImportRepository) Create(ctx context.Context, b *models.ImportBatch) error {
	const q = `
		INSERT INTO import_batches (id, file_name, status, total_rows, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`
	return r.db.QueryRowxContext(ctx, q, b.ID, b.FileName, b.Status, b.TotalRows, b.UserID).Scan(&b.CreatedAt)
}

// Complete records the outcome of a batch.
func (r *ImportRepository) Complete(ctx context.Context, b *models.ImportBatch) error {
	const q = `
		UPDATE import_batches SET
			status = $2, total_rows = $3, successful_rows = $4, failed_rows = $5,
			error_log = $6, completed_at = NOW()
		WHERE id = $1
		RETURNING completed_at`
	errorLog := []byte(b.ErrorLog)
	if len(errorLog) == 0 {
		errorLog = []byte("[]")
	}
	return r.db.QueryRowxContext(ctx, q, b.ID, b.Status, b.TotalRows, b.SuccessfulRows, b.FailedRows, errorLog).
		Scan(&b.CompletedAt)
}

// Get returns a batch by id.
func (r *ImportRepository) Get(ctx context.Context, id uuid.UUID) (*models.ImportBatch, error) {
	var b models.ImportBatch
	if err := r.db.GetContext(ctx, &b, `SELECT * FROM import_batches WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &b, nil
}
