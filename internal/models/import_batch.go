package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ImportStatus tracks a spreadsheet import.
type ImportStatus string

const (
	ImportProcessing ImportStatus = "PROCESSING"
	ImportCompleted  ImportStatus = "COMPLETED"
	ImportFailed     ImportStatus = "FAILED"
)

// ImportBatch records one spreadsheet upload and its outcome.
type ImportBatch struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	FileName       string          `db:"file_name" json:"file_name"`
	Status         ImportStatus    `db:"status" json:"status"`
	TotalRows      int             `db:"total_rows" json:"total_rows"`
	SuccessfulRows int             `db:"successful_rows" json:"successful_rows"`
	FailedRows     int             `db:"failed_rows" json:"failed_rows"`
	ErrorLog       json.RawMessage `db:"error_log" json:"error_log"`
	UserID         *int64          `db:"user_id" json:"user_id"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	CompletedAt    *time.Time      `db:"completed_at" json:"completed_at"`
}
