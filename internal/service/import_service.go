package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/GTDGit/halal_inventory_api/internal/clock"
	"github.com/GTDGit/halal_inventory_api/internal/models"
	"github.com/GTDGit/halal_inventory_api/internal/utils"
)

const maxImportRows = 5000

// ImportRowError is one rejected spreadsheet row. Row is 1-based as shown in
// a spreadsheet editor.
type ImportRowError struct {
	Row     int    `json:"row"`
	SKU     string `json:"sku,omitempty"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ImportService bulk-creates products from an .xlsx upload. Each row goes
// through the regular create path and succeeds or fails on its own.
type ImportService struct {
	products *ProductService
	imports  ImportStore
	clock    clock.Clock
}

// NewImportService creates a new ImportService.
func NewImportService(products *ProductService, imports ImportStore, clk clock.Clock) *ImportService {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &ImportService{products: products, imports: imports, clock: clk}
}

// Get returns a batch by id. Only its uploader and admins can see it.
func (s *ImportService) Get(ctx context.Context, actor *models.Actor, id uuid.UUID) (*models.ImportBatch, error) {
	missing := utils.NewNotFoundError("IMPORT_NOT_FOUND", "import batch not found")
	b, err := s.imports.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, missing)
	}
	if !actor.IsAdmin() && (actor == nil || b.UserID == nil || *b.UserID != actor.UserID) {
		return nil, missing
	}
	return b, nil
}

// ImportXLSX reads the first sheet of data. The first row is a header naming
// the columns; unknown columns are ignored. Products land at storeType/storeID
// or the caller's home owner when those are empty.
func (s *ImportService) ImportXLSX(ctx context.Context, actor *models.Actor, scope models.Scope, fileName string, data []byte, storeType string, storeID int64) (*models.ImportBatch, error) {
	owner, err := s.products.resolveOwner(actor, scope, storeType, storeID)
	if err != nil {
		return nil, err
	}

	rows, err := readSheet(data)
	if err != nil {
		return nil, err
	}

	batch := &models.ImportBatch{
		ID:        uuid.New(),
		FileName:  fileName,
		Status:    models.ImportProcessing,
		TotalRows: len(rows) - 1,
		UserID:    actor.UserIDPtr(),
	}
	if err := s.imports.Create(ctx, batch); err != nil {
		return nil, err
	}

	header := headerIndex(rows[0])
	rowErrors := make([]ImportRowError, 0)
	for i, row := range rows[1:] {
		line := i + 2
		req, err := rowRequest(header, row)
		if err == nil {
			_, err = s.products.createFor(ctx, actor, owner, req, false)
		}
		if err != nil {
			info := errorInfo(err)
			rowErrors = append(rowErrors, ImportRowError{Row: line, SKU: req.SKU, Code: info.Code, Field: info.Field, Message: info.Message})
			batch.FailedRows++
			continue
		}
		batch.SuccessfulRows++
	}

	batch.Status = models.ImportCompleted
	if batch.SuccessfulRows == 0 && batch.FailedRows > 0 {
		batch.Status = models.ImportFailed
	}
	if batch.ErrorLog, err = json.Marshal(rowErrors); err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	batch.CompletedAt = &now

	if err := s.imports.Complete(ctx, batch); err != nil {
		return nil, err
	}

	log.Info().
		Str("batch_id", batch.ID.String()).
		Str("file_name", fileName).
		Int("total", batch.TotalRows).
		Int("successful", batch.SuccessfulRows).
		Int("failed", batch.FailedRows).
		Msg("Product import completed")
	return batch, nil
}

func readSheet(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, validation("file", "not a readable .xlsx file")
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, validation("file", "workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	// Trailing blank rows are common in exported sheets.
	for len(rows) > 0 && blankRow(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	switch {
	case len(rows) < 2:
		return nil, validation("file", "sheet has no data rows")
	case len(rows)-1 > maxImportRows:
		return nil, validation("file", fmt.Sprintf("at most %d rows per import", maxImportRows))
	}
	return rows, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.ReplaceAll(key, " ", "_")
		if key != "" {
			idx[key] = i
		}
	}
	return idx
}

// rowRequest maps one sheet row onto the create payload. is_certified
// defaults to true when the column is absent.
func rowRequest(header map[string]int, row []string) (ProductRequest, error) {
	cell := func(name string) string {
		if i, ok := header[name]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	req := ProductRequest{
		Name:                cell("name"),
		Description:         cell("description"),
		SKU:                 cell("sku"),
		Barcode:             cell("barcode"),
		CertificationNumber: cell("certification_number"),
		IsCertified:         true,
	}

	var err error
	if req.CategoryID, err = cellInt64("category_id", cell("category_id")); err != nil {
		return req, err
	}
	if req.SupplierID, err = cellInt64("supplier_id", cell("supplier_id")); err != nil {
		return req, err
	}
	if req.Price, err = cellDecimal("price", cell("price")); err != nil {
		return req, err
	}
	if req.CostPrice, err = cellDecimal("cost_price", cell("cost_price")); err != nil {
		return req, err
	}
	if req.CurrentStock, err = cellInt("current_stock", cell("current_stock")); err != nil {
		return req, err
	}
	if req.MinimumStock, err = cellInt("minimum_stock", cell("minimum_stock")); err != nil {
		return req, err
	}
	if req.MaximumStock, err = cellInt("maximum_stock", cell("maximum_stock")); err != nil {
		return req, err
	}
	if v := cell("manufacturing_date"); v != "" {
		req.ManufacturingDate = &v
	}
	if v := cell("expiry_date"); v != "" {
		req.ExpiryDate = &v
	}
	if v := cell("is_certified"); v != "" {
		if req.IsCertified, err = strconv.ParseBool(strings.ToLower(v)); err != nil {
			return req, validation("is_certified", "must be true or false")
		}
	}
	return req, nil
}

func cellInt64(field, v string) (int64, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, validation(field, "must be a whole number")
	}
	return n, nil
}

func cellInt(field, v string) (*int, error) {
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, validation(field, "must be a whole number")
	}
	return &n, nil
}

func cellDecimal(field, v string) (*decimal.Decimal, error) {
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, validation(field, "must be a number")
	}
	return &d, nil
}
