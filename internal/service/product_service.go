package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/GTDGit/halal_inventory_api/internal/classification"
	"github.com/GTDGit/halal_inventory_api/internal/clock"
	"github.com/GTDGit/halal_inventory_api/internal/models"
	"github.com/GTDGit/halal_inventory_api/internal/utils"
)

const (
	defaultMinimumStock = 10
	defaultMaximumStock = 1000
	openingStockReason  = "Initial stock"
)

var maxMoney = decimal.NewFromInt(100_000_000)

// ProductRequest is the create payload. StoreType/StoreID pick a target
// inside the caller's scope; without them the product lands at the caller's
// home store or sub-location.
type ProductRequest struct {
	Name                string           `json:"name"`
	Description         string           `json:"description"`
	SKU                 string           `json:"sku"`
	Barcode             string           `json:"barcode"`
	CategoryID          int64            `json:"category_id"`
	SupplierID          int64            `json:"supplier_id"`
	Price               *decimal.Decimal `json:"price"`
	CostPrice           *decimal.Decimal `json:"cost_price"`
	CurrentStock        *int             `json:"current_stock"`
	MinimumStock        *int             `json:"minimum_stock"`
	MaximumStock        *int             `json:"maximum_stock"`
	ManufacturingDate   *string          `json:"manufacturing_date"`
	ExpiryDate          *string          `json:"expiry_date"`
	IsCertified         bool             `json:"is_certified"`
	CertificationNumber string           `json:"certification_number"`
	StoreType           string           `json:"store_type"`
	StoreID             int64            `json:"store_id"`
}

// ProductUpdateRequest is a partial update. Stock is not editable here.
type ProductUpdateRequest struct {
	Name                *string          `json:"name"`
	Description         *string          `json:"description"`
	CategoryID          *int64           `json:"category_id"`
	SupplierID          *int64           `json:"supplier_id"`
	Price               *decimal.Decimal `json:"price"`
	CostPrice           *decimal.Decimal `json:"cost_price"`
	MinimumStock        *int             `json:"minimum_stock"`
	MaximumStock        *int             `json:"maximum_stock"`
	ManufacturingDate   *string          `json:"manufacturing_date"`
	ExpiryDate          *string          `json:"expiry_date"`
	CertificationNumber *string          `json:"certification_number"`
	IsActive            *bool            `json:"is_active"`
	CurrentStock        *int             `json:"current_stock"`
}

// ProductView is a product plus its derived classification as of today.
type ProductView struct {
	models.Product
	classification.Snapshot
	StockValue decimal.Decimal `json:"stock_value"`
}

// ScanRequest looks a product up by what a scanner read.
type ScanRequest struct {
	Code     string `json:"code" binding:"required"`
	ScanType string `json:"scan_type"`
}

// TargetStore names one destination of a multi-store create.
type TargetStore struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`
}

// MultiStoreRequest creates the same product in several places.
type MultiStoreRequest struct {
	ProductData    ProductRequest `json:"product_data"`
	TargetStores   []TargetStore  `json:"target_stores"`
	AddToAllStores bool           `json:"add_to_all_stores"`
}

// TargetResult is the outcome for one multi-store destination.
type TargetResult struct {
	StoreType string           `json:"store_type"`
	StoreID   int64            `json:"store_id"`
	Success   bool             `json:"success"`
	Product   *ProductView     `json:"product,omitempty"`
	Error     *utils.ErrorInfo `json:"error,omitempty"`
}

// MultiStoreResult is the batch outcome. Success means at least one target worked.
type MultiStoreResult struct {
	Success      bool           `json:"success"`
	CreatedCount int            `json:"created_count"`
	FailedCount  int            `json:"failed_count"`
	Results      []TargetResult `json:"results"`
}

// ProductService manages the product catalog.
type ProductService struct {
	products ProductStore
	stores   StoreDirectory
	tickets  TicketStore
	labels   *LabelService
	policy   classification.Policy
	cal      calendar
}

// NewProductService creates a new ProductService.
func NewProductService(
	products ProductStore,
	stores StoreDirectory,
	tickets TicketStore,
	labels *LabelService,
	policy classification.Policy,
	clk clock.Clock,
	loc *time.Location,
) *ProductService {
	return &ProductService{
		products: products,
		stores:   stores,
		tickets:  tickets,
		labels:   labels,
		policy:   policy,
		cal:      newCalendar(clk, loc),
	}
}

// View attaches classification to a product.
func (s *ProductService) View(p *models.Product) *ProductView {
	return s.viewAt(p, s.cal.today())
}

func (s *ProductService) viewAt(p *models.Product, today time.Time) *ProductView {
	return &ProductView{
		Product:    *p,
		Snapshot:   s.policy.Classify(p, today),
		StockValue: p.StockValue(),
	}
}

func (s *ProductService) views(products []models.Product) []ProductView {
	today := s.cal.today()
	out := make([]ProductView, 0, len(products))
	for i := range products {
		out = append(out, *s.viewAt(&products[i], today))
	}
	return out
}

// Get returns one visible product.
func (s *ProductService) Get(ctx context.Context, scope models.Scope, id uuid.UUID) (*ProductView, error) {
	p, err := s.products.GetByID(ctx, id, scope)
	if err != nil {
		return nil, notFound(err, utils.ErrProductNotFound)
	}
	return s.View(p), nil
}

// List returns a page of visible products and the total count.
func (s *ProductService) List(ctx context.Context, f models.ProductFilter) ([]ProductView, int, error) {
	products, total, err := s.products.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return s.views(products), total, nil
}

// ExpiringSoon lists products whose expiry falls within the horizon.
func (s *ProductService) ExpiringSoon(ctx context.Context, scope models.Scope) ([]ProductView, error) {
	today := s.cal.today()
	products, err := s.products.ListExpiringBetween(ctx, scope, today, s.policy.HorizonEnd(today))
	if err != nil {
		return nil, err
	}
	return s.views(products), nil
}

// Expired lists products past their expiry date.
func (s *ProductService) Expired(ctx context.Context, scope models.Scope) ([]ProductView, error) {
	products, err := s.products.ListExpiredBefore(ctx, scope, s.cal.today())
	if err != nil {
		return nil, err
	}
	return s.views(products), nil
}

// LowStock lists products at or below their minimum stock.
func (s *ProductService) LowStock(ctx context.Context, scope models.Scope) ([]ProductView, error) {
	products, err := s.products.ListLowStock(ctx, scope)
	if err != nil {
		return nil, err
	}
	return s.views(products), nil
}

// Create validates and inserts a product. Initial stock is recorded as an
// opening IN entry so the ledger replays from zero.
func (s *ProductService) Create(ctx context.Context, actor *models.Actor, scope models.Scope, req ProductRequest) (*ProductView, error) {
	owner, err := s.resolveOwner(actor, scope, req.StoreType, req.StoreID)
	if err != nil {
		return nil, err
	}
	return s.createFor(ctx, actor, owner, req, false)
}

// resolveOwner picks where a new product lands.
func (s *ProductService) resolveOwner(actor *models.Actor, scope models.Scope, storeType string, storeID int64) (models.Owner, error) {
	if storeType == "" && storeID == 0 {
		home := actor.HomeOwner()
		if home.IsZero() && !actor.IsAdmin() {
			return models.Owner{}, validation("store_id", "account is not attached to a store")
		}
		return home, nil
	}

	owner, err := models.ParseOwner(storeType, storeID)
	if err != nil {
		return models.Owner{}, validation("store_type", err.Error())
	}
	if !scope.Allows(owner) {
		if owner.Kind() == models.OwnerStore {
			return models.Owner{}, utils.ErrStoreNotFound
		}
		return models.Owner{}, utils.ErrSubLocationNotFound
	}
	return owner, nil
}

// createFor builds and stores the product for one owner. deriveBarcode forces
// a derived barcode even when the request carries one.
func (s *ProductService) createFor(ctx context.Context, actor *models.Actor, owner models.Owner, req ProductRequest, deriveBarcode bool) (*ProductView, error) {
	p, err := s.productFromRequest(req)
	if err != nil {
		return nil, err
	}
	p.SetOwner(owner)

	if p.Barcode == "" || deriveBarcode {
		var parent int64
		if owner.Kind() == models.OwnerSubLocation {
			loc, err := s.stores.GetSubLocation(ctx, owner.ID())
			if err != nil {
				return nil, notFound(err, utils.ErrSubLocationNotFound)
			}
			parent = loc.StoreID
		}
		p.Barcode = DeriveBarcode(owner, parent, p.SKU)
	}

	now := s.cal.clock.Now().UTC()
	p.CertifiedBy = actor.UserIDPtr()
	p.CertifiedAt = &now

	// Label rendering is best effort; an unrenderable code leaves empty images.
	if s.labels != nil {
		if p.BarcodeImage, p.QRCodeImage, err = s.labels.Render(p); err != nil {
			log.Warn().Err(err).Str("barcode", p.Barcode).Msg("Failed to render product labels")
			p.BarcodeImage, p.QRCodeImage = "", ""
		}
	}

	var opening *models.StockTransaction
	if p.CurrentStock > 0 {
		opening = &models.StockTransaction{
			TransactionType: models.TransactionIn,
			Quantity:        p.CurrentStock,
			PreviousStock:   0,
			NewStock:        p.CurrentStock,
			Reason:          openingStockReason,
			UserID:          actor.UserIDPtr(),
		}
	}

	if err := s.products.Create(ctx, p, opening); err != nil {
		return nil, err
	}

	log.Info().
		Str("product_id", p.ID.String()).
		Str("sku", p.SKU).
		Str("owner", owner.String()).
		Int("initial_stock", p.CurrentStock).
		Msg("Product created")
	return s.View(p), nil
}

func (s *ProductService) productFromRequest(req ProductRequest) (*models.Product, error) {
	p := &models.Product{
		ID:                  uuid.New(),
		Name:                strings.TrimSpace(req.Name),
		Description:         req.Description,
		SKU:                 strings.ToUpper(strings.TrimSpace(req.SKU)),
		Barcode:             strings.TrimSpace(req.Barcode),
		CategoryID:          req.CategoryID,
		SupplierID:          req.SupplierID,
		MinimumStock:        defaultMinimumStock,
		MaximumStock:        defaultMaximumStock,
		IsCertified:         req.IsCertified,
		CertificationNumber: strings.TrimSpace(req.CertificationNumber),
		IsActive:            true,
	}

	switch {
	case p.Name == "":
		return nil, validation("name", "is required")
	case p.SKU == "":
		return nil, validation("sku", "is required")
	case strings.Contains(p.SKU, skuSeparator):
		return nil, validation("sku", "must not contain "+skuSeparator)
	case p.CategoryID <= 0:
		return nil, validation("category_id", "is required")
	case p.SupplierID <= 0:
		return nil, validation("supplier_id", "is required")
	case !p.IsCertified:
		return nil, validation("is_certified", "only certified products can be added to the inventory")
	}

	var err error
	if p.Price, err = money("price", req.Price); err != nil {
		return nil, err
	}
	if p.CostPrice, err = money("cost_price", req.CostPrice); err != nil {
		return nil, err
	}

	if req.CurrentStock != nil {
		p.CurrentStock = *req.CurrentStock
	}
	if req.MinimumStock != nil {
		p.MinimumStock = *req.MinimumStock
	}
	if req.MaximumStock != nil {
		p.MaximumStock = *req.MaximumStock
	}
	if p.CurrentStock < 0 {
		return nil, validation("current_stock", "must not be negative")
	}
	if err := checkStockBounds(p.MinimumStock, p.MaximumStock); err != nil {
		return nil, err
	}

	if p.ManufacturingDate, err = parseDate("manufacturing_date", req.ManufacturingDate); err != nil {
		return nil, err
	}
	if p.ExpiryDate, err = parseDate("expiry_date", req.ExpiryDate); err != nil {
		return nil, err
	}
	if err := checkDates(p.ManufacturingDate, p.ExpiryDate); err != nil {
		return nil, err
	}
	return p, nil
}

// Update applies a partial update. current_stock only moves through the ledger.
func (s *ProductService) Update(ctx context.Context, scope models.Scope, id uuid.UUID, req ProductUpdateRequest) (*ProductView, error) {
	if req.CurrentStock != nil {
		return nil, validation("current_stock", "stock can only change through update_stock")
	}

	p, err := s.products.GetByID(ctx, id, scope)
	if err != nil {
		return nil, notFound(err, utils.ErrProductNotFound)
	}

	if req.Name != nil {
		if p.Name = strings.TrimSpace(*req.Name); p.Name == "" {
			return nil, validation("name", "must not be empty")
		}
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.CategoryID != nil {
		p.CategoryID = *req.CategoryID
	}
	if req.SupplierID != nil {
		p.SupplierID = *req.SupplierID
	}
	if req.Price != nil {
		if p.Price, err = money("price", req.Price); err != nil {
			return nil, err
		}
	}
	if req.CostPrice != nil {
		if p.CostPrice, err = money("cost_price", req.CostPrice); err != nil {
			return nil, err
		}
	}
	if req.MinimumStock != nil {
		p.MinimumStock = *req.MinimumStock
	}
	if req.MaximumStock != nil {
		p.MaximumStock = *req.MaximumStock
	}
	if err := checkStockBounds(p.MinimumStock, p.MaximumStock); err != nil {
		return nil, err
	}
	if req.ManufacturingDate != nil {
		if p.ManufacturingDate, err = parseDate("manufacturing_date", req.ManufacturingDate); err != nil {
			return nil, err
		}
	}
	if req.ExpiryDate != nil {
		if p.ExpiryDate, err = parseDate("expiry_date", req.ExpiryDate); err != nil {
			return nil, err
		}
	}
	if err := checkDates(p.ManufacturingDate, p.ExpiryDate); err != nil {
		return nil, err
	}
	if req.CertificationNumber != nil {
		p.CertificationNumber = strings.TrimSpace(*req.CertificationNumber)
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	log.Info().Str("product_id", p.ID.String()).Msg("Product updated")
	return s.View(p), nil
}

// Delete soft-deletes a product. Its ledger history stays.
func (s *ProductService) Delete(ctx context.Context, scope models.Scope, id uuid.UUID) error {
	if err := s.products.Deactivate(ctx, id, scope); err != nil {
		return notFound(err, utils.ErrProductNotFound)
	}
	log.Info().Str("product_id", id.String()).Msg("Product deactivated")
	return nil
}

// ScanBarcode resolves a scanned code. QR codes carry a JSON payload with the
// product id or barcode; anything else is treated as a plain barcode.
func (s *ProductService) ScanBarcode(ctx context.Context, scope models.Scope, req ScanRequest) (*ProductView, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, validation("code", "is required")
	}

	scanType := strings.ToUpper(strings.TrimSpace(req.ScanType))
	if scanType == "" {
		scanType = "BARCODE"
	}
	if scanType != "BARCODE" && scanType != "QR_CODE" {
		return nil, validation("scan_type", "must be BARCODE or QR_CODE")
	}

	var (
		p   *models.Product
		err error
	)
	if scanType == "QR_CODE" {
		var payload QRPayload
		if json.Unmarshal([]byte(code), &payload) == nil {
			if id, perr := uuid.Parse(payload.ID); perr == nil {
				p, err = s.products.GetByID(ctx, id, scope)
				if err == nil && (!p.IsActive || !p.IsCertified) {
					err = sql.ErrNoRows
				}
			} else if payload.Barcode != "" {
				p, err = s.products.GetByBarcode(ctx, payload.Barcode, scope)
			} else {
				return nil, validation("code", "QR payload has neither id nor barcode")
			}
			if err != nil {
				return nil, notFound(err, utils.ErrProductNotFound)
			}
			return s.View(p), nil
		}
	}

	if p, err = s.products.GetByBarcode(ctx, code, scope); err != nil {
		return nil, notFound(err, utils.ErrProductNotFound)
	}
	return s.View(p), nil
}

// GenerateTicket renders a shelf label for a product and stores a snapshot of it.
func (s *ProductService) GenerateTicket(ctx context.Context, actor *models.Actor, scope models.Scope, id uuid.UUID) (*models.ProductTicket, error) {
	p, err := s.products.GetByID(ctx, id, scope)
	if err != nil {
		return nil, notFound(err, utils.ErrProductNotFound)
	}

	if (p.BarcodeImage == "" || p.QRCodeImage == "") && s.labels != nil {
		if b, q, rerr := s.labels.Render(p); rerr == nil {
			p.BarcodeImage, p.QRCodeImage = b, q
			if err := s.products.SetImages(ctx, p.ID, b, q); err != nil {
				log.Warn().Err(err).Str("product_id", p.ID.String()).Msg("Failed to store rendered labels")
			}
		} else {
			log.Warn().Err(rerr).Str("product_id", p.ID.String()).Msg("Failed to render product labels")
		}
	}

	data := models.TicketData{
		ProductName:     p.Name,
		SKU:             p.SKU,
		Barcode:         p.Barcode,
		BarcodeImage:    p.BarcodeImage,
		QRCodeImage:     p.QRCodeImage,
		Price:           p.Price.StringFixed(2),
		CertifiedStatus: "NOT CERTIFIED",
		CertificationNo: p.CertificationNumber,
		Category:        p.CategoryName,
		Supplier:        p.SupplierName,
		GeneratedAt:     s.cal.clock.Now().UTC().Format(time.RFC3339),
	}
	if p.IsCertified {
		data.CertifiedStatus = "CERTIFIED"
	}
	if p.ExpiryDate != nil {
		d := p.ExpiryDate.Format("2006-01-02")
		data.ExpiryDate = &d
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	ticket := &models.ProductTicket{ProductID: p.ID, TicketData: raw, CreatedBy: actor.UserIDPtr()}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	log.Info().Str("product_id", p.ID.String()).Int64("ticket_id", ticket.ID).Msg("Product ticket generated")
	return ticket, nil
}

// ListTickets returns generated labels for visible products.
func (s *ProductService) ListTickets(ctx context.Context, scope models.Scope, productID *uuid.UUID, limit int) ([]models.ProductTicket, error) {
	return s.tickets.List(ctx, scope, productID, limit)
}

// MultiStoreCreate creates the product once per target. Each target succeeds
// or fails on its own; barcodes are always derived per target so they cannot
// collide.
func (s *ProductService) MultiStoreCreate(ctx context.Context, actor *models.Actor, scope models.Scope, req MultiStoreRequest) (*MultiStoreResult, error) {
	if _, err := s.productFromRequest(req.ProductData); err != nil {
		return nil, err
	}

	type target struct {
		owner models.Owner
		err   error
		raw   TargetStore
	}
	var targets []target

	if req.AddToAllStores {
		owners, err := s.stores.AllActiveOwners(ctx, scope)
		if err != nil {
			return nil, err
		}
		for _, o := range owners {
			targets = append(targets, target{owner: o, raw: TargetStore{Type: string(o.Kind()), ID: o.ID()}})
		}
	} else {
		for _, t := range req.TargetStores {
			o, err := s.resolveOwner(actor, scope, t.Type, t.ID)
			if err == nil && o.IsZero() {
				err = validation("target_stores", "target is required")
			}
			targets = append(targets, target{owner: o, err: err, raw: t})
		}
	}
	if len(targets) == 0 {
		return nil, validation("target_stores", "at least one target store is required")
	}

	result := &MultiStoreResult{Results: make([]TargetResult, 0, len(targets))}
	for _, t := range targets {
		r := TargetResult{StoreType: t.raw.Type, StoreID: t.raw.ID}
		err := t.err
		if err == nil {
			r.Product, err = s.createFor(ctx, actor, t.owner, req.ProductData, true)
		}
		if err != nil {
			r.Error = errorInfo(err)
			result.FailedCount++
			log.Warn().Err(err).Str("target", t.raw.Type).Int64("target_id", t.raw.ID).Msg("Multi-store create failed for target")
		} else {
			r.Success = true
			result.CreatedCount++
		}
		result.Results = append(result.Results, r)
	}
	result.Success = result.CreatedCount > 0
	return result, nil
}

// errorInfo renders any error as a per-item wire error. Unclassified errors
// are logged by the caller and reported generically.
func errorInfo(err error) *utils.ErrorInfo {
	if appErr, ok := utils.AsAppError(err); ok {
		return utils.ErrorInfoFrom(appErr)
	}
	return &utils.ErrorInfo{Code: "INTERNAL_ERROR", Message: "unexpected error"}
}

func money(field string, d *decimal.Decimal) (decimal.Decimal, error) {
	if d == nil {
		return decimal.Zero, validation(field, "is required")
	}
	switch {
	case d.IsNegative():
		return decimal.Zero, validation(field, "must not be negative")
	case !d.Equal(d.Round(2)):
		return decimal.Zero, validation(field, "must have at most 2 decimal places")
	case d.GreaterThanOrEqual(maxMoney):
		return decimal.Zero, validation(field, "is too large")
	}
	return d.Round(2), nil
}

func checkStockBounds(minimum, maximum int) error {
	switch {
	case minimum < 0:
		return validation("minimum_stock", "must not be negative")
	case maximum < 0:
		return validation("maximum_stock", "must not be negative")
	case minimum > maximum:
		return validation("minimum_stock", "must not exceed maximum_stock")
	}
	return nil
}

func checkDates(mfg, expiry *time.Time) error {
	if mfg != nil && expiry != nil && !mfg.Before(*expiry) {
		return validation("expiry_date", "must be after manufacturing_date")
	}
	return nil
}
