package handler

import (
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/halal_inventory_api/internal/middleware"
	"github.com/GTDGit/halal_inventory_api/internal/models"
	"github.com/GTDGit/halal_inventory_api/internal/service"
	"github.com/GTDGit/halal_inventory_api/internal/utils"
)

const maxImportSize = 10 << 20

// ProductHandler serves the product catalog and its stock operations.
type ProductHandler struct {
	productService *service.ProductService
	stockService   *service.StockService
	importService  *service.ImportService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(productService *service.ProductService, stockService *service.StockService, importService *service.ImportService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		stockService:   stockService,
		importService:  importService,
	}
}

// StockUpdateResponse is the product after a ledger mutation plus the entry
// that produced it.
type StockUpdateResponse struct {
	*service.ProductView
	Transaction *models.StockTransaction `json:"transaction"`
}

// List handles GET /api/v1/products
func (h *ProductHandler) List(c *gin.Context) {
	page, limit := pagination(c)
	filter := models.ProductFilter{
		Scope:           middleware.GetScope(c),
		Search:          strings.TrimSpace(c.Query("search")),
		CategoryID:      queryInt64(c, "category_id"),
		SupplierID:      queryInt64(c, "supplier_id"),
		IncludeInactive: c.Query("include_inactive") == "true",
		Page:            page,
		Limit:           limit,
	}
	if id := queryInt64(c, "store_id"); id != nil {
		switch c.Query("store_type") {
		case string(models.OwnerSubLocation):
			filter.SubLocationID = id
		default:
			filter.StoreID = id
		}
	}

	products, total, err := h.productService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "Failed to retrieve products")
		return
	}
	utils.SuccessWithPagination(c, 200, "Products retrieved", products, page, limit, total)
}

// Get handles GET /api/v1/products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	product, err := h.productService.Get(c.Request.Context(), middleware.GetScope(c), id)
	if err != nil {
		respondError(c, err, "Failed to retrieve product")
		return
	}
	utils.Success(c, 200, "Product retrieved", product)
}

// Create handles POST /api/v1/products
func (h *ProductHandler) Create(c *gin.Context) {
	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}
	product, err := h.productService.Create(c.Request.Context(), middleware.GetActor(c), middleware.GetScope(c), req)
	if err != nil {
		respondError(c, err, "Failed to create product")
		return
	}
	utils.Success(c, 201, "Product created successfully", product)
}

// Update handles PUT /api/v1/products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req service.ProductUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}
	product, err := h.productService.Update(c.Request.Context(), middleware.GetScope(c), id, req)
	if err != nil {
		respondError(c, err, "Failed to update product")
		return
	}
	utils.Success(c, 200, "Product updated successfully", product)
}

// Delete handles DELETE /api/v1/products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.productService.Delete(c.Request.Context(), middleware.GetScope(c), id); err != nil {
		respondError(c, err, "Failed to delete product")
		return
	}
	utils.Success(c, 200, "Product deleted successfully", nil)
}

// ExpiringSoon handles GET /api/v1/products/expiring_soon
func (h *ProductHandler) ExpiringSoon(c *gin.Context) {
	products, err := h.productService.ExpiringSoon(c.Request.Context(), middleware.GetScope(c))
	if err != nil {
		respondError(c, err, "Failed to retrieve expiring products")
		return
	}
	utils.Success(c, 200, "Expiring products retrieved", products)
}

// Expired handles GET /api/v1/products/expired
func (h *ProductHandler) Expired(c *gin.Context) {
	products, err := h.productService.Expired(c.Request.Context(), middleware.GetScope(c))
	if err != nil {
		respondError(c, err, "Failed to retrieve expired products")
		return
	}
	utils.Success(c, 200, "Expired products retrieved", products)
}

// LowStock handles GET /api/v1/products/low_stock
func (h *ProductHandler) LowStock(c *gin.Context) {
	products, err := h.productService.LowStock(c.Request.Context(), middleware.GetScope(c))
	if err != nil {
		respondError(c, err, "Failed to retrieve low stock products")
		return
	}
	utils.Success(c, 200, "Low stock products retrieved", products)
}

// UpdateStock handles POST /api/v1/products/:id/update_stock
// A short OUT answers 400 INSUFFICIENT_STOCK with available_stock.
func (h *ProductHandler) UpdateStock(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}
	change, err := req.Change()
	if err != nil {
		respondError(c, err, "Failed to update stock")
		return
	}

	product, tx, err := h.stockService.UpdateStock(c.Request.Context(), middleware.GetActor(c), middleware.GetScope(c), id, change)
	if err != nil {
		respondError(c, err, "Failed to update stock")
		return
	}
	utils.Success(c, 200, "Stock updated successfully", StockUpdateResponse{
		ProductView: h.productService.View(product),
		Transaction: tx,
	})
}

// WriteOffExpired handles POST /api/v1/products/:id/write_off_expired
func (h *ProductHandler) WriteOffExpired(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	// Body is optional.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		invalidRequest(c)
		return
	}

	product, tx, err := h.stockService.WriteOffExpired(c.Request.Context(), middleware.GetActor(c), middleware.GetScope(c), id, req.Reason)
	if err != nil {
		respondError(c, err, "Failed to write off stock")
		return
	}
	utils.Success(c, 200, "Expired stock written off", StockUpdateResponse{
		ProductView: h.productService.View(product),
		Transaction: tx,
	})
}

// Ledger handles GET /api/v1/products/:id/ledger
func (h *ProductHandler) Ledger(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	audit, err := h.stockService.Audit(c.Request.Context(), middleware.GetScope(c), id)
	if err != nil {
		respondError(c, err, "Failed to audit ledger")
		return
	}
	utils.Success(c, 200, "Ledger retrieved", audit)
}

// ScanBarcode handles POST /api/v1/products/scan_barcode
func (h *ProductHandler) ScanBarcode(c *gin.Context) {
	var req service.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}
	product, err := h.productService.ScanBarcode(c.Request.Context(), middleware.GetScope(c), req)
	if err != nil {
		respondError(c, err, "Failed to scan barcode")
		return
	}
	utils.Success(c, 200, "Product found", product)
}

// GenerateTicket handles POST /api/v1/products/:id/generate_ticket
func (h *ProductHandler) GenerateTicket(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	ticket, err := h.productService.GenerateTicket(c.Request.Context(), middleware.GetActor(c), middleware.GetScope(c), id)
	if err != nil {
		respondError(c, err, "Failed to generate ticket")
		return
	}
	utils.Success(c, 201, "Ticket generated", ticket)
}

// MultiStoreCreate handles POST /api/v1/products/multi_store_create
func (h *ProductHandler) MultiStoreCreate(c *gin.Context) {
	var req service.MultiStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}
	result, err := h.productService.MultiStoreCreate(c.Request.Context(), middleware.GetActor(c), middleware.GetScope(c), req)
	if err != nil {
		respondError(c, err, "Failed to create products")
		return
	}
	utils.Batch(c, result.Success, "Multi-store create processed", result)
}

// Import handles POST /api/v1/products/import (multipart, field "file")
func (h *ProductHandler) Import(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		utils.ErrorWithInfo(c, 400, &utils.ErrorInfo{Code: "VALIDATION_ERROR", Message: "file is required", Field: "file"})
		return
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".xlsx") {
		utils.ErrorWithInfo(c, 400, &utils.ErrorInfo{Code: "VALIDATION_ERROR", Message: "must be an .xlsx file", Field: "file"})
		return
	}
	if fh.Size > maxImportSize {
		utils.ErrorWithInfo(c, 400, &utils.ErrorInfo{Code: "VALIDATION_ERROR", Message: "file is too large", Field: "file"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		respondError(c, err, "Failed to read upload")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxImportSize))
	if err != nil {
		respondError(c, err, "Failed to read upload")
		return
	}

	var storeID int64
	if v := c.PostForm("store_id"); v != "" {
		storeID, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			utils.ErrorWithInfo(c, 400, &utils.ErrorInfo{Code: "VALIDATION_ERROR", Message: "must be a number", Field: "store_id"})
			return
		}
	}

	batch, err := h.importService.ImportXLSX(c.Request.Context(), middleware.GetActor(c), middleware.GetScope(c),
		fh.Filename, data, c.PostForm("store_type"), storeID)
	if err != nil {
		respondError(c, err, "Failed to import products")
		return
	}
	utils.Success(c, 201, "Import processed", batch)
}

// GetImport handles GET /api/v1/product-imports/:id
func (h *ProductHandler) GetImport(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	batch, err := h.importService.Get(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		respondError(c, err, "Failed to retrieve import")
		return
	}
	utils.Success(c, 200, "Import retrieved", batch)
}

// ListTickets handles GET /api/v1/product-tickets
func (h *ProductHandler) ListTickets(c *gin.Context) {
	productID, ok := queryUUID(c, "product_id")
	if !ok {
		return
	}
	_, limit := pagination(c)
	tickets, err := h.productService.ListTickets(c.Request.Context(), middleware.GetScope(c), productID, limit)
	if err != nil {
		respondError(c, err, "Failed to retrieve tickets")
		return
	}
	utils.Success(c, 200, "Tickets retrieved", tickets)
}
