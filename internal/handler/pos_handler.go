package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/GTDGit/halal_inventory_api/internal/middleware"
	"github.com/GTDGit/halal_inventory_api/internal/service"
	"github.com/GTDGit/halal_inventory_api/internal/utils"
)

const idempotencyHeader = "Idempotency-Key"

// POSHandler serves point-of-sale synchronisation.
type POSHandler struct {
	posService *service.POSService
}

// NewPOSHandler creates a new POSHandler.
func NewPOSHandler(posService *service.POSService) *POSHandler {
	return &POSHandler{posService: posService}
}

// Products handles GET /api/v1/pos/products
func (h *POSHandler) Products(c *gin.Context) {
	products, err := h.posService.Products(c.Request.Context(), middleware.GetScope(c))
	if err != nil {
		respondError(c, err, "Failed to retrieve POS products")
		return
	}
	utils.Success(c, 200, "POS products retrieved", products)
}

// StockUpdates handles POST /api/v1/pos/stock_updates
func (h *POSHandler) StockUpdates(c *gin.Context) {
	var req service.POSStockUpdatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}
	result, err := h.posService.StockUpdates(c.Request.Context(), middleware.GetActor(c), middleware.GetScope(c),
		c.GetHeader(idempotencyHeader), req)
	if err != nil {
		respondError(c, err, "Failed to process stock updates")
		return
	}
	h.respond(c, result, "Stock updates processed")
}

// Sales handles POST /api/v1/pos/sales
func (h *POSHandler) Sales(c *gin.Context) {
	var req service.POSSalesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}
	result, err := h.posService.Sales(c.Request.Context(), middleware.GetActor(c), middleware.GetScope(c),
		c.GetHeader(idempotencyHeader), req)
	if err != nil {
		respondError(c, err, "Failed to process sales")
		return
	}
	h.respond(c, result, "Sales processed")
}

func (h *POSHandler) respond(c *gin.Context, result *service.POSBatchResult, message string) {
	if result.Replayed {
		c.Header("Idempotent-Replayed", "true")
	}
	utils.Batch(c, result.Success, message, result)
}
