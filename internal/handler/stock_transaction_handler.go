package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/GTDGit/halal_inventory_api/internal/middleware"
	"github.com/GTDGit/halal_inventory_api/internal/models"
	"github.com/GTDGit/halal_inventory_api/internal/service"
	"github.com/GTDGit/halal_inventory_api/internal/utils"
)

// StockTransactionHandler lists ledger entries.
type StockTransactionHandler struct {
	stockService *service.StockService
}

// NewStockTransactionHandler creates a new StockTransactionHandler.
func NewStockTransactionHandler(stockService *service.StockService) *StockTransactionHandler {
	return &StockTransactionHandler{stockService: stockService}
}

// List handles GET /api/v1/stock-transactions
func (h *StockTransactionHandler) List(c *gin.Context) {
	productID, ok := queryUUID(c, "product_id")
	if !ok {
		return
	}
	page, limit := pagination(c)
	filter := models.TransactionFilter{
		Scope:     middleware.GetScope(c),
		ProductID: productID,
		Page:      page,
		Limit:     limit,
	}
	if v := c.Query("transaction_type"); v != "" {
		kind, err := models.ParseTransactionKind(v)
		if err != nil {
			utils.ErrorWithInfo(c, 400, &utils.ErrorInfo{Code: "VALIDATION_ERROR", Message: "unknown transaction type", Field: "transaction_type"})
			return
		}
		filter.Kind = kind
	}

	txs, total, err := h.stockService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "Failed to retrieve stock transactions")
		return
	}
	utils.SuccessWithPagination(c, 200, "Stock transactions retrieved", txs, page, limit, total)
}
