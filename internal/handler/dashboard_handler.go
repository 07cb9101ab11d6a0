package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/halal_inventory_api/internal/middleware"
	"github.com/GTDGit/halal_inventory_api/internal/models"
	"github.com/GTDGit/halal_inventory_api/internal/service"
	"github.com/GTDGit/halal_inventory_api/internal/utils"
)

// DashboardHandler serves aggregated inventory statistics.
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// Stats handles GET /api/v1/dashboard/stats
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.dashboardService.Stats(c.Request.Context(), middleware.GetScope(c))
	if err != nil {
		respondError(c, err, "Failed to compute dashboard stats")
		return
	}
	utils.Success(c, 200, "Dashboard stats retrieved", stats)
}

// StoreSpecific handles GET /api/v1/dashboard/store_specific_stats?store_type=&store_id=
func (h *DashboardHandler) StoreSpecific(c *gin.Context) {
	id, err := strconv.ParseInt(c.Query("store_id"), 10, 64)
	if err != nil {
		utils.ErrorWithInfo(c, 400, &utils.ErrorInfo{Code: "VALIDATION_ERROR", Message: "is required", Field: "store_id"})
		return
	}
	target, err := models.ParseOwner(c.DefaultQuery("store_type", string(models.OwnerStore)), id)
	if err != nil {
		utils.ErrorWithInfo(c, 400, &utils.ErrorInfo{Code: "VALIDATION_ERROR", Message: err.Error(), Field: "store_type"})
		return
	}

	stats, err := h.dashboardService.StoreSpecific(c.Request.Context(), middleware.GetScope(c), target)
	if err != nil {
		respondError(c, err, "Failed to compute store stats")
		return
	}
	utils.Success(c, 200, "Store stats retrieved", stats)
}
