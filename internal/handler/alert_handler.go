package handler

import (
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/halal_inventory_api/internal/middleware"
	"github.com/GTDGit/halal_inventory_api/internal/models"
	"github.com/GTDGit/halal_inventory_api/internal/service"
	"github.com/GTDGit/halal_inventory_api/internal/utils"
)

// AlertHandler serves expiry alerts.
type AlertHandler struct {
	alertService *service.AlertService
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(alertService *service.AlertService) *AlertHandler {
	return &AlertHandler{alertService: alertService}
}

// List handles GET /api/v1/expiry-alerts
// Unread alerts only unless include_read=true; alert_type narrows by kind.
func (h *AlertHandler) List(c *gin.Context) {
	filter := models.AlertFilter{
		Scope:      middleware.GetScope(c),
		UnreadOnly: c.Query("include_read") != "true",
	}
	if v := c.Query("alert_type"); v != "" {
		kind, err := models.ParseAlertKind(v)
		if err != nil {
			utils.ErrorWithInfo(c, 400, &utils.ErrorInfo{Code: "VALIDATION_ERROR", Message: "must be EXPIRING_SOON or EXPIRED", Field: "alert_type"})
			return
		}
		filter.Kind = kind
	}
	_, filter.Limit = pagination(c)

	alerts, err := h.alertService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "Failed to retrieve alerts")
		return
	}
	utils.Success(c, 200, "Alerts retrieved", alerts)
}

// Generate handles POST /api/v1/expiry-alerts/generate_alerts
// days and force may come as query parameters or in the JSON body.
func (h *AlertHandler) Generate(c *gin.Context) {
	var req struct {
		Days  *int `json:"days"`
		Force bool `json:"force"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		invalidRequest(c)
		return
	}
	if v := c.Query("days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			utils.ErrorWithInfo(c, 400, &utils.ErrorInfo{Code: "VALIDATION_ERROR", Message: "must be a number", Field: "days"})
			return
		}
		req.Days = &days
	}
	if c.Query("force") == "true" {
		req.Force = true
	}

	result, err := h.alertService.Generate(c.Request.Context(), middleware.GetScope(c), service.ScanOptions{
		HorizonDays: req.Days,
		Force:       req.Force,
	})
	if err != nil {
		respondError(c, err, "Failed to generate alerts")
		return
	}
	utils.Success(c, 200, "Alerts generated", result)
}

// MarkRead handles POST /api/v1/expiry-alerts/:id/mark_read
func (h *AlertHandler) MarkRead(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	alert, err := h.alertService.MarkRead(c.Request.Context(), middleware.GetScope(c), id)
	if err != nil {
		respondError(c, err, "Failed to mark alert")
		return
	}
	utils.Success(c, 200, "Alert marked as read", alert)
}

// MarkAllRead handles POST /api/v1/expiry-alerts/mark_all_read
func (h *AlertHandler) MarkAllRead(c *gin.Context) {
	n, err := h.alertService.MarkAllRead(c.Request.Context(), middleware.GetScope(c))
	if err != nil {
		respondError(c, err, "Failed to mark alerts")
		return
	}
	utils.Success(c, 200, "Alerts marked as read", gin.H{"updated_count": n})
}

// Summary handles GET /api/v1/dashboard/alerts_summary
func (h *AlertHandler) Summary(c *gin.Context) {
	summary, err := h.alertService.Summary(c.Request.Context(), middleware.GetScope(c))
	if err != nil {
		respondError(c, err, "Failed to summarize alerts")
		return
	}
	utils.Success(c, 200, "Alert summary retrieved", summary)
}
