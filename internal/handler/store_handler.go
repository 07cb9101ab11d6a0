package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/GTDGit/halal_inventory_api/internal/middleware"
	"github.com/GTDGit/halal_inventory_api/internal/service"
	"github.com/GTDGit/halal_inventory_api/internal/utils"
)

// StoreHandler serves the store hierarchy.
type StoreHandler struct {
	storeService *service.StoreService
}

// NewStoreHandler creates a new StoreHandler.
func NewStoreHandler(storeService *service.StoreService) *StoreHandler {
	return &StoreHandler{storeService: storeService}
}

type activeRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// List handles GET /api/v1/stores
func (h *StoreHandler) List(c *gin.Context) {
	stores, err := h.storeService.List(c.Request.Context(), middleware.GetScope(c))
	if err != nil {
		respondError(c, err, "Failed to retrieve stores")
		return
	}
	utils.Success(c, 200, "Stores retrieved", stores)
}

// SetActive handles PATCH /api/v1/stores/:id/active
func (h *StoreHandler) SetActive(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	var req activeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}
	store, err := h.storeService.SetStoreActive(c.Request.Context(), middleware.GetActor(c), id, *req.IsActive)
	if err != nil {
		respondError(c, err, "Failed to update store")
		return
	}
	utils.Success(c, 200, "Store updated", store)
}

// Verify handles POST /api/v1/stores/:id/verify
func (h *StoreHandler) Verify(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	store, err := h.storeService.Verify(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		respondError(c, err, "Failed to verify store")
		return
	}
	utils.Success(c, 200, "Store verified", store)
}

// CreateSubLocation handles POST /api/v1/sub-locations
func (h *StoreHandler) CreateSubLocation(c *gin.Context) {
	var req service.SubLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}
	loc, err := h.storeService.CreateSubLocation(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err, "Failed to create sub-location")
		return
	}
	utils.Success(c, 201, "Sub-location created", loc)
}

// SetSubLocationActive handles PATCH /api/v1/sub-locations/:id/active
func (h *StoreHandler) SetSubLocationActive(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	var req activeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}
	loc, err := h.storeService.SetSubLocationActive(c.Request.Context(), middleware.GetActor(c), id, *req.IsActive)
	if err != nil {
		respondError(c, err, "Failed to update sub-location")
		return
	}
	utils.Success(c, 200, "Sub-location updated", loc)
}
