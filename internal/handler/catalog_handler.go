package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/GTDGit/halal_inventory_api/internal/middleware"
	"github.com/GTDGit/halal_inventory_api/internal/service"
	"github.com/GTDGit/halal_inventory_api/internal/utils"
)

// CatalogHandler serves categories and suppliers.
type CatalogHandler struct {
	catalogService *service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ListCategories handles GET /api/v1/categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	list, err := h.catalogService.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to retrieve categories")
		return
	}
	utils.Success(c, 200, "Categories retrieved", list)
}

// GetCategory handles GET /api/v1/categories/:id
func (h *CatalogHandler) GetCategory(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	cat, err := h.catalogService.GetCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to retrieve category")
		return
	}
	utils.Success(c, 200, "Category retrieved", cat)
}

// CreateCategory handles POST /api/v1/categories
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req service.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}
	cat, err := h.catalogService.CreateCategory(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err, "Failed to create category")
		return
	}
	utils.Success(c, 201, "Category created", cat)
}

// UpdateCategory handles PUT /api/v1/categories/:id
func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	var req service.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}
	cat, err := h.catalogService.UpdateCategory(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		respondError(c, err, "Failed to update category")
		return
	}
	utils.Success(c, 200, "Category updated", cat)
}

// DeleteCategory handles DELETE /api/v1/categories/:id
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteCategory(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		respondError(c, err, "Failed to delete category")
		return
	}
	utils.Success(c, 200, "Category deleted", nil)
}

// ListSuppliers handles GET /api/v1/suppliers
func (h *CatalogHandler) ListSuppliers(c *gin.Context) {
	h.listSuppliers(c, c.Query("is_certified") == "true")
}

// ListCertifiedSuppliers handles GET /api/v1/suppliers/certified
func (h *CatalogHandler) ListCertifiedSuppliers(c *gin.Context) {
	h.listSuppliers(c, true)
}

func (h *CatalogHandler) listSuppliers(c *gin.Context, certifiedOnly bool) {
	list, err := h.catalogService.ListSuppliers(c.Request.Context(), certifiedOnly)
	if err != nil {
		respondError(c, err, "Failed to retrieve suppliers")
		return
	}
	utils.Success(c, 200, "Suppliers retrieved", list)
}

// GetSupplier handles GET /api/v1/suppliers/:id
func (h *CatalogHandler) GetSupplier(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	sup, err := h.catalogService.GetSupplier(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to retrieve supplier")
		return
	}
	utils.Success(c, 200, "Supplier retrieved", sup)
}

// CreateSupplier handles POST /api/v1/suppliers
func (h *CatalogHandler) CreateSupplier(c *gin.Context) {
	var req service.SupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}
	sup, err := h.catalogService.CreateSupplier(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err, "Failed to create supplier")
		return
	}
	utils.Success(c, 201, "Supplier created", sup)
}

// UpdateSupplier handles PUT /api/v1/suppliers/:id
func (h *CatalogHandler) UpdateSupplier(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	var req service.SupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}
	sup, err := h.catalogService.UpdateSupplier(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		respondError(c, err, "Failed to update supplier")
		return
	}
	utils.Success(c, 200, "Supplier updated", sup)
}
