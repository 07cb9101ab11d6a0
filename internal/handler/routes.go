package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/GTDGit/halal_inventory_api/internal/middleware"
)

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health           *HealthHandler
	Auth             *AuthHandler
	Store            *StoreHandler
	Catalog          *CatalogHandler
	Product          *ProductHandler
	StockTransaction *StockTransactionHandler
	Alert            *AlertHandler
	Dashboard        *DashboardHandler
	POS              *POSHandler
	SSE              *SSEHandler
}

// RouteOptions carries the middleware the routes depend on.
type RouteOptions struct {
	JWT          *middleware.JWTMiddleware
	POSSignature string
}

// SetupRoutes registers all routes.
func SetupRoutes(router *gin.Engine, h *Handlers, opts RouteOptions) {
	router.GET("/health", h.Health.GetHealth)
	router.GET("/api/v1/health", h.Health.GetHealth)

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.GET("/me", opts.JWT.Handle(), h.Auth.Me)
	auth.POST("/managers", opts.JWT.Handle(), h.Auth.CreateManager)

	// EventSource cannot send headers; this route alone accepts ?token=.
	v1.GET("/events", opts.JWT.HandleStream(), h.SSE.Stream)

	api := v1.Group("")
	api.Use(opts.JWT.Handle())
	{
		// Stores
		api.GET("/stores", h.Store.List)
		api.PATCH("/stores/:id/active", h.Store.SetActive)
		api.POST("/stores/:id/verify", middleware.RequireAdmin(), h.Store.Verify)
		api.POST("/sub-locations", h.Store.CreateSubLocation)
		api.PATCH("/sub-locations/:id/active", h.Store.SetSubLocationActive)

		// Categories
		api.GET("/categories", h.Catalog.ListCategories)
		api.GET("/categories/:id", h.Catalog.GetCategory)
		api.POST("/categories", h.Catalog.CreateCategory)
		api.PUT("/categories/:id", h.Catalog.UpdateCategory)
		api.DELETE("/categories/:id", h.Catalog.DeleteCategory)

		// Suppliers
		api.GET("/suppliers", h.Catalog.ListSuppliers)
		api.GET("/suppliers/certified", h.Catalog.ListCertifiedSuppliers)
		api.GET("/suppliers/:id", h.Catalog.GetSupplier)
		api.POST("/suppliers", h.Catalog.CreateSupplier)
		api.PUT("/suppliers/:id", h.Catalog.UpdateSupplier)

		// Products
		api.GET("/products", h.Product.List)
		api.POST("/products", h.Product.Create)
		api.GET("/products/expiring_soon", h.Product.ExpiringSoon)
		api.GET("/products/expired", h.Product.Expired)
		api.GET("/products/low_stock", h.Product.LowStock)
		api.POST("/products/scan_barcode", h.Product.ScanBarcode)
		api.POST("/products/multi_store_create", h.Product.MultiStoreCreate)
		api.POST("/products/import", h.Product.Import)
		api.GET("/products/:id", h.Product.Get)
		api.PUT("/products/:id", h.Product.Update)
		api.DELETE("/products/:id", h.Product.Delete)
		api.POST("/products/:id/update_stock", h.Product.UpdateStock)
		api.POST("/products/:id/write_off_expired", h.Product.WriteOffExpired)
		api.POST("/products/:id/generate_ticket", h.Product.GenerateTicket)
		api.GET("/products/:id/ledger", h.Product.Ledger)
		api.GET("/product-imports/:id", h.Product.GetImport)
		api.GET("/product-tickets", h.Product.ListTickets)

		// Ledger
		api.GET("/stock-transactions", h.StockTransaction.List)

		// Alerts
		api.GET("/expiry-alerts", h.Alert.List)
		api.POST("/expiry-alerts/generate_alerts", h.Alert.Generate)
		api.POST("/expiry-alerts/mark_all_read", h.Alert.MarkAllRead)
		api.POST("/expiry-alerts/:id/mark_read", h.Alert.MarkRead)

		// Dashboard
		api.GET("/dashboard/stats", h.Dashboard.Stats)
		api.GET("/dashboard/store_specific_stats", h.Dashboard.StoreSpecific)
		api.GET("/dashboard/alerts_summary", h.Alert.Summary)
	}

	pos := api.Group("/pos")
	pos.Use(middleware.POSSignatureMiddleware(opts.POSSignature))
	{
		pos.GET("/products", h.POS.Products)
		pos.POST("/stock_updates", h.POS.StockUpdates)
		pos.POST("/sales", h.POS.Sales)
	}
}
