// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"tillpoint/internal/core/security"
	"tillpoint/internal/core/tenant"
	"tillpoint/internal/domain/audit"
	"tillpoint/internal/domain/cart"
	"tillpoint/internal/domain/catalog/product"
	"tillpoint/internal/domain/heldorder"
	"tillpoint/internal/domain/inventory"
	"tillpoint/internal/domain/refund"
	"tillpoint/internal/domain/sale"
	"tillpoint/internal/domain/shift"
	"tillpoint/internal/infrastructure/http/v1/handlers"
	"tillpoint/internal/infrastructure/http/v1/middleware"
	"tillpoint/internal/infrastructure/storage/postgres"
	"tillpoint/pkg/logger"
)

// RouterConfig carries everything the router wires together.
type RouterConfig struct {
	Pool     *postgres.Pool
	Logger   *logger.Logger
	Registry tenant.Registry
	Gate     *security.Gate

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// IdempotencyStore enables replay protection on mutating POS routes
	// when non-nil.
	IdempotencyStore *postgres.IdempotencyStore

	Shifts     *shift.Service
	Carts      *cart.Service
	Sales      *sale.Service
	Refunds    *refund.Service
	HeldOrders *heldorder.Service
	Audit      *audit.Service
	Ledger     *inventory.Ledger
	Products   product.Repository
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth, no tenant required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	base := handlers.NewBaseHandler()
	shiftHandler := handlers.NewShiftHandler(base, cfg.Shifts)
	cartHandler := handlers.NewCartHandler(base, cfg.Carts)
	saleHandler := handlers.NewSaleHandler(base, cfg.Sales)
	refundHandler := handlers.NewRefundHandler(base, cfg.Refunds)
	heldOrderHandler := handlers.NewHeldOrderHandler(base, cfg.HeldOrders)
	productHandler := handlers.NewProductHandler(base, cfg.Ledger, cfg.Products)
	auditHandler := handlers.NewAuditHandler(base, cfg.Audit)

	// API v1: tenant resolution first, then auth, then replay protection.
	api := router.Group("/api/v1")
	api.Use(middleware.Tenant(cfg.Registry))
	api.Use(middleware.Auth(cfg.JWTValidator))
	if cfg.IdempotencyStore != nil {
		api.Use(middleware.Idempotency(cfg.IdempotencyStore))
	}

	can := func(action string) gin.HandlerFunc {
		return middleware.RequireAction(cfg.Gate, action)
	}

	shifts := api.Group("/shifts")
	{
		shifts.POST("", can(security.ActionOpenShift), shiftHandler.Open)
		shifts.POST("/:id/close", can(security.ActionCloseShift), shiftHandler.Close)
		shifts.GET("/:id", shiftHandler.Get)
		shifts.GET("", shiftHandler.List)
	}

	registers := api.Group("/registers/:registerId")
	{
		registers.GET("/cart", cartHandler.Get)
		registers.POST("/cart/items", cartHandler.AddItem)
		registers.PUT("/cart/items/:productId", cartHandler.SetQuantity)
		registers.DELETE("/cart/items/:productId", cartHandler.RemoveItem)
		registers.PUT("/cart/discount", cartHandler.SetDiscount)
		registers.DELETE("/cart/discount", cartHandler.RemoveDiscount)
		registers.PUT("/cart/customer", cartHandler.SetCustomer)
		registers.DELETE("/cart", cartHandler.Clear)

		registers.POST("/checkout", can(security.ActionCheckout), saleHandler.Checkout)
		registers.POST("/hold", can(security.ActionHoldOrder), heldOrderHandler.Hold)
	}

	sales := api.Group("/sales")
	{
		sales.GET("", saleHandler.List)
		sales.GET("/:id", saleHandler.Get)
		sales.POST("/:id/refunds", can(security.ActionRefund), refundHandler.Create)
		sales.GET("/:id/refunds", refundHandler.ListBySale)
	}

	api.POST("/receipts/:id/print", saleHandler.PrintReceipt)

	heldOrders := api.Group("/held-orders")
	{
		heldOrders.POST("/:id/recall", can(security.ActionRecallOrder), heldOrderHandler.Recall)
		heldOrders.DELETE("/:id", can(security.ActionHoldOrder), heldOrderHandler.Delete)
		heldOrders.GET("", heldOrderHandler.List)
	}

	products := api.Group("/products")
	{
		products.GET("/:id/stock-history", productHandler.StockHistory)
		products.GET("/low-stock", productHandler.LowStock)
	}

	api.GET("/audit", can(security.ActionViewAuditTrail), auditHandler.Feed)

	return router
}
