package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/core/tenant"
	"tillpoint/internal/domain/catalog/product"
	"tillpoint/internal/domain/inventory"
	"tillpoint/internal/infrastructure/http/v1/dto"
)

// ProductHandler exposes stock movement history and low-stock listings.
type ProductHandler struct {
	*BaseHandler
	ledger   *inventory.Ledger
	products product.Repository
}

// NewProductHandler creates a new product handler.
func NewProductHandler(base *BaseHandler, ledger *inventory.Ledger, products product.Repository) *ProductHandler {
	return &ProductHandler{
		BaseHandler: base,
		ledger:      ledger,
		products:    products,
	}
}

// StockHistory handles GET /products/:id/stock-history.
func (h *ProductHandler) StockHistory(c *gin.Context) {
	tenantID, err := tenant.RequireTenantID(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	productID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id"))
		return
	}

	filter := inventory.MovementFilter{
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if recordType := c.Query("type"); recordType != "" {
		rt := inventory.RecordType(recordType)
		filter.RecordType = &rt
	}
	if from := c.Query("dateFrom"); from != "" {
		if parsed, err := time.Parse(time.RFC3339, from); err == nil {
			filter.FromDate = &parsed
		}
	}
	if to := c.Query("dateTo"); to != "" {
		if parsed, err := time.Parse(time.RFC3339, to); err == nil {
			filter.ToDate = &parsed
		}
	}

	movements, err := h.ledger.History(c.Request.Context(), tenantID, productID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListResponse(movements))
}

// LowStock handles GET /products/low-stock.
func (h *ProductHandler) LowStock(c *gin.Context) {
	tenantID, err := tenant.RequireTenantID(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	products, err := h.products.ListLowStock(c.Request.Context(), tenantID, h.ParseIntQuery(c, "limit", 100))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListResponse(products))
}
