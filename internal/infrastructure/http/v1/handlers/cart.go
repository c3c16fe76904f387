package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/domain/cart"
	"tillpoint/internal/infrastructure/http/v1/dto"
)

// CartHandler handles live cart edits for a register.
type CartHandler struct {
	*BaseHandler
	service *cart.Service
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(base *BaseHandler, service *cart.Service) *CartHandler {
	return &CartHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Get handles GET /registers/:registerId/cart.
func (h *CartHandler) Get(c *gin.Context) {
	crt, err := h.service.Get(c.Request.Context(), c.Param("registerId"))
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, crt)
}

// AddItem handles POST /registers/:registerId/cart/items.
func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.AddItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productID, err := id.Parse(req.ProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id"))
		return
	}

	crt, err := h.service.AddItem(c.Request.Context(), c.Param("registerId"), productID, req.Quantity)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, crt)
}

// SetQuantity handles PUT /registers/:registerId/cart/items/:productId.
func (h *CartHandler) SetQuantity(c *gin.Context) {
	productID, err := id.Parse(c.Param("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id"))
		return
	}

	var req dto.SetQuantityRequest
	if !h.BindJSON(c, &req) {
		return
	}

	crt, err := h.service.SetQuantity(c.Request.Context(), c.Param("registerId"), productID, req.Quantity)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, crt)
}

// RemoveItem handles DELETE /registers/:registerId/cart/items/:productId.
func (h *CartHandler) RemoveItem(c *gin.Context) {
	productID, err := id.Parse(c.Param("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id"))
		return
	}

	crt, err := h.service.RemoveItem(c.Request.Context(), c.Param("registerId"), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, crt)
}

// SetDiscount handles PUT /registers/:registerId/cart/discount.
func (h *CartHandler) SetDiscount(c *gin.Context) {
	var req dto.DiscountRequest
	if !h.BindJSON(c, &req) {
		return
	}

	crt, err := h.service.SetDiscount(c.Request.Context(), c.Param("registerId"), req.ToDiscount())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, crt)
}

// RemoveDiscount handles DELETE /registers/:registerId/cart/discount.
func (h *CartHandler) RemoveDiscount(c *gin.Context) {
	crt, err := h.service.SetDiscount(c.Request.Context(), c.Param("registerId"), nil)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, crt)
}

// SetCustomer handles PUT /registers/:registerId/cart/customer.
func (h *CartHandler) SetCustomer(c *gin.Context) {
	var req dto.SetCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	crt, err := h.service.SetCustomer(c.Request.Context(), c.Param("registerId"), req.CustomerID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, crt)
}

// Clear handles DELETE /registers/:registerId/cart.
func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.service.Clear(c.Request.Context(), c.Param("registerId")); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
