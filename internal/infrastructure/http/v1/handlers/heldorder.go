package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/domain/heldorder"
	"tillpoint/internal/infrastructure/http/v1/dto"
)

// HeldOrderHandler handles park and recall of suspended carts.
type HeldOrderHandler struct {
	*BaseHandler
	service *heldorder.Service
}

// NewHeldOrderHandler creates a new held order handler.
func NewHeldOrderHandler(base *BaseHandler, service *heldorder.Service) *HeldOrderHandler {
	return &HeldOrderHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Hold handles POST /registers/:registerId/hold.
func (h *HeldOrderHandler) Hold(c *gin.Context) {
	var req dto.HoldOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	order, err := h.service.Hold(c.Request.Context(), c.Param("registerId"), req.Note)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, order)
}

// Recall handles POST /held-orders/:id/recall. The held cart becomes
// the register's live cart again.
func (h *HeldOrderHandler) Recall(c *gin.Context) {
	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid held order id"))
		return
	}

	crt, err := h.service.Recall(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, crt)
}

// Delete handles DELETE /held-orders/:id.
func (h *HeldOrderHandler) Delete(c *gin.Context) {
	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid held order id"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), orderID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// List handles GET /held-orders.
func (h *HeldOrderHandler) List(c *gin.Context) {
	orders, err := h.service.List(c.Request.Context(), c.Query("registerId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListResponse(orders))
}
