package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/domain/refund"
	"tillpoint/internal/infrastructure/http/v1/dto"
)

// RefundHandler handles refund requests against completed sales.
type RefundHandler struct {
	*BaseHandler
	service *refund.Service
}

// NewRefundHandler creates a new refund handler.
func NewRefundHandler(base *BaseHandler, service *refund.Service) *RefundHandler {
	return &RefundHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /sales/:id/refunds.
func (h *RefundHandler) Create(c *gin.Context) {
	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid sale id"))
		return
	}

	var req dto.RefundRequest
	if !h.BindJSON(c, &req) {
		return
	}

	items := make([]refund.Item, 0, len(req.Items))
	for _, it := range req.Items {
		productID, err := id.Parse(it.ProductID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid product id").WithDetail("product_id", it.ProductID))
			return
		}
		items = append(items, refund.Item{
			ProductID:    productID,
			Quantity:     it.Quantity,
			RefundAmount: it.RefundAmount,
		})
	}

	r, err := h.service.Process(c.Request.Context(), saleID, items, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, r)
}

// ListBySale handles GET /sales/:id/refunds.
func (h *RefundHandler) ListBySale(c *gin.Context) {
	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid sale id"))
		return
	}

	refunds, err := h.service.ListBySale(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListResponse(refunds))
}
