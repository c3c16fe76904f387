package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/domain/sale"
	"tillpoint/internal/infrastructure/http/v1/dto"
)

// SaleHandler handles checkout and sale history requests.
type SaleHandler struct {
	*BaseHandler
	service *sale.Service
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(base *BaseHandler, service *sale.Service) *SaleHandler {
	return &SaleHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Checkout handles POST /registers/:registerId/checkout.
func (h *SaleHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if !h.BindJSON(c, &req) {
		return
	}

	shiftID, err := id.Parse(req.ShiftID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid shift id"))
		return
	}

	in := sale.CheckoutInput{
		RegisterID:     c.Param("registerId"),
		ShiftID:        shiftID,
		PaymentMethod:  sale.PaymentMethod(req.PaymentMethod),
		AmountTendered: req.AmountTendered,
		CustomerID:     req.CustomerID,
	}
	if req.Discount != nil {
		in.Discount = req.Discount.ToDiscount()
	}

	result, err := h.service.Checkout(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, result)
}

// Get handles GET /sales/:id.
func (h *SaleHandler) Get(c *gin.Context) {
	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid sale id"))
		return
	}

	s, err := h.service.Get(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, s)
}

// List handles GET /sales.
func (h *SaleHandler) List(c *gin.Context) {
	filter := sale.ListFilter{
		RegisterID: c.Query("registerId"),
		CustomerID: c.Query("customerId"),
		Limit:      h.ParseIntQuery(c, "limit", 50),
		Offset:     h.ParseIntQuery(c, "offset", 0),
	}

	if shiftID := c.Query("shiftId"); shiftID != "" {
		parsed, err := id.Parse(shiftID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid shift id"))
			return
		}
		filter.ShiftID = &parsed
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

	sales, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListResponse(sales))
}

// PrintReceipt handles POST /receipts/:id/print. The first print
// timestamp wins; reprints do not move it.
func (h *SaleHandler) PrintReceipt(c *gin.Context) {
	receiptID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid receipt id"))
		return
	}

	if err := h.service.PrintReceipt(c.Request.Context(), receiptID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "receipt printed")
}
