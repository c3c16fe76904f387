package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/domain/shift"
	"tillpoint/internal/infrastructure/http/v1/dto"
)

// ShiftHandler handles register shift lifecycle requests.
type ShiftHandler struct {
	*BaseHandler
	service *shift.Service
}

// NewShiftHandler creates a new shift handler.
func NewShiftHandler(base *BaseHandler, service *shift.Service) *ShiftHandler {
	return &ShiftHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Open handles POST /shifts.
func (h *ShiftHandler) Open(c *gin.Context) {
	var req dto.OpenShiftRequest
	if !h.BindJSON(c, &req) {
		return
	}

	s, err := h.service.Open(c.Request.Context(), req.RegisterID, req.OpeningCash)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, s)
}

// Close handles POST /shifts/:id/close.
func (h *ShiftHandler) Close(c *gin.Context) {
	shiftID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid shift id"))
		return
	}

	var req dto.CloseShiftRequest
	if !h.BindJSON(c, &req) {
		return
	}

	s, err := h.service.Close(c.Request.Context(), shiftID, req.ClosingCash)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, s)
}

// Get handles GET /shifts/:id.
func (h *ShiftHandler) Get(c *gin.Context) {
	shiftID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid shift id"))
		return
	}

	s, err := h.service.Get(c.Request.Context(), shiftID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, s)
}

// List handles GET /shifts.
func (h *ShiftHandler) List(c *gin.Context) {
	filter := shift.ListFilter{
		RegisterID: c.Query("registerId"),
		Limit:      h.ParseIntQuery(c, "limit", 50),
		Offset:     h.ParseIntQuery(c, "offset", 0),
	}
	if status := c.Query("status"); status != "" {
		s := shift.Status(status)
		filter.Status = &s
	}

	shifts, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListResponse(shifts))
}
