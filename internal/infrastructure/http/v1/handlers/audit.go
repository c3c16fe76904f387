package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tillpoint/internal/domain/audit"
	"tillpoint/internal/infrastructure/http/v1/dto"
)

// AuditHandler exposes the tenant activity feed.
type AuditHandler struct {
	*BaseHandler
	service *audit.Service
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(base *BaseHandler, service *audit.Service) *AuditHandler {
	return &AuditHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Feed handles GET /audit.
func (h *AuditHandler) Feed(c *gin.Context) {
	filter := audit.Filter{
		Action:     c.Query("action"),
		EntityType: c.Query("entityType"),
		EntityID:   c.Query("entityId"),
		ActorID:    c.Query("actorId"),
		Limit:      h.ParseIntQuery(c, "limit", 50),
		Offset:     h.ParseIntQuery(c, "offset", 0),
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

	entries, err := h.service.Feed(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListResponse(entries))
}
