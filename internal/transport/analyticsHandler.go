package transport

import (
	"net/http"

	"github.com/ds124wfegd/linkhub/internal/entity"
	"github.com/ds124wfegd/linkhub/internal/service"
	"github.com/ds124wfegd/linkhub/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	analyticsService service.AnalyticsService
}

func NewAnalyticsHandler(analyticsService service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

func (h *AnalyticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/analytics/click", h.TrackClick)
	router.GET("/analytics", middleware.Auth(), h.GetAnalytics)
}

func (h *AnalyticsHandler) TrackClick(c *gin.Context) {
	var req entity.ClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "block_id is required"})
		return
	}

	if err := h.analyticsService.RecordClick(c.Request.Context(), req.BlockID, c.Request.UserAgent(), c.ClientIP()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AnalyticsHandler) GetAnalytics(c *gin.Context) {
	analytics, err := h.analyticsService.GetAnalytics(c.Request.Context(), middleware.UserEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}
