package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"healthlink/internal/services"
)

type AnalyticsHandler struct {
	service services.AnalyticsService
}

func NewAnalyticsHandler(service services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// GET /admin/analytics/dashboard
func (h *AnalyticsHandler) AdminDashboard(c *gin.Context) {
	d, err := h.service.GetAdminDashboard()
	if err != nil {
		log.Printf("[admin][analytics] dashboard failed: err=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard"})
		return
	}
	c.JSON(http.StatusOK, d)
}
