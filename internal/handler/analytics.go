package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleetflow/internal/domain"
	"fleetflow/internal/service"
)

// AnalyticsHandler serves the fleet reports.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Dashboard handles GET /api/v1/analytics/dashboard?vehicleType=&status=
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.analytics.Dashboard(c.Request.Context(), service.DashboardFilter{
		VehicleType: domain.VehicleType(c.Query("vehicleType")),
		Status:      domain.VehicleStatus(c.Query("status")),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, dashboard)
}

// VehicleCosts handles GET /api/v1/analytics/vehicle-costs
func (h *AnalyticsHandler) VehicleCosts(c *gin.Context) {
	costs, err := h.analytics.VehicleCosts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, costs)
}

// DriverStats handles GET /api/v1/analytics/driver-stats
func (h *AnalyticsHandler) DriverStats(c *gin.Context) {
	stats, err := h.analytics.DriverStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, stats)
}
