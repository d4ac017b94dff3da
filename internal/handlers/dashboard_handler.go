package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/guru-digital-pelangi/pelangi-service/internal/services"
	"github.com/guru-digital-pelangi/pelangi-service/internal/utils"
)

type DashboardHandler struct {
	BaseHandler
	service services.DashboardService
}

func NewDashboardHandler(service services.DashboardService, logger utils.Logger) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ===== DASHBOARD ENDPOINTS =====

// GetDashboardStats returns counters scoped to the caller
// @Summary Get dashboard statistics
// @Description School-wide for admins, own classes for teachers, own class for students
// @Tags dashboard
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.DashboardStats}
// @Failure 401 {object} models.APIResponse "Unauthorized"
// @Failure 500 {object} models.APIResponse "Internal server error"
// @Router /dashboard/stats [get]
func (h *DashboardHandler) GetDashboardStats(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	h.LogRequest(c, "Getting dashboard stats")

	stats, err := h.service.GetStats(c.Request.Context(), p)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, stats)
}

// GetRecentActivities returns recent activities
// @Summary Get recent activities
// @Tags dashboard
// @Produce json
// @Param limit query int false "Number of activities to return (default: 10, max: 50)"
// @Success 200 {object} models.APIResponse{data=[]models.Activity}
// @Failure 401 {object} models.APIResponse "Unauthorized"
// @Router /dashboard/recent-activities [get]
func (h *DashboardHandler) GetRecentActivities(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}

	limit := h.queryInt(c, "limit", 10)
	if limit < 1 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}

	activities, err := h.service.RecentActivities(c.Request.Context(), p, limit)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.ok(c, activities)
}
