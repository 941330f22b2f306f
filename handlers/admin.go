package handlers

import (
	"net/http"

	"dharmaverse/models"
	"dharmaverse/services"
)

// AdminHandler serves the moderation dashboard.
type AdminHandler struct {
	activity  services.ActivityService
	dashboard *services.DashboardService
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(activity services.ActivityService, dashboard *services.DashboardService) *AdminHandler {
	return &AdminHandler{activity: activity, dashboard: dashboard}
}

// Activities lists activity log entries, newest first
// @Summary List activity logs
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} models.PaginatedResponse{data=[]models.ActivityLog}
// @Failure 403 {object} models.APIResponse
// @Router /api/admin/activities [get]
func (h *AdminHandler) Activities(w http.ResponseWriter, r *http.Request) {
	page := parsePositiveInt(r.URL.Query().Get("page"), 1)
	pageSize := parsePositiveInt(r.URL.Query().Get("limit"), 20)
	if pageSize > 100 {
		pageSize = 100
	}

	logs, total, err := h.activity.List(r.Context(), page, pageSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch activities", err)
		return
	}

	writeJSON(w, http.StatusOK, models.PageResponse("Activities retrieved", logs, models.NewPagination(page, pageSize, total)))
}

// DashboardStats returns platform counters
// @Summary Dashboard statistics
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.APIResponse{data=models.DashboardStats}
// @Failure 403 {object} models.APIResponse
// @Router /api/admin/dashboard/stats [get]
func (h *AdminHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch dashboard stats", err)
		return
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse("Dashboard stats retrieved", stats))
}
