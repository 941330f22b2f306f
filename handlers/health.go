package handlers

import (
	"context"
	"net/http"
	"time"

	"dharmaverse/logger"
	"dharmaverse/models"
)

// Version is reported by the root and health endpoints.
const Version = "1.0.0"

// Pinger checks database connectivity.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler serves the service banner and health check.
type HealthHandler struct {
	db      Pinger
	started time.Time
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db, started: time.Now()}
}

// Home returns the service banner
// @Summary Service banner
// @Tags platform
// @Produce json
// @Success 200 {object} models.APIResponse
// @Router / [get]
func (h *HealthHandler) Home(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.SuccessResponse("DharmaVerse API", map[string]string{
		"version": Version,
		"docs":    "/swagger/index.html",
	}))
}

// Health reports service and database status
// @Summary Health check
// @Tags platform
// @Produce json
// @Success 200 {object} models.APIResponse
// @Failure 503 {object} models.APIResponse
// @Router /api/health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	database := "connected"
	if err := h.db.PingContext(ctx); err != nil {
		logger.Warn("Health check database ping failed: %v", err)
		status = http.StatusServiceUnavailable
		database = "unavailable"
	}

	data := map[string]interface{}{
		"database": database,
		"version":  Version,
		"uptime":   time.Since(h.started).Round(time.Second).String(),
	}
	if status != http.StatusOK {
		writeJSON(w, status, models.DegradedResponse("Service degraded", data))
		return
	}
	writeJSON(w, status, models.SuccessResponse("Server is healthy", data))
}
