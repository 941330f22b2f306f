package handlers

import (
	"errors"
	"net/http"

	"dharmaverse/logger"
	"dharmaverse/middleware"
	"dharmaverse/models"
	"dharmaverse/services"
)

// AchievementHandler serves the achievement catalog and the caller's progress.
type AchievementHandler struct {
	achievements services.AchievementService
}

// NewAchievementHandler creates an AchievementHandler.
func NewAchievementHandler(achievements services.AchievementService) *AchievementHandler {
	return &AchievementHandler{achievements: achievements}
}

// List returns achievements merged with the caller's progress
// @Summary List my achievements
// @Tags achievements
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.APIResponse{data=models.AchievementList}
// @Failure 401 {object} models.APIResponse
// @Router /api/achievements [get]
func (h *AchievementHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.achievements.List(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch achievements", err)
		return
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse("Achievements retrieved", list))
}

// UpdateProgress sets the caller's progress on one achievement
// @Summary Update achievement progress
// @Description Progress is clamped to 0-100. Reaching 100 unlocks the achievement once.
// @Tags achievements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.UpdateProgressRequest true "Progress"
// @Success 200 {object} models.APIResponse{data=models.UserAchievement}
// @Failure 400 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /api/achievements/progress [put]
func (h *AchievementHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProgressRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	userID := middleware.UserID(r.Context())
	progress, err := h.achievements.UpdateProgress(r.Context(), userID, req)
	if err != nil {
		switch {
		case invalidInput(w, err):
		case errors.Is(err, services.ErrAchievementNotFound):
			writeError(w, http.StatusNotFound, "Achievement not found", nil)
		default:
			writeError(w, http.StatusInternalServerError, "Failed to update progress", err)
		}
		return
	}

	message := "Progress updated"
	if progress.Unlocked {
		message = "Achievement unlocked"
		logger.WithFields(map[string]interface{}{
			"user_id":        userID,
			"achievement_id": progress.AchievementID,
		}).Info("Achievement unlocked")
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse(message, progress))
}
