package handlers

import (
	"net/http"
	"time"

	"dharmaverse/middleware"
	"dharmaverse/models"
)

// Me returns the identity carried by the caller's token
// @Summary Current identity
// @Description Verifies the bearer token and returns the identity it carries.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.APIResponse{data=models.Identity}
// @Failure 401 {object} models.APIResponse
// @Router /api/auth/me [get]
func Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	identity := models.Identity{
		UserID: claims.UserID,
		Name:   claims.Name,
		Role:   claims.Role,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time.UTC().Format(time.RFC3339)
	}

	writeJSON(w, http.StatusOK, models.SuccessResponse("Token is valid", identity))
}
