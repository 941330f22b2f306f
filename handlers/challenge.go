package handlers

import (
	"errors"
	"net/http"

	"dharmaverse/logger"
	"dharmaverse/middleware"
	"dharmaverse/models"
	"dharmaverse/services"
)

// ChallengeHandler serves coding challenges.
type ChallengeHandler struct {
	challenges services.ChallengeService
}

// NewChallengeHandler creates a ChallengeHandler.
func NewChallengeHandler(challenges services.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{challenges: challenges}
}

// List returns active challenges
// @Summary List challenges
// @Tags challenges
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]models.Challenge}
// @Router /api/challenges [get]
func (h *ChallengeHandler) List(w http.ResponseWriter, r *http.Request) {
	challenges, err := h.challenges.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch challenges", err)
		return
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse("Challenges retrieved", challenges))
}

// Get returns one challenge without its solution
// @Summary Get a challenge
// @Tags challenges
// @Produce json
// @Param id path string true "Challenge ID"
// @Success 200 {object} models.APIResponse{data=models.Challenge}
// @Failure 404 {object} models.APIResponse
// @Router /api/challenges/{id} [get]
func (h *ChallengeHandler) Get(w http.ResponseWriter, r *http.Request) {
	challenge, err := h.challenges.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse("Challenge retrieved", challenge))
}

// Solution returns a challenge's reference solution
// @Summary Get a challenge solution
// @Tags challenges
// @Produce json
// @Param id path string true "Challenge ID"
// @Success 200 {object} models.APIResponse{data=models.ChallengeSolution}
// @Failure 404 {object} models.APIResponse
// @Router /api/challenges/{id}/solution [get]
func (h *ChallengeHandler) Solution(w http.ResponseWriter, r *http.Request) {
	solution, err := h.challenges.Solution(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse("Solution retrieved", solution))
}

// Submit records a challenge attempt
// @Summary Submit a solution
// @Description Records an attempt. Callers without a token are recorded as anonymous.
// @Tags challenges
// @Accept json
// @Produce json
// @Param request body models.SubmitChallengeRequest true "Submission"
// @Success 201 {object} models.APIResponse{data=models.Submission}
// @Failure 400 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Failure 429 {object} models.APIResponse
// @Router /api/challenges/submit [post]
func (h *ChallengeHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitChallengeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sub, err := h.challenges.Submit(r.Context(), middleware.UserID(r.Context()), req)
	if err != nil {
		if invalidInput(w, err) {
			return
		}
		h.writeLookupError(w, err)
		return
	}

	logger.WithFields(map[string]interface{}{
		"submission_id": sub.ID,
		"challenge_id":  sub.ChallengeID,
		"user_id":       sub.UserID,
		"status":        sub.Status,
	}).Info("Challenge submission recorded")

	message := "Submission recorded. Keep practising!"
	if sub.Status == models.SubmissionStatusPassed {
		message = "Submission passed. Well done!"
	}
	writeJSON(w, http.StatusCreated, models.SuccessResponse(message, sub))
}

func (h *ChallengeHandler) writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, services.ErrChallengeNotFound) {
		writeError(w, http.StatusNotFound, "Challenge not found", nil)
		return
	}
	writeError(w, http.StatusInternalServerError, "Failed to fetch challenge", err)
}
