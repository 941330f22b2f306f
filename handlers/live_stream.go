package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"dharmaverse/logger"
	"dharmaverse/middleware"
	"dharmaverse/models"
	"dharmaverse/services"
)

// LiveStreamHandler handles live stream sessions.
type LiveStreamHandler struct {
	streams  services.LiveStreamService
	activity services.ActivityService
}

// NewLiveStreamHandler creates a LiveStreamHandler.
func NewLiveStreamHandler(streams services.LiveStreamService, activity services.ActivityService) *LiveStreamHandler {
	return &LiveStreamHandler{streams: streams, activity: activity}
}

// Start opens a live stream
// @Summary Start a live stream
// @Description Creates a stream awaiting approval. The stream key is returned only in this response.
// @Tags live
// @Accept json
// @Produce json
// @Param request body models.StartLiveStreamRequest true "Stream details"
// @Success 201 {object} models.APIResponse{data=models.StartLiveStreamResponse}
// @Failure 400 {object} models.APIResponse
// @Failure 429 {object} models.APIResponse
// @Router /api/videos/live/start [post]
func (h *LiveStreamHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req models.StartLiveStreamRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	stream, key, err := h.streams.Start(r.Context(), req)
	if err != nil {
		switch {
		case invalidInput(w, err):
		case errors.Is(err, services.ErrNotSpiritual):
			writeError(w, http.StatusBadRequest, "Content must be spiritual in nature", err)
		default:
			logger.WithFields(map[string]interface{}{
				"request_id": middleware.RequestID(r.Context()),
				"error":      err.Error(),
			}).Error("Failed to start live stream")
			writeError(w, http.StatusInternalServerError, "Failed to start live stream", err)
		}
		return
	}

	logger.WithFields(map[string]interface{}{
		"stream_id": stream.ID,
		"streamer":  stream.StreamerName,
	}).Info("Live stream started")

	actorID, actorName := actor(r, stream.StreamerName)
	h.activity.Log(r.Context(), actorID, actorName, models.ActionStartLiveStream,
		fmt.Sprintf("Started live stream %q (%s)", stream.Title, stream.ID))

	writeJSON(w, http.StatusCreated, models.SuccessResponse("Live stream started. Awaiting approval.",
		models.StartLiveStreamResponse{Stream: stream, StreamKey: key}))
}

// List returns approved streams that are live
// @Summary List live streams
// @Tags live
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]models.LiveStream}
// @Router /api/videos/live [get]
func (h *LiveStreamHandler) List(w http.ResponseWriter, r *http.Request) {
	streams, err := h.streams.ListLive(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch live streams", err)
		return
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse("Live streams retrieved", streams))
}

// End finishes a live stream
// @Summary End a live stream
// @Tags live
// @Accept json
// @Produce json
// @Param id path string true "Stream ID"
// @Param request body models.EndLiveStreamRequest true "Stream key"
// @Success 200 {object} models.APIResponse{data=models.LiveStream}
// @Failure 400 {object} models.APIResponse
// @Failure 403 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Failure 409 {object} models.APIResponse
// @Router /api/videos/live/end/{id} [post]
func (h *LiveStreamHandler) End(w http.ResponseWriter, r *http.Request) {
	var req models.EndLiveStreamRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	stream, err := h.streams.End(r.Context(), r.PathValue("id"), req.StreamKey)
	if err != nil {
		switch {
		case invalidInput(w, err):
		case errors.Is(err, services.ErrLiveStreamNotFound):
			writeError(w, http.StatusNotFound, "Live stream not found", nil)
		case errors.Is(err, services.ErrInvalidStreamKey):
			writeError(w, http.StatusForbidden, "Invalid stream key", nil)
		case errors.Is(err, services.ErrLiveStreamEnded):
			writeError(w, http.StatusConflict, "Live stream already ended", nil)
		default:
			writeError(w, http.StatusInternalServerError, "Failed to end live stream", err)
		}
		return
	}

	actorID, actorName := actor(r, stream.StreamerName)
	h.activity.Log(r.Context(), actorID, actorName, models.ActionEndLiveStream,
		fmt.Sprintf("Ended live stream %q (%s)", stream.Title, stream.ID))

	writeJSON(w, http.StatusOK, models.SuccessResponse("Live stream ended", stream))
}

// Approve marks a live stream as approved
// @Summary Approve a live stream
// @Tags live
// @Produce json
// @Security BearerAuth
// @Param id path string true "Stream ID"
// @Success 200 {object} models.APIResponse{data=models.LiveStream}
// @Failure 403 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /api/videos/live/approve/{id} [put]
func (h *LiveStreamHandler) Approve(w http.ResponseWriter, r *http.Request) {
	stream, err := h.streams.Approve(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, services.ErrLiveStreamNotFound) {
			writeError(w, http.StatusNotFound, "Live stream not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to approve live stream", err)
		return
	}

	actorID, actorName := actor(r, "")
	h.activity.Log(r.Context(), actorID, actorName, models.ActionApproveLive,
		fmt.Sprintf("Approved live stream %q (%s)", stream.Title, stream.ID))

	writeJSON(w, http.StatusOK, models.SuccessResponse("Live stream approved successfully", stream))
}
