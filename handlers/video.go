package handlers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"dharmaverse/logger"
	"dharmaverse/media"
	"dharmaverse/middleware"
	"dharmaverse/models"
	"dharmaverse/services"
	"dharmaverse/storage"
	"dharmaverse/utils"

	"github.com/dustin/go-humanize"
)

const (
	multipartMemory  = 32 << 20
	viewCountTimeout = 5 * time.Second
)

// VideoHandlerConfig collects the VideoHandler's collaborators.
type VideoHandlerConfig struct {
	Videos         services.VideoService
	Activity       services.ActivityService
	VideoStore     *storage.Local
	ThumbnailStore *storage.Local
	Responder      *media.Responder
	Signer         *utils.URLSigner // nil disables signed stream links
	LinkTTL        time.Duration
	PublicURL      string
}

// VideoHandler serves uploads, listings, moderation, and byte-range streaming of videos.
type VideoHandler struct {
	videos     services.VideoService
	activity   services.ActivityService
	videoStore *storage.Local
	thumbStore *storage.Local
	responder  *media.Responder
	signer     *utils.URLSigner
	linkTTL    time.Duration
	publicURL  string

	views sync.WaitGroup
}

// NewVideoHandler creates a VideoHandler.
func NewVideoHandler(cfg VideoHandlerConfig) *VideoHandler {
	responder := cfg.Responder
	if responder == nil {
		responder = media.NewResponder()
	}
	return &VideoHandler{
		videos:     cfg.Videos,
		activity:   cfg.Activity,
		videoStore: cfg.VideoStore,
		thumbStore: cfg.ThumbnailStore,
		responder:  responder,
		signer:     cfg.Signer,
		linkTTL:    cfg.LinkTTL,
		publicURL:  strings.TrimRight(cfg.PublicURL, "/"),
	}
}

// Wait blocks until pending view-count updates have finished.
func (h *VideoHandler) Wait() {
	h.views.Wait()
}

// Upload stores a new video
// @Summary Upload a video
// @Description Multipart upload of a video file with an optional thumbnail. New videos await moderation.
// @Tags videos
// @Accept multipart/form-data
// @Produce json
// @Param video formData file true "Video file"
// @Param thumbnail formData file false "Thumbnail image"
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param category formData string true "Category"
// @Param tags formData string false "Comma separated tags"
// @Param channel_name formData string true "Channel name"
// @Param uploaded_by formData string true "Uploader name"
// @Success 201 {object} models.APIResponse{data=models.Video}
// @Failure 400 {object} models.APIResponse
// @Failure 413 {object} models.APIResponse
// @Failure 429 {object} models.APIResponse
// @Router /api/videos/upload [post]
func (h *VideoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.RequestID(r.Context())

	limit := h.videoStore.MaxSize + h.thumbStore.MaxSize + multipartMemory
	if h.videoStore.MaxSize > 0 && h.thumbStore.MaxSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "Upload exceeds size limit", err)
			return
		}
		writeError(w, http.StatusBadRequest, "Failed to parse upload request", err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("video")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Video file is required", err)
		return
	}
	defer file.Close()

	stored, status, err := h.saveUpload(r.Context(), h.videoStore, file, header, "video/")
	if err != nil {
		writeError(w, status, "Invalid video file", err)
		return
	}

	videoFile := services.VideoFile{
		Path:         stored.RelPath,
		OriginalName: stored.OriginalName,
		Size:         stored.Size,
		MimeType:     stored.MimeType,
		Checksum:     stored.Checksum,
	}

	if thumb, thumbHeader, err := r.FormFile("thumbnail"); err == nil {
		defer thumb.Close()
		storedThumb, status, err := h.saveUpload(r.Context(), h.thumbStore, thumb, thumbHeader, "image/")
		if err != nil {
			h.removeFiles(videoFile.Path, "")
			writeError(w, status, "Invalid thumbnail", err)
			return
		}
		videoFile.Thumbnail = storedThumb.RelPath
		videoFile.ThumbnailMime = storedThumb.MimeType
	}

	req := models.CreateVideoRequest{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		Tags:        strings.Split(r.FormValue("tags"), ","),
		ChannelName: r.FormValue("channel_name"),
		UploadedBy:  r.FormValue("uploaded_by"),
	}
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok && strings.TrimSpace(req.UploadedBy) == "" {
		req.UploadedBy = claims.Name
	}

	video, err := h.videos.Create(r.Context(), req, videoFile)
	if err != nil {
		h.removeFiles(videoFile.Path, videoFile.Thumbnail)
		switch {
		case invalidInput(w, err):
		case errors.Is(err, services.ErrNotSpiritual):
			writeError(w, http.StatusBadRequest, "Content must be spiritual in nature", err)
		default:
			logger.WithFields(map[string]interface{}{
				"request_id": requestID,
				"error":      err.Error(),
			}).Error("Failed to create video")
			writeError(w, http.StatusInternalServerError, "Failed to save video", err)
		}
		return
	}

	logger.WithFields(map[string]interface{}{
		"request_id": requestID,
		"video_id":   video.ID,
		"title":      video.Title,
		"size":       humanize.Bytes(uint64(video.FileSize)),
		"mime_type":  video.MimeType,
	}).Info("Video uploaded")

	actorID, actorName := actor(r, video.UploadedBy)
	h.activity.Log(r.Context(), actorID, actorName, models.ActionUploadVideo,
		fmt.Sprintf("Uploaded video %q (%s)", video.Title, video.ID))

	h.decorate(video)
	writeJSON(w, http.StatusCreated, models.SuccessResponse("Video uploaded successfully. Awaiting approval.", video))
}

func (h *VideoHandler) saveUpload(ctx context.Context, store *storage.Local, file multipart.File,
	header *multipart.FileHeader, wantPrefix string) (*storage.StoredFile, int, error) {
	declared := header.Header.Get("Content-Type")
	if declared != "" && !strings.HasPrefix(declared, wantPrefix) && declared != "application/octet-stream" {
		return nil, http.StatusBadRequest, fmt.Errorf("content type %s is not allowed", declared)
	}

	stored, err := store.Save(ctx, file, header.Filename, declared)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrTooLarge):
			return nil, http.StatusRequestEntityTooLarge, err
		case errors.Is(err, storage.ErrEmptyFile):
			return nil, http.StatusBadRequest, err
		default:
			return nil, http.StatusInternalServerError, err
		}
	}

	if !strings.HasPrefix(stored.MimeType, wantPrefix) {
		if rmErr := store.Remove(stored.RelPath); rmErr != nil {
			logger.Warn("Failed to remove rejected upload %s: %v", stored.RelPath, rmErr)
		}
		return nil, http.StatusBadRequest, fmt.Errorf("content type %s is not allowed", stored.MimeType)
	}
	return stored, http.StatusCreated, nil
}

func (h *VideoHandler) removeFiles(videoPath, thumbPath string) {
	if videoPath != "" {
		if err := h.videoStore.Remove(videoPath); err != nil {
			logger.Warn("Failed to remove video file %s: %v", videoPath, err)
		}
	}
	if thumbPath != "" {
		if err := h.thumbStore.Remove(thumbPath); err != nil {
			logger.Warn("Failed to remove thumbnail %s: %v", thumbPath, err)
		}
	}
}

// List returns videos, newest first
// @Summary List videos
// @Description Approved videos, newest first. Moderators may pass status=pending or status=all.
// @Tags videos
// @Produce json
// @Param category query string false "Category"
// @Param status query string false "approved (default), pending, all"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} models.PaginatedResponse{data=[]models.Video}
// @Router /api/videos [get]
func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	approved := true
	filter := services.VideoFilter{
		Approved: &approved,
		Category: strings.TrimSpace(query.Get("category")),
		Page:     parsePositiveInt(query.Get("page"), 1),
		PageSize: parsePositiveInt(query.Get("limit"), 20),
	}

	if middleware.HasRole(r, models.RoleModerator, models.RoleAdmin) {
		switch query.Get("status") {
		case "pending":
			approved = false
		case "all":
			filter.Approved = nil
		}
	}

	videos, total, err := h.videos.List(r.Context(), filter)
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"request_id": middleware.RequestID(r.Context()),
			"error":      err.Error(),
		}).Error("Failed to list videos")
		writeError(w, http.StatusInternalServerError, "Failed to fetch videos", err)
		return
	}

	for _, v := range videos {
		h.decorate(v)
	}

	pageSize := filter.PageSize
	if pageSize > 100 {
		pageSize = 100
	}
	writeJSON(w, http.StatusOK, models.PageResponse("Videos retrieved", videos, models.NewPagination(filter.Page, pageSize, total)))
}

// decorate fills the client-facing URLs of v.
func (h *VideoHandler) decorate(v *models.Video) {
	v.VideoURL = h.publicURL + "/api/videos/stream/" + url.PathEscape(v.ID)
	if h.signer != nil {
		if query, err := h.signer.Sign(v.ID, h.linkTTL); err == nil {
			v.VideoURL += "?" + query
		} else {
			logger.Warn("Failed to sign stream link for %s: %v", v.ID, err)
		}
	}
	if v.HasThumbnail() {
		v.ThumbnailURL = h.publicURL + "/api/videos/thumbnail/" + url.PathEscape(v.ID)
	}
}

// Stream serves the video bytes, honouring a single Range header
// @Summary Stream a video
// @Description Serves the whole file (200) or a single byte range (206). Unsatisfiable ranges get 416 with Content-Range: bytes */size.
// @Tags videos
// @Produce video/mp4
// @Param id path string true "Video ID"
// @Param Range header string false "bytes=start-end"
// @Success 200 {file} file
// @Success 206 {file} file
// @Failure 403 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Failure 416 {string} string
// @Router /api/videos/stream/{id} [get]
func (h *VideoHandler) Stream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	requestID := middleware.RequestID(r.Context())

	if h.signer != nil {
		q := r.URL.Query()
		if err := h.signer.Verify(id, q.Get("exp"), q.Get("nonce"), q.Get("sig")); err != nil {
			writeError(w, http.StatusForbidden, "Invalid or expired stream link", err)
			return
		}
	}

	video, err := h.videos.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrVideoNotFound) {
			writeError(w, http.StatusNotFound, "Video not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load video", err)
		return
	}

	path, err := h.videoStore.Resolve(video.Filename)
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"request_id": requestID,
			"video_id":   video.ID,
			"error":      err.Error(),
		}).Warn("Video has an invalid storage path")
		writeError(w, http.StatusNotFound, "Video file not found", nil)
		return
	}

	asset := media.Asset{
		Path:        path,
		Size:        video.FileSize,
		ContentType: video.MimeType,
		Name:        video.OriginalName,
	}
	result, err := h.responder.Serve(w, r, asset, func() { h.countView(video.ID) })
	h.finishServe(w, r, video.ID, result, err)
}

// Thumbnail serves a video's thumbnail image
// @Summary Video thumbnail
// @Tags videos
// @Produce image/jpeg
// @Param id path string true "Video ID"
// @Success 200 {file} file
// @Failure 404 {object} models.APIResponse
// @Router /api/videos/thumbnail/{id} [get]
func (h *VideoHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	video, err := h.videos.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, services.ErrVideoNotFound) {
			writeError(w, http.StatusNotFound, "Video not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load video", err)
		return
	}
	if !video.HasThumbnail() {
		writeError(w, http.StatusNotFound, "Thumbnail not found", nil)
		return
	}

	path, err := h.thumbStore.Resolve(video.Thumbnail)
	if err != nil {
		writeError(w, http.StatusNotFound, "Thumbnail not found", nil)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=86400")
	result, err := h.responder.Serve(w, r, media.Asset{Path: path, ContentType: thumbnailType(video.ThumbnailMime)}, nil)
	h.finishServe(w, r, video.ID, result, err)
}

func thumbnailType(mimeType string) string {
	if strings.HasPrefix(mimeType, "image/") {
		return mimeType
	}
	return "application/octet-stream"
}

func (h *VideoHandler) finishServe(w http.ResponseWriter, r *http.Request, videoID string, result media.Result, err error) {
	fields := map[string]interface{}{
		"request_id": middleware.RequestID(r.Context()),
		"video_id":   videoID,
		"status":     result.Status,
		"written":    result.Written,
	}

	switch {
	case err == nil:
		logger.WithFields(fields).Debug("Media served")
	case errors.Is(err, media.ErrNotFound):
		fields["error"] = err.Error()
		logger.WithFields(fields).Warn("Media file missing")
		w.Header().Del("Cache-Control")
		writeError(w, http.StatusNotFound, "Video file not found", nil)
	case errors.Is(err, media.ErrRangeNotSatisfiable):
		fields["range"] = r.Header.Get("Range")
		logger.WithFields(fields).Debug("Range not satisfiable")
	case result.Status == 0:
		fields["error"] = err.Error()
		logger.WithFields(fields).Error("Failed to open media")
		writeError(w, http.StatusInternalServerError, "Failed to read video", nil)
	default:
		// Headers are already out; the client sees a truncated body.
		fields["error"] = err.Error()
		logger.WithFields(fields).Debug("Media stream ended early")
	}
}

// countView bumps the view counter without holding up the response.
func (h *VideoHandler) countView(id string) {
	h.views.Add(1)
	go func() {
		defer h.views.Done()

		ctx, cancel := context.WithTimeout(context.Background(), viewCountTimeout)
		defer cancel()

		if err := h.videos.IncrementViews(ctx, id); err != nil {
			logger.WithFields(map[string]interface{}{
				"video_id": id,
				"error":    err.Error(),
			}).Warn("Failed to increment view count")
		}
	}()
}

// Approve marks a video as approved
// @Summary Approve a video
// @Tags videos
// @Produce json
// @Security BearerAuth
// @Param id path string true "Video ID"
// @Success 200 {object} models.APIResponse{data=models.Video}
// @Failure 401 {object} models.APIResponse
// @Failure 403 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /api/videos/approve/{id} [put]
func (h *VideoHandler) Approve(w http.ResponseWriter, r *http.Request) {
	video, err := h.videos.Approve(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, services.ErrVideoNotFound) {
			writeError(w, http.StatusNotFound, "Video not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to approve video", err)
		return
	}

	actorID, actorName := actor(r, "")
	h.activity.Log(r.Context(), actorID, actorName, models.ActionApproveVideo,
		fmt.Sprintf("Approved video %q (%s)", video.Title, video.ID))

	h.decorate(video)
	writeJSON(w, http.StatusOK, models.SuccessResponse("Video approved successfully", video))
}

// Delete removes a video and its files
// @Summary Delete a video
// @Tags videos
// @Produce json
// @Security BearerAuth
// @Param id path string true "Video ID"
// @Success 200 {object} models.APIResponse
// @Failure 401 {object} models.APIResponse
// @Failure 403 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /api/videos/{id} [delete]
func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	video, err := h.videos.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, services.ErrVideoNotFound) {
			writeError(w, http.StatusNotFound, "Video not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete video", err)
		return
	}

	h.removeFiles(video.Filename, video.Thumbnail)

	actorID, actorName := actor(r, "")
	h.activity.Log(r.Context(), actorID, actorName, models.ActionDeleteVideo,
		fmt.Sprintf("Deleted video %q (%s)", video.Title, video.ID))

	writeJSON(w, http.StatusOK, models.SuccessResponse("Video deleted successfully", map[string]string{"id": video.ID}))
}
