package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dharmaverse/config"
	"dharmaverse/media"
	"dharmaverse/middleware"
	"dharmaverse/models"
	"dharmaverse/services"
	"dharmaverse/storage"
	"dharmaverse/testutil"
	"dharmaverse/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Error   string            `json:"error"`
	Meta    models.Pagination `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

type fixture struct {
	ctx          context.Context
	videos       services.VideoService
	streams      services.LiveStreamService
	challenges   services.ChallengeService
	purchases    services.PurchaseService
	achievements services.AchievementService
	activity     services.ActivityService
	dashboard    *services.DashboardService
	videoStore   *storage.Local
	thumbStore   *storage.Local
	pinger       Pinger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := services.NewSQLExecutor(testutil.NewDB(t))
	cfg := config.Default()
	moderator := services.NewModerator(cfg.Moderation.Keywords, cfg.Moderation.Categories)

	f := &fixture{
		ctx:          context.Background(),
		videos:       services.NewVideoService(db, moderator),
		streams:      services.NewLiveStreamService(db, moderator),
		challenges:   services.NewChallengeService(db),
		purchases:    services.NewPurchaseService(db),
		achievements: services.NewAchievementService(db),
		activity:     services.NewActivityService(db),
		videoStore:   storage.NewLocal(t.TempDir(), 1<<20, "vid"),
		thumbStore:   storage.NewLocal(t.TempDir(), 64<<10, "thumb"),
		pinger:       db,
	}
	f.dashboard = services.NewDashboardService(f.videos, f.streams, f.challenges, f.purchases, f.activity)
	return f
}

func (f *fixture) videoHandler(t *testing.T, signer *utils.URLSigner) *VideoHandler {
	t.Helper()
	h := NewVideoHandler(VideoHandlerConfig{
		Videos:         f.videos,
		Activity:       f.activity,
		VideoStore:     f.videoStore,
		ThumbnailStore: f.thumbStore,
		Responder:      media.NewResponder(media.WithChunkSize(256)),
		Signer:         signer,
		LinkTTL:        time.Hour,
	})
	t.Cleanup(h.Wait)
	return h
}

// addVideo stores a 1000-byte video directly through the service.
func (f *fixture) addVideo(t *testing.T, approved bool) (*models.Video, []byte) {
	t.Helper()
	data := testutil.Bytes(1000)
	name, err := utils.GenerateID("vid")
	require.NoError(t, err)
	rel := "2024/05/" + name + ".mp4"
	testutil.WriteFile(t, f.videoStore.Root, rel, data)

	video, err := f.videos.Create(f.ctx, models.CreateVideoRequest{
		Title:       "Gita Chapter Two",
		Description: "Reading of the bhagavad gita",
		Category:    "Bhagavad Gita",
		ChannelName: "Ashram TV",
		UploadedBy:  "Ved",
	}, services.VideoFile{Path: rel, OriginalName: "ch2.mp4", Size: int64(len(data)), MimeType: "video/mp4"})
	require.NoError(t, err)

	if approved {
		video, err = f.videos.Approve(f.ctx, video.ID)
		require.NoError(t, err)
	}
	return video, data
}

func withRole(r *http.Request, role string) *http.Request {
	claims := &utils.Claims{UserID: role + "-1", Name: "Test " + role, Role: role}
	return r.WithContext(middleware.WithClaims(r.Context(), claims))
}

func streamRequest(method, id, rangeHeader, query string) *http.Request {
	target := "/api/videos/stream/" + id
	if query != "" {
		target += "?" + query
	}
	req := httptest.NewRequest(method, target, nil)
	req.SetPathValue("id", id)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	return req
}

func TestStreamRanges(t *testing.T) {
	f := newFixture(t)
	h := f.videoHandler(t, nil)
	video, data := f.addVideo(t, true)

	tests := []struct {
		name         string
		header       string
		status       int
		body         []byte
		contentRange string
	}{
		{"full", "", http.StatusOK, data, ""},
		{"first half", "bytes=0-499", http.StatusPartialContent, data[:500], "bytes 0-499/1000"},
		{"open ended", "bytes=500-", http.StatusPartialContent, data[500:], "bytes 500-999/1000"},
		{"suffix", "bytes=-200", http.StatusPartialContent, data[800:], "bytes 800-999/1000"},
		{"end clamped", "bytes=900-5000", http.StatusPartialContent, data[900:], "bytes 900-999/1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Stream(rec, streamRequest(http.MethodGet, video.ID, tt.header, ""))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.body, rec.Body.Bytes())
			assert.Equal(t, tt.contentRange, rec.Header().Get("Content-Range"))
			assert.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
			assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
		})
	}

	h.Wait()
	got, err := f.videos.Get(f.ctx, video.ID)
	require.NoError(t, err)
	assert.EqualValues(t, len(tests), got.Views)
}

func TestStreamUnsatisfiableRange(t *testing.T) {
	f := newFixture(t)
	h := f.videoHandler(t, nil)
	video, _ := f.addVideo(t, true)

	for _, header := range []string{"bytes=1000-", "bytes=1200-1300", "bytes=600-500", "bytes=-0"} {
		rec := httptest.NewRecorder()
		h.Stream(rec, streamRequest(http.MethodGet, video.ID, header, ""))

		assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code, header)
		assert.Equal(t, "bytes */1000", rec.Header().Get("Content-Range"), header)
		assert.Empty(t, rec.Body.Bytes(), header)
	}

	h.Wait()
	got, err := f.videos.Get(f.ctx, video.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Views, "rejected ranges must not count as views")
}

func TestStreamRepeatedRequestsAreIdentical(t *testing.T) {
	f := newFixture(t)
	h := f.videoHandler(t, nil)
	video, _ := f.addVideo(t, true)

	var bodies [][]byte
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.Stream(rec, streamRequest(http.MethodGet, video.ID, "bytes=100-199", ""))
		require.Equal(t, http.StatusPartialContent, rec.Code)
		bodies = append(bodies, rec.Body.Bytes())
	}
	assert.Equal(t, bodies[0], bodies[1])
	assert.Equal(t, bodies[1], bodies[2])
}

func TestStreamHeadDoesNotCountView(t *testing.T) {
	f := newFixture(t)
	h := f.videoHandler(t, nil)
	video, _ := f.addVideo(t, true)

	rec := httptest.NewRecorder()
	h.Stream(rec, streamRequest(http.MethodHead, video.ID, "", ""))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1000", rec.Header().Get("Content-Length"))

	h.Wait()
	got, err := f.videos.Get(f.ctx, video.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Views)
}

func TestStreamNotFound(t *testing.T) {
	f := newFixture(t)
	h := f.videoHandler(t, nil)

	rec := httptest.NewRecorder()
	h.Stream(rec, streamRequest(http.MethodGet, "vid-missing", "bytes=0-10", ""))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "error", decodeEnvelope(t, rec, nil).Status)

	video, _ := f.addVideo(t, true)
	path, err := f.videoStore.Resolve(video.Filename)
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	rec = httptest.NewRecorder()
	h.Stream(rec, streamRequest(http.MethodGet, video.ID, "", ""))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Range"))

	// Backing path runs through a regular file, so stat fails with ENOTDIR.
	testutil.WriteFile(t, f.videoStore.Root, "2024/05/blocker", []byte("x"))
	blocked, err := f.videos.Create(f.ctx, models.CreateVideoRequest{
		Title:       "Gita Chapter Three",
		Description: "Reading of the bhagavad gita",
		Category:    "Bhagavad Gita",
		ChannelName: "Ashram TV",
		UploadedBy:  "Ved",
	}, services.VideoFile{Path: "2024/05/blocker/ch3.mp4", OriginalName: "ch3.mp4", Size: 1000, MimeType: "video/mp4"})
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	h.Stream(rec, streamRequest(http.MethodGet, blocked.ID, "bytes=0-10", ""))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "error", decodeEnvelope(t, rec, nil).Status)

	h.Wait()
	got, err := f.videos.Get(f.ctx, blocked.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Views)
}

func TestThumbnailWithoutImageTypeIsOctetStream(t *testing.T) {
	f := newFixture(t)
	h := f.videoHandler(t, nil)

	thumb := []byte("\x89PNG\r\n\x1a\nthumb")
	testutil.WriteFile(t, f.thumbStore.Root, "2024/05/cover.png", thumb)
	testutil.WriteFile(t, f.videoStore.Root, "2024/05/clip.mp4", testutil.Bytes(100))
	video, err := f.videos.Create(f.ctx, models.CreateVideoRequest{
		Title:       "Morning Meditation",
		Description: "Guided meditation",
		Category:    "Meditation",
		ChannelName: "Ashram TV",
		UploadedBy:  "Ved",
	}, services.VideoFile{Path: "2024/05/clip.mp4", Size: 100, MimeType: "video/mp4", Thumbnail: "2024/05/cover.png"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/videos/thumbnail/"+video.ID, nil)
	req.SetPathValue("id", video.ID)
	h.Thumbnail(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, thumb, rec.Body.Bytes())
}

func TestStreamSignedLinks(t *testing.T) {
	f := newFixture(t)
	h := f.videoHandler(t, utils.NewURLSigner("link-secret"))
	video, data := f.addVideo(t, true)

	rec := httptest.NewRecorder()
	h.Stream(rec, streamRequest(http.MethodGet, video.ID, "", ""))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	h.decorate(video)
	require.Contains(t, video.VideoURL, "sig=")
	_, query, ok := strings.Cut(video.VideoURL, "?")
	require.True(t, ok)

	rec = httptest.NewRecorder()
	h.Stream(rec, streamRequest(http.MethodGet, video.ID, "bytes=0-9", query))
	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, data[:10], rec.Body.Bytes())
}

func TestStreamOverHTTPServer(t *testing.T) {
	f := newFixture(t)
	h := f.videoHandler(t, nil)
	video, _ := f.addVideo(t, true)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/videos/stream/{id}", h.Stream)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/videos/stream/"+video.ID, nil)
	require.NoError(t, err)
	req.Header.Set("Range", "bytes=0-99")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusPartialContent, resp.StatusCode)
	assert.Equal(t, "bytes 0-99/1000", resp.Header.Get("Content-Range"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Len(t, body, 100)
	resp.Body.Close()
}

type uploadPart struct {
	field, filename, contentType string
	content                      []byte
}

func uploadRequest(t *testing.T, fields map[string]string, parts ...uploadPart) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, p := range parts {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="`+p.field+`"; filename="`+p.filename+`"`)
		header.Set("Content-Type", p.contentType)
		w, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = w.Write(p.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/videos/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func countFiles(t *testing.T, root string) int {
	t.Helper()
	n := 0
	require.NoError(t, filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	}))
	return n
}

var mp4Bytes = append([]byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'm', 'p', '4', '2',
	0x00, 0x00, 0x00, 0x00, 'm', 'p', '4', '2', 'i', 's', 'o', 'm'}, testutil.Bytes(2000)...)

func validFields() map[string]string {
	return map[string]string{
		"title":        "Evening Meditation",
		"description":  "Calm breathing",
		"category":     "meditation",
		"tags":         "breath, calm",
		"channel_name": "Ashram TV",
		"uploaded_by":  "Ved",
	}
}

func TestUploadStoresPendingVideo(t *testing.T) {
	f := newFixture(t)
	h := f.videoHandler(t, nil)

	rec := httptest.NewRecorder()
	h.Upload(rec, uploadRequest(t, validFields(),
		uploadPart{"video", "evening.mp4", "video/mp4", mp4Bytes},
		uploadPart{"thumbnail", "cover.png", "image/png", []byte("\x89PNG\r\n\x1a\nthumb")},
	))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var video models.Video
	decodeEnvelope(t, rec, &video)
	assert.False(t, video.IsApproved)
	assert.Equal(t, "Meditation", video.Category)
	assert.Equal(t, []string{"breath", "calm"}, video.Tags)
	assert.EqualValues(t, len(mp4Bytes), video.FileSize)
	assert.Equal(t, "/api/videos/stream/"+video.ID, video.VideoURL)
	assert.Equal(t, "/api/videos/thumbnail/"+video.ID, video.ThumbnailURL)

	assert.Equal(t, 1, countFiles(t, f.videoStore.Root))
	assert.Equal(t, 1, countFiles(t, f.thumbStore.Root))

	logs, total, err := f.activity.List(f.ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, models.ActionUploadVideo, logs[0].Action)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/videos/thumbnail/"+video.ID, nil)
	req.SetPathValue("id", video.ID)
	h.Thumbnail(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
}

func TestUploadRejections(t *testing.T) {
	notSpiritual := validFields()
	notSpiritual["title"] = "Car review"
	notSpiritual["description"] = "fast engines"
	notSpiritual["tags"] = "cars"

	badCategory := validFields()
	badCategory["category"] = "Cooking"

	tests := []struct {
		name   string
		fields map[string]string
		parts  []uploadPart
		status int
	}{
		{"missing video", validFields(), nil, http.StatusBadRequest},
		{"not spiritual", notSpiritual, []uploadPart{{"video", "a.mp4", "video/mp4", mp4Bytes}}, http.StatusBadRequest},
		{"bad category", badCategory, []uploadPart{{"video", "a.mp4", "video/mp4", mp4Bytes}}, http.StatusBadRequest},
		{"wrong type", validFields(), []uploadPart{{"video", "a.txt", "text/plain", []byte("hello")}}, http.StatusBadRequest},
		{"thumbnail not image", validFields(), []uploadPart{
			{"video", "a.mp4", "video/mp4", mp4Bytes},
			{"thumbnail", "t.mp4", "video/mp4", mp4Bytes},
		}, http.StatusBadRequest},
		{"too large", validFields(), []uploadPart{{"video", "a.mp4", "video/mp4", make([]byte, 2<<20)}}, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			h := f.videoHandler(t, nil)

			rec := httptest.NewRecorder()
			h.Upload(rec, uploadRequest(t, tt.fields, tt.parts...))
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, "error", decodeEnvelope(t, rec, nil).Status)

			assert.Zero(t, countFiles(t, f.videoStore.Root), "rejected uploads leave no files")
			assert.Zero(t, countFiles(t, f.thumbStore.Root))
		})
	}
}

func TestListVideosVisibility(t *testing.T) {
	f := newFixture(t)
	h := f.videoHandler(t, nil)
	approved, _ := f.addVideo(t, true)
	pending, _ := f.addVideo(t, false)

	list := func(r *http.Request) []models.Video {
		rec := httptest.NewRecorder()
		h.List(rec, r)
		require.Equal(t, http.StatusOK, rec.Code)
		var videos []models.Video
		decodeEnvelope(t, rec, &videos)
		return videos
	}

	public := list(httptest.NewRequest(http.MethodGet, "/api/videos?status=pending", nil))
	require.Len(t, public, 1)
	assert.Equal(t, approved.ID, public[0].ID)
	assert.NotEmpty(t, public[0].VideoURL)

	mod := list(withRole(httptest.NewRequest(http.MethodGet, "/api/videos?status=pending", nil), models.RoleModerator))
	require.Len(t, mod, 1)
	assert.Equal(t, pending.ID, mod[0].ID)

	all := list(withRole(httptest.NewRequest(http.MethodGet, "/api/videos?status=all", nil), models.RoleAdmin))
	assert.Len(t, all, 2)

	byCategory := list(httptest.NewRequest(http.MethodGet, "/api/videos?category=bhagavad+gita", nil))
	assert.Len(t, byCategory, 1)
}

func TestApproveAndDeleteVideo(t *testing.T) {
	f := newFixture(t)
	h := f.videoHandler(t, nil)
	video, _ := f.addVideo(t, false)

	req := withRole(httptest.NewRequest(http.MethodPut, "/api/videos/approve/"+video.ID, nil), models.RoleModerator)
	req.SetPathValue("id", video.ID)
	rec := httptest.NewRecorder()
	h.Approve(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var approved models.Video
	decodeEnvelope(t, rec, &approved)
	assert.True(t, approved.IsApproved)

	req = withRole(httptest.NewRequest(http.MethodDelete, "/api/videos/"+video.ID, nil), models.RoleAdmin)
	req.SetPathValue("id", video.ID)
	rec = httptest.NewRecorder()
	h.Delete(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, countFiles(t, f.videoStore.Root))

	_, err := f.videos.Get(f.ctx, video.ID)
	assert.ErrorIs(t, err, services.ErrVideoNotFound)

	logs, _, err := f.activity.List(f.ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	actions := []string{logs[0].Action, logs[1].Action}
	assert.ElementsMatch(t, []string{models.ActionApproveVideo, models.ActionDeleteVideo}, actions)

	req = withRole(httptest.NewRequest(http.MethodPut, "/api/videos/approve/nope", nil), models.RoleModerator)
	req.SetPathValue("id", "nope")
	rec = httptest.NewRecorder()
	h.Approve(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
