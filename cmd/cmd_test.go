package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dharmaverse/config"
	"dharmaverse/logger"
	"dharmaverse/models"
	"dharmaverse/testutil"
	"dharmaverse/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func quietLogging(t *testing.T) {
	t.Helper()
	orig := initLogging
	initLogging = func(*config.Config) error {
		logger.Replace(zaptest.NewLogger(t))
		return nil
	}
	t.Cleanup(func() { initLogging = orig })
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	content := "database:\n  dsn: " + filepath.ToSlash(filepath.Join(dir, "db", "dharma.db")) + "\n" +
		"auth:\n  jwt_secret: file-secret\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestTokenCommand(t *testing.T) {
	cfgPath := writeConfig(t, t.TempDir())

	out, err := run(t, "token", "--config", cfgPath, "--user", "admin-1", "--name", "Site Admin", "--role", models.RoleAdmin)
	require.NoError(t, err)

	claims, err := utils.NewTokenIssuer("file-secret", "dharmaverse", time.Hour).Validate(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.UserID)
	assert.Equal(t, "Site Admin", claims.Name)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestTokenCommandJSON(t *testing.T) {
	cfgPath := writeConfig(t, t.TempDir())

	out, err := run(t, "token", "-c", cfgPath, "-u", "u-42", "--ttl", "1h", "--json")
	require.NoError(t, err)

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, "u-42", payload["user_id"])
	assert.Equal(t, models.RoleUser, payload["role"])
	assert.NotEmpty(t, payload["token"])
}

func TestTokenCommandRejectsInput(t *testing.T) {
	_, err := run(t, "token", "--user", "x", "--role", "guru")
	assert.ErrorContains(t, err, "unknown role")

	_, err = run(t, "token")
	assert.Error(t, err)
}

func TestMigrateCommand(t *testing.T) {
	quietLogging(t)
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)

	out, err := run(t, "migrate", "--config", cfgPath, "--seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Database migrated (sqlite)")
	assert.FileExists(t, filepath.Join(dir, "db", "dharma.db"))

	_, err = run(t, "migrate", "--config", cfgPath, "--seed")
	require.NoError(t, err, "migrate is repeatable")
}

type testServer struct {
	*httptest.Server
	issuer *utils.TokenIssuer
	app    *app
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.NewDB(t)

	cfg := config.Default()
	cfg.Storage.VideoDir = t.TempDir()
	cfg.Storage.ThumbnailDir = t.TempDir()
	cfg.Storage.MaxVideoSize = 1 << 20
	cfg.RateLimit.Requests = 3

	a := newApp(cfg, db)
	srv := httptest.NewServer(a.routes())
	t.Cleanup(func() {
		srv.Close()
		a.videos.Wait()
	})
	return &testServer{Server: srv, issuer: a.issuer, app: a}
}

func (s *testServer) do(t *testing.T, method, path, role string, body io.Reader, header map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, body)
	require.NoError(t, err)
	if role != "" {
		token, _, err := s.issuer.Issue(role+"-1", "Test "+role, role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readEnvelope(t *testing.T, resp *http.Response, data interface{}) models.APIResponse {
	t.Helper()
	var raw struct {
		models.APIResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	if data != nil {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return raw.APIResponse
}

func TestRoutesPlatform(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/", "", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp = s.do(t, http.MethodGet, "/api/health", "", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/nothing-here", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "error", readEnvelope(t, resp, nil).Status)

	resp = s.do(t, http.MethodOptions, "/api/videos/stream/vid-1", "", nil, map[string]string{
		"Origin":                        "https://app.example",
		"Access-Control-Request-Method": "GET",
	})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	resp = s.do(t, http.MethodGet, "/swagger/doc.json", "", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRoutesAuthorization(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method, path, role string
		want               int
	}{
		{http.MethodGet, "/api/auth/me", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/auth/me", models.RoleUser, http.StatusOK},
		{http.MethodGet, "/api/purchases", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/purchases", models.RoleUser, http.StatusOK},
		{http.MethodGet, "/api/achievements", models.RoleUser, http.StatusOK},
		{http.MethodPut, "/api/videos/approve/vid-x", models.RoleUser, http.StatusForbidden},
		{http.MethodPut, "/api/videos/approve/vid-x", models.RoleModerator, http.StatusNotFound},
		{http.MethodDelete, "/api/videos/vid-x", models.RoleModerator, http.StatusForbidden},
		{http.MethodDelete, "/api/videos/vid-x", models.RoleAdmin, http.StatusNotFound},
		{http.MethodGet, "/api/admin/dashboard/stats", models.RoleModerator, http.StatusForbidden},
		{http.MethodGet, "/api/admin/dashboard/stats", models.RoleAdmin, http.StatusOK},
		{http.MethodGet, "/api/admin/activities", models.RoleAdmin, http.StatusOK},
		{http.MethodGet, "/api/challenges", "", http.StatusOK},
		{http.MethodGet, "/api/videos/live", "", http.StatusOK},
	}

	for _, tt := range tests {
		resp := s.do(t, tt.method, tt.path, tt.role, nil, nil)
		assert.Equal(t, tt.want, resp.StatusCode, "%s %s as %q", tt.method, tt.path, tt.role)
	}
}

func TestRoutesUploadApproveStream(t *testing.T) {
	s := newTestServer(t)

	content := append([]byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'm', 'p', '4', '2'}, testutil.Bytes(988)...)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range map[string]string{
		"title":        "Dharma Talk",
		"description":  "On karma yoga",
		"category":     "Philosophy",
		"channel_name": "Sangha",
		"uploaded_by":  "Ananda",
	} {
		require.NoError(t, mw.WriteField(k, v))
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="video"; filename="talk.mp4"`)
	header.Set("Content-Type", "video/mp4")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp := s.do(t, http.MethodPost, "/api/videos/upload", "", &body, map[string]string{"Content-Type": mw.FormDataContentType()})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var video models.Video
	readEnvelope(t, resp, &video)

	resp = s.do(t, http.MethodPut, "/api/videos/approve/"+video.ID, models.RoleModerator, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/videos/stream/"+video.ID, "", nil, map[string]string{"Range": "bytes=0-499"})
	require.Equal(t, http.StatusPartialContent, resp.StatusCode)
	assert.Equal(t, "bytes 0-499/1000", resp.Header.Get("Content-Range"))
	assert.Equal(t, "500", resp.Header.Get("Content-Length"))
	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, content[:500], got)

	resp = s.do(t, http.MethodGet, "/api/videos/stream/"+video.ID, "", nil, map[string]string{"Range": "bytes=1000-"})
	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, resp.StatusCode)
	assert.Equal(t, "bytes */1000", resp.Header.Get("Content-Range"))

	resp = s.do(t, http.MethodGet, "/api/videos/stream/vid-unknown", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/videos", "", nil, nil)
	var videos []models.Video
	readEnvelope(t, resp, &videos)
	require.Len(t, videos, 1)
	assert.Equal(t, "/api/videos/stream/"+video.ID, videos[0].VideoURL)
}

func TestRoutesRateLimitSubmit(t *testing.T) {
	s := newTestServer(t)

	submit := func() *http.Response {
		return s.do(t, http.MethodPost, "/api/challenges/submit", "",
			strings.NewReader(`{"challenge_id":"chl-truth-validator","code":"return true"}`),
			map[string]string{"Content-Type": "application/json"})
	}

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusCreated, submit().StatusCode)
	}
	resp := submit()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	// Other endpoints keep their own budget.
	resp = s.do(t, http.MethodPost, "/api/videos/live/start", "",
		strings.NewReader(`{"title":"Morning meditation","category":"Meditation","streamer_name":"Mira","channel_name":"Mira"}`),
		map[string]string{"Content-Type": "application/json"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	db := testutil.NewDB(t)
	cfg := config.Default()
	cfg.Storage.VideoDir = t.TempDir()
	cfg.Storage.ThumbnailDir = t.TempDir()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, newApp(cfg, db), listener) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + listener.Addr().String() + "/api/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}
