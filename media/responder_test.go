package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"dharmaverse/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func serve(t *testing.T, rs *Responder, asset Asset, method, rangeHeader string) (*httptest.ResponseRecorder, Result, int32, error) {
	t.Helper()
	req := httptest.NewRequest(method, "/api/videos/stream/vid-1", nil)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	rec := httptest.NewRecorder()

	var started int32
	result, err := rs.Serve(rec, req, asset, func() { atomic.AddInt32(&started, 1) })
	return rec, result, started, err
}

func TestServeScenarios(t *testing.T) {
	logger.Replace(zaptest.NewLogger(t))
	path, data := writeSample(t, 1000)
	asset := Asset{Path: path, Size: 1000, ContentType: "video/mp4"}
	rs := NewResponder(WithChunkSize(128))

	tests := []struct {
		name         string
		header       string
		status       int
		body         []byte
		contentRange string
	}{
		{"first half", "bytes=0-499", http.StatusPartialContent, data[0:500], "bytes 0-499/1000"},
		{"open ended", "bytes=500-", http.StatusPartialContent, data[500:], "bytes 500-999/1000"},
		{"suffix", "bytes=-200", http.StatusPartialContent, data[800:], "bytes 800-999/1000"},
		{"full", "", http.StatusOK, data, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, result, started, err := serve(t, rs, asset, http.MethodGet, tt.header)
			require.NoError(t, err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.body, rec.Body.Bytes())
			assert.Equal(t, tt.contentRange, rec.Header().Get("Content-Range"))
			assert.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
			assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
			assert.EqualValues(t, len(tt.body), result.Written)
			assert.EqualValues(t, 1, started)
		})
	}
}

func TestServeUnsatisfiable(t *testing.T) {
	logger.Replace(zaptest.NewLogger(t))
	path, _ := writeSample(t, 1000)
	rs := NewResponder()

	rec, _, started, err := serve(t, rs, Asset{Path: path, Size: 1000}, http.MethodGet, "bytes=2000-")
	require.ErrorIs(t, err, ErrRangeNotSatisfiable)

	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code)
	assert.Equal(t, "bytes */1000", rec.Header().Get("Content-Range"))
	assert.Empty(t, rec.Body.Bytes())
	assert.Zero(t, started)
}

func TestServeMissingFileWritesNothing(t *testing.T) {
	logger.Replace(zaptest.NewLogger(t))
	rs := NewResponder()

	rec, _, started, err := serve(t, rs, Asset{Path: filepath.Join(t.TempDir(), "gone.mp4")}, http.MethodGet, "")
	require.ErrorIs(t, err, ErrNotFound)

	assert.False(t, rec.Flushed)
	assert.Empty(t, rec.Header())
	assert.Empty(t, rec.Body.Bytes())
	assert.Zero(t, started)
}

func TestServeUnreachablePathIsNotFound(t *testing.T) {
	logger.Replace(zaptest.NewLogger(t))
	rs := NewResponder()
	parent, _ := writeSample(t, 10)

	rec, _, started, err := serve(t, rs, Asset{Path: filepath.Join(parent, "video.mp4")}, http.MethodGet, "")
	require.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrIO)

	assert.Empty(t, rec.Header())
	assert.Empty(t, rec.Body.Bytes())
	assert.Zero(t, started)
}

func TestServeDirectoryIsNotFound(t *testing.T) {
	rs := NewResponder()
	_, _, _, err := serve(t, rs, Asset{Path: t.TempDir()}, http.MethodGet, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServeHeadSkipsBodyAndCounter(t *testing.T) {
	logger.Replace(zaptest.NewLogger(t))
	path, _ := writeSample(t, 1000)
	rs := NewResponder()

	rec, _, started, err := serve(t, rs, Asset{Path: path}, http.MethodHead, "bytes=0-9")
	require.NoError(t, err)
	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "10", rec.Header().Get("Content-Length"))
	assert.Empty(t, rec.Body.Bytes())
	assert.Zero(t, started)
}

func TestServeUsesActualFileSize(t *testing.T) {
	logger.Replace(zaptest.NewLogger(t))
	path, data := writeSample(t, 300)
	rs := NewResponder()

	rec, _, _, err := serve(t, rs, Asset{Path: path, Size: 1000}, http.MethodGet, "bytes=-100")
	require.NoError(t, err)
	assert.Equal(t, "bytes 200-299/300", rec.Header().Get("Content-Range"))
	assert.Equal(t, data[200:], rec.Body.Bytes())
}

func TestServeRepeatedRangeIsIdempotent(t *testing.T) {
	logger.Replace(zaptest.NewLogger(t))
	path, _ := writeSample(t, 1000)
	rs := NewResponder(WithChunkSize(64))

	first, _, _, err := serve(t, rs, Asset{Path: path}, http.MethodGet, "bytes=100-299")
	require.NoError(t, err)
	second, _, _, err := serve(t, rs, Asset{Path: path}, http.MethodGet, "bytes=100-299")
	require.NoError(t, err)

	assert.Equal(t, first.Header(), second.Header())
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
}

func TestServeWithBandwidthCap(t *testing.T) {
	logger.Replace(zaptest.NewLogger(t))
	path, data := writeSample(t, 4096)
	rs := NewResponder(WithBandwidth(1<<20), WithChunkSize(1024))

	rec, _, _, err := serve(t, rs, Asset{Path: path}, http.MethodGet, "")
	require.NoError(t, err)
	assert.Equal(t, data, rec.Body.Bytes())

	limiter := rs.limiter()
	assert.GreaterOrEqual(t, limiter.Burst(), 1024)
}

func TestServeStopsWhenClientGoesAway(t *testing.T) {
	logger.Replace(zaptest.NewLogger(t))
	path, _ := writeSample(t, 10000)
	rs := NewResponder(WithChunkSize(100))

	req := httptest.NewRequest(http.MethodGet, "/api/videos/stream/vid-1", nil)
	ctx, cancel := context.WithCancel(req.Context())
	req = req.WithContext(ctx)

	w := &cancelAfterWrite{ResponseRecorder: httptest.NewRecorder(), cancel: cancel}
	result, err := rs.Serve(w, req, Asset{Path: path}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, result.Written, int64(10000))
}

type cancelAfterWrite struct {
	*httptest.ResponseRecorder
	cancel context.CancelFunc
}

func (c *cancelAfterWrite) Write(p []byte) (int, error) {
	n, err := c.ResponseRecorder.Write(p)
	c.cancel()
	return n, err
}
