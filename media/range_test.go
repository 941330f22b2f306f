package media

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		header string
		want   RangeSpec
		ok     bool
	}{
		{"bytes=0-499", RangeSpec{Start: 0, End: 499, HasStart: true, HasEnd: true}, true},
		{"bytes=500-", RangeSpec{Start: 500, HasStart: true}, true},
		{"bytes=-200", RangeSpec{End: 200, HasEnd: true}, true},
		{"Bytes = 10-20", RangeSpec{Start: 10, End: 20, HasStart: true, HasEnd: true}, true},
		{"", RangeSpec{}, false},
		{"bytes=", RangeSpec{}, false},
		{"bytes=-", RangeSpec{}, false},
		{"bytes=abc-def", RangeSpec{}, false},
		{"bytes=+5-10", RangeSpec{}, false},
		{"bytes=0-1,5-6", RangeSpec{}, false},
		{"items=0-10", RangeSpec{}, false},
		{"bytes 0-10", RangeSpec{}, false},
		{"bytes=99999999999999999999-", RangeSpec{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, ok := ParseRange(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveThousandByteFile(t *testing.T) {
	const size = 1000

	tests := []struct {
		name         string
		header       string
		wantStatus   int
		wantWindow   Window
		wantLength   int64
		contentRange string
	}{
		{"first half", "bytes=0-499", http.StatusPartialContent, Window{0, 499}, 500, "bytes 0-499/1000"},
		{"open ended", "bytes=500-", http.StatusPartialContent, Window{500, 999}, 500, "bytes 500-999/1000"},
		{"suffix", "bytes=-200", http.StatusPartialContent, Window{800, 999}, 200, "bytes 800-999/1000"},
		{"no header", "", http.StatusOK, Window{0, 999}, 1000, ""},
		{"end clamped", "bytes=900-1500", http.StatusPartialContent, Window{900, 999}, 100, "bytes 900-999/1000"},
		{"suffix longer than file", "bytes=-5000", http.StatusPartialContent, Window{0, 999}, 1000, "bytes 0-999/1000"},
		{"last byte", "bytes=999-999", http.StatusPartialContent, Window{999, 999}, 1, "bytes 999-999/1000"},
		{"malformed served whole", "bytes=x-y", http.StatusOK, Window{0, 999}, 1000, ""},
		{"multi range served whole", "bytes=0-1,3-4", http.StatusOK, Window{0, 999}, 1000, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := Resolve(size, tt.header, "video/mp4")
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, tt.wantWindow, resp.Window)
			assert.Equal(t, tt.wantLength, resp.Window.Length())
			assert.Equal(t, tt.contentRange, resp.ContentRange())
			assert.EqualValues(t, size, resp.Size)
		})
	}
}

func TestResolveUnsatisfiable(t *testing.T) {
	for _, header := range []string{"bytes=2000-", "bytes=1000-", "bytes=500-100", "bytes=-0", "bytes=2000-2500"} {
		t.Run(header, func(t *testing.T) {
			resp, err := Resolve(1000, header, "video/mp4")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrRangeNotSatisfiable))
			assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, resp.Status)
			assert.Equal(t, "bytes */1000", resp.ContentRange())
		})
	}
}

func TestResolveEmptyFile(t *testing.T) {
	resp, err := Resolve(0, "", "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Zero(t, resp.Window.Length())
	assert.Equal(t, DefaultContentType, resp.ContentType)

	_, err = Resolve(0, "bytes=0-", "")
	assert.ErrorIs(t, err, ErrRangeNotSatisfiable)
}

func TestResolveIsIdempotent(t *testing.T) {
	first, err := Resolve(1000, "bytes=100-199", "video/webm")
	require.NoError(t, err)
	second, err := Resolve(1000, "bytes=100-199", "video/webm")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolveWindowAlwaysInsideFile(t *testing.T) {
	headers := []string{"", "bytes=0-", "bytes=-1", "bytes=-999999", "bytes=10-5000", "bytes=0-0", "bytes=7-7"}
	for _, size := range []int64{1, 2, 10, 1000} {
		for _, h := range headers {
			resp, err := Resolve(size, h, "")
			if err != nil {
				assert.ErrorIs(t, err, ErrRangeNotSatisfiable)
				continue
			}
			assert.GreaterOrEqual(t, resp.Window.Start, int64(0))
			assert.LessOrEqual(t, resp.Window.Start, resp.Window.End)
			assert.Less(t, resp.Window.End, size)
			if resp.Status == http.StatusOK {
				assert.Equal(t, size, resp.Window.Length())
			}
		}
	}
}

func TestSetHeaders(t *testing.T) {
	partial, err := Resolve(1000, "bytes=0-499", "video/mp4")
	require.NoError(t, err)
	h := http.Header{}
	partial.SetHeaders(h)
	assert.Equal(t, "bytes 0-499/1000", h.Get("Content-Range"))
	assert.Equal(t, "bytes", h.Get("Accept-Ranges"))
	assert.Equal(t, "500", h.Get("Content-Length"))
	assert.Equal(t, "video/mp4", h.Get("Content-Type"))

	full, err := Resolve(1000, "", "video/webm")
	require.NoError(t, err)
	h = http.Header{}
	full.SetHeaders(h)
	assert.Empty(t, h.Get("Content-Range"))
	assert.Equal(t, "1000", h.Get("Content-Length"))
	assert.Equal(t, "video/webm", h.Get("Content-Type"))

	bad, _ := Resolve(1000, "bytes=2000-", "video/mp4")
	h = http.Header{}
	bad.SetHeaders(h)
	assert.Equal(t, "bytes */1000", h.Get("Content-Range"))
	assert.Empty(t, h.Get("Content-Length"))
}
