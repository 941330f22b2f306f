// Package media serves stored video files over HTTP with byte-range support.
package media

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

var (
	// ErrNotFound the backing file is missing or cannot be opened.
	ErrNotFound = errors.New("media file not found")
	// ErrRangeNotSatisfiable the requested range lies outside the file.
	ErrRangeNotSatisfiable = errors.New("requested range not satisfiable")
	// ErrIO reading the backing file failed after the response started.
	ErrIO = errors.New("media read failed")
)

// DefaultContentType is used when an asset has no recorded content type.
const DefaultContentType = "video/mp4"

// Asset is the stored file a response is built from.
type Asset struct {
	Path        string
	Size        int64
	ContentType string
	Name        string
}

// Window is an inclusive byte interval [Start, End].
type Window struct {
	Start int64
	End   int64
}

// Length returns the number of bytes covered by the window.
func (w Window) Length() int64 {
	if w.End < w.Start {
		return 0
	}
	return w.End - w.Start + 1
}

// Response describes how a request for an asset will be answered.
type Response struct {
	Status      int
	Window      Window
	Size        int64
	ContentType string
}

// Partial reports whether the response is a 206.
func (r Response) Partial() bool {
	return r.Status == http.StatusPartialContent
}

// ContentRange returns the Content-Range header value, or "" for a full response.
func (r Response) ContentRange() string {
	switch r.Status {
	case http.StatusPartialContent:
		return fmt.Sprintf("bytes %d-%d/%d", r.Window.Start, r.Window.End, r.Size)
	case http.StatusRequestedRangeNotSatisfiable:
		return fmt.Sprintf("bytes */%d", r.Size)
	}
	return ""
}

// SetHeaders writes the content headers of the response into h.
func (r Response) SetHeaders(h http.Header) {
	contentType := r.ContentType
	if contentType == "" {
		contentType = DefaultContentType
	}

	if cr := r.ContentRange(); cr != "" {
		h.Set("Content-Range", cr)
	}
	if r.Status == http.StatusRequestedRangeNotSatisfiable {
		return
	}

	h.Set("Accept-Ranges", "bytes")
	h.Set("Content-Length", strconv.FormatInt(r.Window.Length(), 10))
	h.Set("Content-Type", contentType)
}
