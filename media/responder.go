package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"dharmaverse/logger"

	"golang.org/x/time/rate"
)

const defaultChunkSize = 64 << 10

// Responder writes assets to HTTP clients, honouring single byte ranges.
type Responder struct {
	chunkSize int
	limiter   func() *rate.Limiter
}

// Option configures a Responder.
type Option func(*Responder)

// WithChunkSize sets the size of each read from disk.
func WithChunkSize(n int) Option {
	return func(r *Responder) {
		if n > 0 {
			r.chunkSize = n
		}
	}
}

// WithBandwidth caps every response at bytesPerSecond. Zero means unlimited.
func WithBandwidth(bytesPerSecond int) Option {
	return func(r *Responder) {
		if bytesPerSecond <= 0 {
			r.limiter = nil
			return
		}
		r.limiter = func() *rate.Limiter {
			burst := bytesPerSecond
			if burst < r.chunkSize {
				burst = r.chunkSize
			}
			return rate.NewLimiter(rate.Limit(bytesPerSecond), burst)
		}
	}
}

// NewResponder creates a Responder.
func NewResponder(opts ...Option) *Responder {
	r := &Responder{chunkSize: defaultChunkSize}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Result summarises a served response.
type Result struct {
	Status  int
	Window  Window
	Written int64
}

// Serve answers r with the contents of asset.
//
// On ErrNotFound nothing has been written and the caller owns the response.
// On ErrRangeNotSatisfiable a 416 with "Content-Range: bytes */size" has been
// written. onStart runs once, after the headers are sent and before the first
// body byte; it is not called for HEAD requests or failed lookups.
func (rs *Responder) Serve(w http.ResponseWriter, r *http.Request, asset Asset, onStart func()) (Result, error) {
	info, err := os.Stat(asset.Path)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if info.IsDir() {
		return Result{}, fmt.Errorf("%w: %s is a directory", ErrNotFound, asset.Path)
	}

	size := info.Size()
	if asset.Size > 0 && asset.Size != size {
		logger.WithFields(map[string]interface{}{
			"path":          asset.Path,
			"recorded_size": asset.Size,
			"actual_size":   size,
		}).Warn("Media size differs from record, using file size")
	}

	resp, err := Resolve(size, r.Header.Get("Range"), asset.ContentType)
	if err != nil {
		resp.SetHeaders(w.Header())
		w.WriteHeader(resp.Status)
		return Result{Status: resp.Status}, err
	}

	stream, err := Open(r.Context(), asset.Path, resp.Window)
	if err != nil {
		return Result{}, err
	}
	defer stream.Close()

	resp.SetHeaders(w.Header())
	w.WriteHeader(resp.Status)

	result := Result{Status: resp.Status, Window: resp.Window}
	if r.Method == http.MethodHead {
		return result, nil
	}

	if onStart != nil {
		onStart()
	}

	written, err := rs.copy(r.Context(), w, stream)
	result.Written = written
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"path":    asset.Path,
			"window":  fmt.Sprintf("%d-%d", resp.Window.Start, resp.Window.End),
			"written": written,
			"error":   err.Error(),
		}).Warn("Media stream terminated early")
		return result, err
	}

	return result, nil
}

func (rs *Responder) copy(ctx context.Context, w http.ResponseWriter, stream *Stream) (int64, error) {
	var limiter *rate.Limiter
	if rs.limiter != nil {
		limiter = rs.limiter()
	}

	buf := make([]byte, rs.chunkSize)
	var written int64

	for {
		n, readErr := stream.Read(buf)
		if n > 0 {
			if limiter != nil {
				if err := limiter.WaitN(ctx, n); err != nil {
					return written, err
				}
			}

			m, err := w.Write(buf[:n])
			written += int64(m)
			if err != nil {
				return written, fmt.Errorf("write response: %w", err)
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return written, nil
			}
			return written, readErr
		}
	}
}
