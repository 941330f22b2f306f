package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// Stream is a forward-only, single-use reader over one window of a file.
// The file handle is released when the window is exhausted, on Close, on a
// read error, or when the context passed to Open is cancelled.
type Stream struct {
	ctx       context.Context
	file      *os.File
	section   *io.SectionReader
	window    Window
	remaining int64

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error

	mu   sync.Mutex
	stop func() bool
}

// Open opens path and positions a Stream over window. Nothing is read until
// the first call to Read.
func Open(ctx context.Context, path string, window Window) (*Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	s := &Stream{
		ctx:       ctx,
		file:      file,
		section:   io.NewSectionReader(file, window.Start, window.Length()),
		window:    window,
		remaining: window.Length(),
	}
	s.mu.Lock()
	s.stop = context.AfterFunc(ctx, func() {
		s.Close()
	})
	s.mu.Unlock()

	if s.remaining == 0 {
		s.Close()
	}
	return s, nil
}

// Window returns the byte window the stream covers.
func (s *Stream) Window() Window {
	return s.window
}

// Remaining returns the number of bytes not yet read.
func (s *Stream) Remaining() int64 {
	return s.remaining
}

// Closed reports whether the file handle has been released.
func (s *Stream) Closed() bool {
	return s.closed.Load()
}

// Read implements io.Reader. It never yields more than the window length.
func (s *Stream) Read(p []byte) (int, error) {
	if s.remaining == 0 {
		s.Close()
		return 0, io.EOF
	}
	if err := s.ctx.Err(); err != nil {
		s.Close()
		return 0, err
	}
	if s.closed.Load() {
		return 0, fmt.Errorf("%w: stream closed", ErrIO)
	}

	if int64(len(p)) > s.remaining {
		p = p[:s.remaining]
	}

	n, err := s.section.Read(p)
	s.remaining -= int64(n)

	switch {
	case s.remaining == 0:
		s.Close()
		return n, nil
	case err == io.EOF:
		// File shrank underneath the window.
		s.Close()
		return n, fmt.Errorf("%w: %v", ErrIO, io.ErrUnexpectedEOF)
	case err != nil:
		s.Close()
		if ctxErr := s.ctx.Err(); ctxErr != nil {
			return n, ctxErr
		}
		return n, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return n, nil
}

// Close releases the file handle. It is safe to call more than once and
// from another goroutine.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)

		s.mu.Lock()
		stop := s.stop
		s.mu.Unlock()
		if stop != nil {
			stop()
		}

		s.closeErr = s.file.Close()
	})
	return s.closeErr
}
