package media

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSample(t *testing.T, size int) (string, []byte) {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	path := filepath.Join(t.TempDir(), "sample.mp4")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path, data
}

func TestStreamYieldsExactWindow(t *testing.T) {
	path, data := writeSample(t, 1000)

	windows := []Window{{0, 499}, {500, 999}, {800, 999}, {0, 999}, {999, 999}}
	for _, w := range windows {
		s, err := Open(context.Background(), path, w)
		require.NoError(t, err)

		got, err := io.ReadAll(s)
		require.NoError(t, err)
		assert.Equal(t, data[w.Start:w.End+1], got)
		assert.True(t, s.Closed(), "handle should be released at end of window")
		assert.Zero(t, s.Remaining())
	}
}

func TestStreamSmallReads(t *testing.T) {
	path, data := writeSample(t, 1000)

	s, err := Open(context.Background(), path, Window{100, 356})
	require.NoError(t, err)

	var out bytes.Buffer
	buf := make([]byte, 7)
	for {
		n, err := s.Read(buf)
		out.Write(buf[:n])
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	assert.Equal(t, data[100:357], out.Bytes())
}

func TestStreamMissingFile(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "nope.mp4"), Window{0, 10})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStreamUnreachablePath(t *testing.T) {
	parent, _ := writeSample(t, 10)
	_, err := Open(context.Background(), filepath.Join(parent, "nope.mp4"), Window{0, 9})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrIO)
}

func TestStreamCloseIsIdempotent(t *testing.T) {
	path, _ := writeSample(t, 100)
	s, err := Open(context.Background(), path, Window{0, 99})
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.True(t, s.Closed())

	_, err = s.Read(make([]byte, 10))
	assert.ErrorIs(t, err, ErrIO)
}

func TestStreamClosesOnCancel(t *testing.T) {
	path, _ := writeSample(t, 1000)
	ctx, cancel := context.WithCancel(context.Background())

	s, err := Open(ctx, path, Window{0, 999})
	require.NoError(t, err)

	n, err := s.Read(make([]byte, 10))
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	cancel()
	assert.Eventually(t, s.Closed, time.Second, 5*time.Millisecond)

	_, err = s.Read(make([]byte, 10))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStreamOpenWithCancelledContext(t *testing.T) {
	path, _ := writeSample(t, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Open(ctx, path, Window{0, 9})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStreamTruncatedFile(t *testing.T) {
	path, _ := writeSample(t, 1000)
	s, err := Open(context.Background(), path, Window{0, 999})
	require.NoError(t, err)

	require.NoError(t, os.Truncate(path, 300))

	_, err = io.ReadAll(s)
	assert.ErrorIs(t, err, ErrIO)
	assert.True(t, s.Closed())
}

func TestStreamEmptyWindow(t *testing.T) {
	path, _ := writeSample(t, 0)
	s, err := Open(context.Background(), path, Window{0, -1})
	require.NoError(t, err)
	assert.True(t, s.Closed())

	n, err := s.Read(make([]byte, 4))
	assert.Zero(t, n)
	assert.Equal(t, io.EOF, err)
}
