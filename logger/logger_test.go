package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"debug", DEBUG, false},
		{"INFO", INFO, false},
		{"warn", WARN, false},
		{"error", ERROR, false},
		{"fatal", FATAL, false},
		{"loud", INFO, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWithFieldsAndLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Replace(zap.New(core))

	WithFields(map[string]interface{}{"video_id": "vid-1", "status": 206}).Info("stream started")
	Debug("debug %d", 1)

	SetLevel(WARN)
	Info("dropped")
	Warn("kept %s", "warning")
	assert.Equal(t, WARN, GetLevel())

	entries := logs.AllUntimed()
	require.Len(t, entries, 3)

	assert.Equal(t, "stream started", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "vid-1", fields["video_id"])
	assert.EqualValues(t, 206, fields["status"])

	assert.Equal(t, "debug 1", entries[1].Message)
	assert.Equal(t, "kept warning", entries[2].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
}

func TestDailyFileRotatesOnSize(t *testing.T) {
	dir := t.TempDir()
	day := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	d := &dailyFile{dir: dir, maxSize: 10, now: func() time.Time { return day }}
	require.NoError(t, d.open())
	t.Cleanup(func() { d.file.Close() })

	_, err := d.Write([]byte("0123456789"))
	require.NoError(t, err)
	_, err = d.Write([]byte("abc"))
	require.NoError(t, err)

	files, err := filepath.Glob(filepath.Join(dir, "server-2024-03-01*.log"))
	require.NoError(t, err)
	assert.Len(t, files, 2)

	data, err := os.ReadFile(filepath.Join(dir, "server-2024-03-01.log"))
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
}

func TestDailyFileRotatesOnDayChange(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)

	d := &dailyFile{dir: dir, now: func() time.Time { return now }}
	require.NoError(t, d.open())
	t.Cleanup(func() { d.file.Close() })

	_, err := d.Write([]byte("first"))
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = d.Write([]byte("second"))
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "server-2024-03-01.log"))
	assert.FileExists(t, filepath.Join(dir, "server-2024-03-02.log"))
}

func TestRemoveExpired(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "server-2020-01-01.log")
	fresh := filepath.Join(dir, "server-2024-01-01.log")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0644))

	now := time.Now()
	require.NoError(t, os.Chtimes(old, now.Add(-10*24*time.Hour), now.Add(-10*24*time.Hour)))

	assert.Equal(t, 1, removeExpired(dir, 7, now))
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
}
