package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// dailyFile is a zap WriteSyncer that writes to server-YYYY-MM-DD.log and
// starts a new file when the day changes or the current file exceeds maxSize.
type dailyFile struct {
	mu      sync.Mutex
	dir     string
	maxSize int64
	day     string
	size    int64
	file    *os.File
	now     func() time.Time
}

func newDailyFile(dir string, maxSize int64) (*dailyFile, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	d := &dailyFile{dir: dir, maxSize: maxSize, now: time.Now}
	if err := d.open(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *dailyFile) path(day string) string {
	return filepath.Join(d.dir, fmt.Sprintf("server-%s.log", day))
}

func (d *dailyFile) open() error {
	day := d.now().Format("2006-01-02")
	file, err := os.OpenFile(d.path(day), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return err
	}

	d.file = file
	d.day = day
	d.size = info.Size()
	return nil
}

func (d *dailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.rotateIfNeeded(int64(len(p))); err != nil {
		return 0, err
	}

	n, err := d.file.Write(p)
	d.size += int64(n)
	return n, err
}

func (d *dailyFile) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.file.Sync()
}

func (d *dailyFile) rotateIfNeeded(incoming int64) error {
	today := d.now().Format("2006-01-02")
	oversized := d.maxSize > 0 && d.size+incoming > d.maxSize && d.size > 0
	if today == d.day && !oversized {
		return nil
	}

	current := d.path(d.day)
	d.file.Close()

	if oversized && today == d.day {
		archived := strings.Replace(current, ".log", fmt.Sprintf("-%d.log", d.now().UnixNano()), 1)
		if err := os.Rename(current, archived); err != nil {
			return err
		}
	}

	return d.open()
}

// pruneLogFiles removes log files older than maxAge days, once an hour.
func pruneLogFiles(logDir string, maxAge int) {
	if maxAge <= 0 {
		return
	}

	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		removeExpired(logDir, maxAge, time.Now())
	}
}

func removeExpired(logDir string, maxAge int, now time.Time) int {
	files, _ := filepath.Glob(filepath.Join(logDir, "server-*.log"))
	removed := 0
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}

		if now.Sub(info.ModTime()) > time.Duration(maxAge)*24*time.Hour {
			if os.Remove(file) == nil {
				removed++
			}
		}
	}
	return removed
}
