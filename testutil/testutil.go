// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"dharmaverse/database"
	"dharmaverse/logger"

	"go.uber.org/zap/zaptest"
)

// NewDB returns a migrated and seeded sqlite database in t.TempDir().
// It is closed when the test ends.
func NewDB(t *testing.T) *sql.DB {
	t.Helper()
	logger.Replace(zaptest.NewLogger(t))

	db, err := database.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if err := database.Migrate(ctx, db, "sqlite"); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	if err := database.Seed(ctx, db); err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}
	return db
}

// WriteFile writes content to dir/rel, creating parent directories.
func WriteFile(t *testing.T, dir, rel string, content []byte) string {
	t.Helper()

	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
	return path
}

// Bytes returns n deterministic bytes.
func Bytes(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
