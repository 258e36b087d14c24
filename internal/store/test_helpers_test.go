package store

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
)

// createTestSQLite opens a file-backed SQLite log in a temp dir.
func createTestSQLite(t *testing.T) *SQLiteLog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	l, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

// quietLogger suppresses subscriber failure logs in tests.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// forEachLog runs fn once per Log implementation.
func forEachLog(t *testing.T, fn func(t *testing.T, s *EventStore)) {
	t.Helper()

	t.Run("memory", func(t *testing.T) {
		fn(t, New(NewMemoryLog(), WithLogger(quietLogger())))
	})
	t.Run("sqlite", func(t *testing.T) {
		fn(t, New(createTestSQLite(t), WithLogger(quietLogger())))
	})
}
