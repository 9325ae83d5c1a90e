package media

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestRemoveOlderThan(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.mp3")
	fresh := filepath.Join(dir, "fresh.mp3")
	for _, path := range []string{old, fresh} {
		if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
	}
	expired := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(old, expired, expired); err != nil {
		t.Fatalf("failed to backdate file: %v", err)
	}

	deleted := RemoveOlderThan(dir, 24*time.Hour, zaptest.NewLogger(t))
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("expired file should be gone")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("fresh file should survive")
	}
}

func TestRemoveOlderThanMissingDir(t *testing.T) {
	if deleted := RemoveOlderThan(filepath.Join(t.TempDir(), "nope"), time.Hour, zaptest.NewLogger(t)); deleted != 0 {
		t.Errorf("expected 0 for missing dir, got %d", deleted)
	}
}

func TestClearDirContinuesPastUndeletable(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.mp3", "b.mp3"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("audio"), 0o644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
	}
	// A subdirectory cannot be removed by the file path; the batch must
	// still delete the two regular files around it.
	if err := os.Mkdir(filepath.Join(dir, "stuck.mp3.d"), 0o755); err != nil {
		t.Fatalf("failed to create subdir: %v", err)
	}

	deleted := ClearDir(dir, ".mp3", zaptest.NewLogger(t))
	if len(deleted) != 2 {
		t.Errorf("expected 2 deleted files, got %v", deleted)
	}
}

func TestClearDirExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "keep.html"), []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "drop.mp3"), []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	deleted := ClearDir(dir, ".mp3", zaptest.NewLogger(t))
	if len(deleted) != 1 || deleted[0] != "drop.mp3" {
		t.Errorf("expected only drop.mp3 deleted, got %v", deleted)
	}
	if _, err := os.Stat(filepath.Join(dir, "keep.html")); err != nil {
		t.Error("non-matching file should survive")
	}
}
