package media

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// RemoveOlderThan deletes regular files in dir whose modification time is
// older than maxAge. Per-file failures are logged and do not abort the
// batch. A missing directory deletes nothing. Returns the deleted count.
func RemoveOlderThan(dir string, maxAge time.Duration, logger *zap.Logger) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("failed to read cleanup directory",
				zap.String("dir", dir),
				zap.Error(err))
		}
		return 0
	}

	cutoff := time.Now().Add(-maxAge)
	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			logger.Warn("failed to stat file during cleanup",
				zap.String("file", entry.Name()),
				zap.Error(err))
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			logger.Warn("failed to delete expired file",
				zap.String("file", path),
				zap.Error(err))
			continue
		}
		deleted++
	}

	if deleted > 0 {
		logger.Info("expired files removed",
			zap.String("dir", dir),
			zap.Int("deleted", deleted))
	}
	return deleted
}

// ClearDir deletes all regular files in dir matching ext (e.g. ".mp3");
// empty ext matches everything. Per-file failures are logged and the batch
// continues. Returns the names of the files actually deleted.
func ClearDir(dir, ext string, logger *zap.Logger) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("failed to read directory for clearing",
				zap.String("dir", dir),
				zap.Error(err))
		}
		return nil
	}

	var deleted []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ext != "" && !strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			logger.Warn("failed to delete file",
				zap.String("file", path),
				zap.Error(err))
			continue
		}
		deleted = append(deleted, entry.Name())
	}

	logger.Info("directory cleared",
		zap.String("dir", dir),
		zap.Int("deleted", len(deleted)))
	return deleted
}
