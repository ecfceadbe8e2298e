package logging

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// PruneLogs removes run logs in dir last modified more than retentionDays
// before now and returns the removed paths. Zero or negative retention keeps
// everything. Files that cannot be removed are reported in the joined error
// while the rest are still pruned.
func PruneLogs(dir string, retentionDays int, now time.Time) ([]string, error) {
	if retentionDays <= 0 || dir == "" {
		return nil, nil
	}
	cutoff := now.AddDate(0, 0, -retentionDays)

	matches, err := filepath.Glob(filepath.Join(dir, LogFilePattern))
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	var (
		removed []string
		errs    []error
	)
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
			}
			continue
		}
		if info.IsDir() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, path)
	}
	return removed, errors.Join(errs...)
}

// CleanupOldLogs runs PruneLogs and reports the outcome on logger.
func CleanupOldLogs(logger *slog.Logger, dir string, retentionDays int) {
	removed, err := PruneLogs(dir, retentionDays, time.Now())
	if logger == nil {
		logger = NewNop()
	}
	for _, path := range removed {
		logger.Debug("log pruned", String("path", path), String(FieldEventType, "log_pruned"))
	}
	if err != nil {
		WarnWithContext(logger, "log retention incomplete; some files remain", "log_retention_failed",
			Error(err),
			String(FieldErrorHint, "check log_dir permissions"),
			String(FieldImpact, "old log files remain on disk"),
		)
	}
}
