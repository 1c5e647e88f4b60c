package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	runLogPrefix = "autosub-"
	runLogSuffix = ".log"
	runLogStamp  = "20060102T150405"
)

// RunLogPath returns the per-run log file for a batch started at started.
func RunLogPath(dir string, started time.Time) string {
	return filepath.Join(dir, runLogPrefix+started.UTC().Format(runLogStamp)+runLogSuffix)
}

func isRunLog(name string) bool {
	return strings.HasPrefix(name, runLogPrefix) && strings.HasSuffix(name, runLogSuffix) &&
		len(name) > len(runLogPrefix)+len(runLogSuffix)
}

// PruneRunLogs removes per-run logs in dir whose modification time is older
// than retentionDays. active is never removed. A retentionDays value of 0
// disables pruning. It returns the number of files removed.
func PruneRunLogs(logger *slog.Logger, dir string, retentionDays int, active string) int {
	dir = strings.TrimSpace(dir)
	if retentionDays <= 0 || dir == "" {
		return 0
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	activeAbs := absPath(active)

	removed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !isRunLog(entry.Name()) {
			continue
		}
		path := absPath(filepath.Join(dir, entry.Name()))
		if path == activeAbs {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check file permissions and log_dir ownership"),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		removed++
	}
	if removed > 0 && logger != nil {
		logger.Info("old run logs pruned",
			String(FieldEventType, "log_pruned"),
			String("log_dir", dir),
			Int("removed", removed),
			Int("retention_days", retentionDays),
		)
	}
	return removed
}

func absPath(path string) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
