package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tanmayk15/AutoTranscriber/internal/config"
	"github.com/tanmayk15/AutoTranscriber/internal/logging"
	"github.com/tanmayk15/AutoTranscriber/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("batch started", logging.String(logging.FieldRunID, "run-1"))

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", content, err)
	}
	if entry["msg"] != "batch started" || entry["run_id"] != "run-1" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if entry["level"] != "info" {
		t.Fatalf("expected lower-case level, got %v", entry["level"])
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	if strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", buf.String())
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message with caller")

	if !strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", buf.String())
	}
}

func TestConsoleLoggerHoistsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "translator").Info("batch translated", logging.Int("segments", 8))

	line := buf.String()
	if !strings.Contains(line, "INFO translator: batch translated") {
		t.Fatalf("expected component prefix, got %q", line)
	}
	if !strings.Contains(line, "segments=8") {
		t.Fatalf("expected key=value attrs, got %q", line)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-42")
	ctx = services.WithVideo(ctx, "clip.mp4")
	ctx = services.WithStage(ctx, "translate")
	ctx = services.WithRequestID(ctx, "req-xyz")

	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WithContext(ctx, logger).Info("contextual log")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	want := map[string]string{
		logging.FieldRunID:         "run-42",
		logging.FieldVideo:         "clip.mp4",
		logging.FieldStage:         "translate",
		logging.FieldCorrelationID: "req-xyz",
	}
	for key, value := range want {
		if entry[key] != value {
			t.Fatalf("field %s = %v, want %q", key, entry[key], value)
		}
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WarnWithContext(logger, "translation unavailable", "translation_failed",
		logging.String(logging.FieldImpact, "original-language subtitles used"),
	)

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry[logging.FieldEventType] != "translation_failed" {
		t.Fatalf("unexpected event type: %v", entry[logging.FieldEventType])
	}
	if entry[logging.FieldErrorHint] == nil {
		t.Fatal("expected default error hint")
	}
	if entry[logging.FieldImpact] != "original-language subtitles used" {
		t.Fatalf("expected explicit impact to be preserved, got %v", entry[logging.FieldImpact])
	}
}

func TestPruneRunLogsKeepsActiveAndForeignFiles(t *testing.T) {
	dir := t.TempDir()
	past := mustParseTime(t, "2020-01-01T00:00:00Z")
	active := logging.RunLogPath(dir, past)
	stale := logging.RunLogPath(dir, past.Add(-time.Hour))
	recent := logging.RunLogPath(dir, time.Now())
	persistent := filepath.Join(dir, logging.LogFileName)
	foreign := filepath.Join(dir, "notes.log")
	for _, path := range []string{active, stale, recent, persistent, foreign} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	for _, path := range []string{active, stale, persistent, foreign} {
		if err := os.Chtimes(path, past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	if removed := logging.PruneRunLogs(logging.NewNop(), dir, 7, active); removed != 1 {
		t.Fatalf("expected 1 pruned log, got %d", removed)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale run log to be pruned, stat err=%v", err)
	}
	for _, path := range []string{active, recent, persistent, foreign} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s to remain: %v", filepath.Base(path), err)
		}
	}

	if removed := logging.PruneRunLogs(logging.NewNop(), dir, 0, ""); removed != 0 {
		t.Fatalf("retention 0 should disable pruning, removed %d", removed)
	}
}

func TestRunLogPathUsesUTCStamp(t *testing.T) {
	started := time.Date(2026, 3, 4, 5, 6, 7, 0, time.FixedZone("x", 3600))
	if got := filepath.Base(logging.RunLogPath("/logs", started)); got != "autosub-20260304T040607.log" {
		t.Fatalf("unexpected run log name %q", got)
	}
}

func mustParseTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return parsed
}
