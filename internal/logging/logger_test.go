package logging_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"luxafor/internal/logging"
)

func logFile(t *testing.T) (string, func() string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "luxafor.log")
	read := func() string {
		content, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("read log file: %v", err)
		}
		return string(content)
	}
	return logPath, read
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath, read := logFile(t)

	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	content := read()
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
	if !strings.Contains(content, "INFO message without caller") {
		t.Fatalf("expected level and message, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath, read := logFile(t)

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "debug",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message with caller")

	if content := read(); !strings.Contains(content, ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleLoggerRendersComponentAndFields(t *testing.T) {
	logPath, read := logFile(t)

	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	watchLogger := logging.NewComponentLogger(logger, "watch")
	watchLogger.Info("presence changed",
		logging.String("state", "dnd"),
		logging.String("note", "two words"),
		logging.Error(errors.New("boom")),
	)

	content := read()
	for _, want := range []string{"watch: presence changed", "state=dnd", `note="two words"`, "error=boom"} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in %q", want, content)
		}
	}
	if strings.Contains(content, "component=") {
		t.Fatalf("component should be rendered as prefix, got %q", content)
	}
}

func TestConsoleLoggerBoundAttrsAndGroups(t *testing.T) {
	logPath, read := logFile(t)

	logger, err := logging.New(logging.Options{Level: "INFO", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	session := logging.NewComponentLogger(logger.With(logging.String(logging.FieldSessionID, "abc")), "device")
	session.WithGroup("node").Info("device opened", logging.String("path", "/dev/hidraw0"))
	session.Debug("suppressed at info level")

	content := read()
	for _, want := range []string{"device: device opened", "session_id=abc", "node.path=/dev/hidraw0"} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in %q", want, content)
		}
	}
	if strings.Contains(content, "suppressed") {
		t.Fatalf("debug record written at info level: %q", content)
	}
}

func TestJSONLoggerFields(t *testing.T) {
	logPath, read := logFile(t)

	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("device write failed", logging.String("color", "#FF0000"))

	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(read())), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if record["level"] != "warn" {
		t.Fatalf("expected lower-case level, got %v", record["level"])
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", record)
	}
	if record["color"] != "#FF0000" {
		t.Fatalf("expected color field, got %v", record["color"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath, read := logFile(t)
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WarnWithContext(logger, "presence query failed", "presence_query_failed",
		logging.String(logging.FieldImpact, "tick skipped"),
	)

	content := read()
	for _, want := range []string{"event_type=presence_query_failed", `error_hint="check logs for details"`, `impact="tick skipped"`} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in %q", want, content)
		}
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewComponentLogger(nil, "test")
	logger.Error("dropped")
	if logger.Enabled(t.Context(), 100) {
		t.Fatal("expected nop logger to be disabled")
	}
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "luxafor-old.log")
	keepPath := filepath.Join(dir, "luxafor-current.log")
	freshPath := filepath.Join(dir, "luxafor-fresh.log")
	otherPath := filepath.Join(dir, "notes.txt")
	for _, path := range []string{oldPath, keepPath, freshPath, otherPath} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	past := time.Now().AddDate(0, 0, -30)
	for _, path := range []string{oldPath, keepPath, otherPath} {
		if err := os.Chtimes(path, past, past); err != nil {
			t.Fatalf("chtimes %s: %v", path, err)
		}
	}

	removed := logging.CleanupOldLogs(logging.NewNop(), 7, logging.RetentionTarget{
		Dir:     dir,
		Pattern: "luxafor-*.log",
		Exclude: []string{keepPath},
	})
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Fatalf("expected old log removed, stat err=%v", err)
	}
	for _, path := range []string{keepPath, freshPath, otherPath} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s to remain: %v", path, err)
		}
	}

	if got := logging.CleanupOldLogs(nil, 0, logging.RetentionTarget{Dir: dir, Pattern: "*"}); got != 0 {
		t.Fatalf("retention 0 must disable pruning, removed %d", got)
	}
}
