package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoggerWritesConsoleAndFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.log")
	var console bytes.Buffer

	logger, err := New(Config{
		Level:      "debug",
		FilePath:   path,
		ConsoleOut: &console,
		NoColor:    true,
	})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	logger.Info("installing tmux")
	logger.Warnf("package %s not found", "nonexistent")
	logger.Success("shell environment ready")

	if err := logger.Close(); err != nil {
		t.Fatalf("failed to close logger: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	for _, want := range []string{"installing tmux", "package nonexistent not found", "shell environment ready"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("log file missing %q", want)
		}
		if !strings.Contains(console.String(), want) {
			t.Errorf("console missing %q", want)
		}
	}
	if !strings.Contains(string(data), "WRN") {
		t.Error("log file missing warning level marker")
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.log")
	var console bytes.Buffer

	logger, err := New(Config{
		Level:      "warn",
		FilePath:   path,
		ConsoleOut: &console,
		NoColor:    true,
	})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Close()

	logger.Debug("hidden")
	logger.Info("also hidden")
	logger.Error("visible")

	out := console.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("below-threshold messages leaked: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("error message missing: %q", out)
	}
}

func TestDefaultFilePath(t *testing.T) {
	ts := time.Date(2026, 8, 23, 10, 30, 0, 0, time.UTC)

	t.Setenv(EnvLogFile, "")
	got := DefaultFilePath(ts)
	if !strings.Contains(got, "homeforge_20260823_103000.log") {
		t.Errorf("DefaultFilePath = %q, want timestamped name", got)
	}

	t.Setenv(EnvLogFile, "/var/log/custom.log")
	if got := DefaultFilePath(ts); got != "/var/log/custom.log" {
		t.Errorf("DefaultFilePath = %q, want env override", got)
	}
}

func TestWithComponentKeepsFilePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.log")

	logger, err := New(Config{FilePath: path, ConsoleOut: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Close()

	child := logger.WithComponent("pkgmgr")
	if child.FilePath() != path {
		t.Errorf("child FilePath = %q, want %q", child.FilePath(), path)
	}
}
