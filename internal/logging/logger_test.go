package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewDevelopmentLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(Options{Development: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logger.Info("development logger ready")
}

func TestNewFileLogger(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "bmc.log")
	logger, err := New(Options{File: path, Level: "warn"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("filtered out")
	logger.Warn("kept")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if strings.Contains(string(data), "filtered out") {
		t.Error("info entry written below warn level")
	}
	if !strings.Contains(string(data), "kept") {
		t.Errorf("warn entry missing from log: %s", data)
	}
}

func TestNewQuietLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(Options{Quiet: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Error("discarded")
}

func TestNewBadLevel(t *testing.T) {
	t.Parallel()

	if _, err := New(Options{Level: "shouty"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestDefaultLogPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", dir)

	got, err := DefaultLogPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "bmc", "bmc.log"); got != want {
		t.Errorf("DefaultLogPath() = %q, want %q", got, want)
	}
}
