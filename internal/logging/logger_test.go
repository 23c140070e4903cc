package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewZap_WritesStructuredFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "egetbox.log")

	logger, err := NewZap(Config{
		Level:       "debug",
		Encoding:    "json",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("NewZap() error = %v", err)
	}

	logger.Debug("attempt finished", "attempt", 1, "exit_code", 0)
	logger.Warn("cleanup failed", "root", "/tmp/x")
	if err := logger.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(content)

	for _, want := range []string{`"message":"attempt finished"`, `"exit_code":0`, `"level":"WARN"`, `"root":"/tmp/x"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s:\n%s", want, out)
		}
	}
}

func TestNewZap_LevelFiltering(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "egetbox.log")

	logger, err := NewZap(Config{
		Level:       "not-a-level",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("NewZap() error = %v", err)
	}

	logger.Debug("hidden message")
	logger.Info("visible message")
	_ = logger.Sync()

	content, _ := os.ReadFile(logPath)
	if strings.Contains(string(content), "hidden message") {
		t.Error("debug output should be filtered at the fallback info level")
	}
	if !strings.Contains(string(content), "visible message") {
		t.Error("info output should be present")
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) should return a usable logger")
	}
	// Must not panic.
	OrNop(nil).Error("ignored", "k", "v")

	custom := Nop()
	if OrNop(custom) != custom {
		t.Error("OrNop should keep a non-nil logger")
	}
}
