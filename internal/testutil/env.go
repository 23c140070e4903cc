// Package testutil provides utilities for testing egetbox in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// configEnv lists every EGETBOX_* variable the CLI reads.
var configEnv = []string{
	"EGETBOX_CWD",
	"EGETBOX_TMP_DIR",
	"EGETBOX_WASM",
	"EGETBOX_SCRIPT",
	"EGETBOX_KEYRING",
	"EGETBOX_VERIFY_SHA256",
	"EGETBOX_VERBOSE",
	"EGETBOX_PARALLEL",
	"EGETBOX_LOG_LEVEL",
	"EGETBOX_LOG_ENCODING",
}

// SetupTestEnv isolates a test from the developer's environment:
// EGETBOX_* settings are cleared and HOME and TMPDIR point into a fresh
// temp directory, so tests never pick up a real config or leave files
// in the user's home.
//
// The cleanup function is automatically handled by t.TempDir() and
// t.Setenv(), so callers don't need to manually clean up.
func SetupTestEnv(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	for _, name := range configEnv {
		// Empty values are treated as unset by the config loader.
		t.Setenv(name, "")
	}

	home := filepath.Join(tmpDir, "home")
	scratch := filepath.Join(tmpDir, "tmp")
	for _, dir := range []string{home, scratch} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}

	t.Setenv("HOME", home)
	t.Setenv("TMPDIR", scratch)
	t.Setenv("EGETBOX_TEST_MODE", "1")

	return tmpDir
}
