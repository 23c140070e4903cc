package testutil_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZebulonRouseFrantzich/egetbox/internal/testutil"
)

func TestSetupTestEnv(t *testing.T) {
	t.Setenv("EGETBOX_SCRIPT", "/somewhere/resolver.lua")

	root := testutil.SetupTestEnv(t)

	if got := os.Getenv("EGETBOX_SCRIPT"); got != "" {
		t.Errorf("EGETBOX_SCRIPT = %q, want cleared", got)
	}
	if got := os.Getenv("EGETBOX_TEST_MODE"); got != "1" {
		t.Errorf("EGETBOX_TEST_MODE = %q, want \"1\"", got)
	}

	for _, name := range []string{"HOME", "TMPDIR"} {
		dir := os.Getenv(name)
		if !strings.HasPrefix(dir, root) {
			t.Errorf("%s = %q, not under %q", name, dir, root)
		}
		if _, err := os.Stat(dir); err != nil {
			t.Errorf("%s does not exist: %v", name, err)
		}
		if !filepath.IsAbs(dir) {
			t.Errorf("%s = %q is not absolute", name, dir)
		}
	}
}

func TestSetupTestEnv_Isolation(t *testing.T) {
	dir1 := testutil.SetupTestEnv(t)

	t.Run("subtest", func(t *testing.T) {
		dir2 := testutil.SetupTestEnv(t)
		if dir1 == dir2 {
			t.Error("expected different temp directories for different test contexts")
		}
	})
}
