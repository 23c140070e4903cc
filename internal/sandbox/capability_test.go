package sandbox

import (
	"path/filepath"
	"testing"
)

func TestResolveGuestPath(t *testing.T) {
	root := filepath.Join("/tmp", "eget", "sandbox")
	work := filepath.Join("/home", "user", "project")

	tests := []struct {
		name    string
		workDir string
		guest   string
		want    string
		wantErr bool
	}{
		{"absolute", work, "/tool.tgz", filepath.Join(root, "tool.tgz"), false},
		{"relative", work, "assets/tool.tgz", filepath.Join(root, "assets", "tool.tgz"), false},
		{"nested", work, "/github.com/acme/tool.tgz", filepath.Join(root, "github.com", "acme", "tool.tgz"), false},
		{"climbing is clamped", work, "/../../etc/passwd", filepath.Join(root, "etc", "passwd"), false},
		{"work dir", work, "/work/bin/tool", filepath.Join(work, "bin", "tool"), false},
		{"work dir itself", work, "/work", work, false},
		{"work prefix is not work", work, "/workshop/a", filepath.Join(root, "workshop", "a"), false},
		{"no work mount", "", "/work/bin", filepath.Join(root, "work", "bin"), false},
		{"empty", work, "", "", true},
		{"root", work, "/", "", true},
		{"dot", work, ".", "", true},
		{"nul byte", work, "/a\x00b", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveGuestPath(root, tt.workDir, tt.guest)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveGuestPath(%q) error = %v, wantErr %v", tt.guest, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ResolveGuestPath(%q) = %q, want %q", tt.guest, got, tt.want)
			}
		})
	}
}
