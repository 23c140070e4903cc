package orchestrator

import (
	"reflect"
	"testing"
	"time"

	"github.com/ZebulonRouseFrantzich/egetbox/internal/fetch"
)

func TestDownloadSpec_Args(t *testing.T) {
	tests := []struct {
		name   string
		spec   DownloadSpec
		system string
		want   []string
	}{
		{
			name: "repo only",
			want: []string{"acme/tool"},
		},
		{
			name:   "system only",
			system: "linux/amd64",
			want:   []string{"--system", "linux/amd64", "acme/tool"},
		},
		{
			name: "every option",
			spec: DownloadSpec{
				Asset:         "^json",
				Tag:           "v1.2.3",
				PreRelease:    true,
				File:          "tool",
				To:            "./bin/custom-name",
				UpgradeOnly:   true,
				RemoveArchive: true,
				ExtractAll:    true,
				Source:        true,
				DownloadOnly:  true,
			},
			system: "darwin/arm64",
			want: []string{
				"--system", "darwin/arm64",
				"--asset", "^json",
				"--tag", "v1.2.3",
				"--pre-release",
				"--file", "tool",
				"--to", "./bin/custom-name",
				"--upgrade-only",
				"--remove-archive",
				"--all",
				"--source",
				"--download-only",
				"acme/tool",
			},
		},
		{
			name: "timeout and progress are not flags",
			spec: DownloadSpec{Timeout: time.Second, OnProgress: func(fetch.Progress) {}},
			want: []string{"acme/tool"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.spec.Args("acme/tool", tt.system)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Args() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDownloadSpec_Timeout(t *testing.T) {
	if got := (DownloadSpec{}).timeout(); got != fetch.DefaultTimeout {
		t.Errorf("default timeout = %v, want %v", got, fetch.DefaultTimeout)
	}
	if got := (DownloadSpec{Timeout: 5 * time.Second}).timeout(); got != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", got)
	}
}
