package orchestrator

import (
	"time"

	"github.com/ZebulonRouseFrantzich/egetbox/internal/fetch"
)

// DownloadSpec is the per-call configuration of one Download. Zero values
// mean "not set".
type DownloadSpec struct {
	// System is "os/arch"; detected when empty.
	System string
	// Asset is an asset name pattern.
	Asset string
	// Tag selects a release tag instead of the latest.
	Tag        string
	PreRelease bool
	// File selects the file to extract from the archive.
	File string
	// To is the output path, relative to the work directory.
	To            string
	UpgradeOnly   bool
	RemoveArchive bool
	ExtractAll    bool
	Source        bool
	DownloadOnly  bool
	// Timeout bounds the asset fetch; fetch.DefaultTimeout when zero.
	Timeout time.Duration
	// OnProgress overrides the orchestrator's progress observer.
	OnProgress fetch.ProgressFunc
}

// Args builds the resolver argv for repo. Flags appear in a fixed order
// and the repository is always last.
func (s DownloadSpec) Args(repo, system string) []string {
	var args []string

	if system != "" {
		args = append(args, "--system", system)
	}
	if s.Asset != "" {
		args = append(args, "--asset", s.Asset)
	}
	if s.Tag != "" {
		args = append(args, "--tag", s.Tag)
	}
	if s.PreRelease {
		args = append(args, "--pre-release")
	}
	if s.File != "" {
		args = append(args, "--file", s.File)
	}
	if s.To != "" {
		args = append(args, "--to", s.To)
	}
	if s.UpgradeOnly {
		args = append(args, "--upgrade-only")
	}
	if s.RemoveArchive {
		args = append(args, "--remove-archive")
	}
	if s.ExtractAll {
		args = append(args, "--all")
	}
	if s.Source {
		args = append(args, "--source")
	}
	if s.DownloadOnly {
		args = append(args, "--download-only")
	}

	return append(args, repo)
}

func (s DownloadSpec) timeout() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return fetch.DefaultTimeout
}
