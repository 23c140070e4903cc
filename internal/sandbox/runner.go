package sandbox

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZebulonRouseFrantzich/egetbox/internal/diag"
	"github.com/ZebulonRouseFrantzich/egetbox/internal/logging"
)

// NeededAsset is a URL the resolver could not fetch itself. Path is the
// guest path it expects the asset at, empty if it did not say.
type NeededAsset struct {
	URL  string
	Path string
}

// RunOutcome is the result of one sandboxed attempt. Exactly one of
// Success, Needed != nil, Failure != nil holds.
type RunOutcome struct {
	Success bool
	Needed  *NeededAsset
	Failure *diag.ErrorRecord
	// ExitCode and Output are kept for logging and no-work detection.
	ExitCode int
	Output   string
}

// Runner drives a Capability and interprets its outcome.
type Runner struct {
	capability Capability
	logger     logging.Logger
}

// NewRunner creates a runner for capability
func NewRunner(capability Capability, logger logging.Logger) *Runner {
	return &Runner{
		capability: capability,
		logger:     logging.OrNop(logger),
	}
}

// Run executes the resolver once with argv against sandboxRoot. workDir
// is mounted at GuestWorkDir when non-empty.
func (r *Runner) Run(ctx context.Context, argv []string, sandboxRoot, workDir string) (*RunOutcome, error) {
	if r.capability == nil {
		return nil, fmt.Errorf("no sandbox capability configured")
	}
	if sandboxRoot == "" {
		return nil, fmt.Errorf("sandbox root is required")
	}

	inv := Invocation{
		Args:        append([]string(nil), argv...),
		SandboxRoot: sandboxRoot,
		WorkDir:     workDir,
	}

	res, err := r.capability.Execute(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("execute resolver: %w", err)
	}

	r.logger.Debug("resolver finished",
		"exit_code", res.ExitCode,
		"stdout", strings.TrimSpace(res.Stdout),
		"stderr", strings.TrimSpace(res.Stderr),
	)

	outcome := &RunOutcome{
		ExitCode: res.ExitCode,
		Output:   res.Stdout + res.Stderr,
	}

	if res.ExitCode == 0 {
		outcome.Success = true
		return outcome, nil
	}

	rec := diag.Classify(res.Stderr)
	if rec.HasURL() {
		outcome.Needed = &NeededAsset{URL: rec.URL, Path: rec.Path}
		return outcome, nil
	}

	outcome.Failure = &rec
	return outcome, nil
}
