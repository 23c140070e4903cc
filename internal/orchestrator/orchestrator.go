// Package orchestrator runs the two-phase download protocol: run the
// resolver offline, and if it names an asset it could not fetch, fetch
// that asset into the sandbox scope and run it exactly once more.
package orchestrator

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ZebulonRouseFrantzich/egetbox/internal/diag"
	"github.com/ZebulonRouseFrantzich/egetbox/internal/fetch"
	"github.com/ZebulonRouseFrantzich/egetbox/internal/logging"
	"github.com/ZebulonRouseFrantzich/egetbox/internal/platform"
	"github.com/ZebulonRouseFrantzich/egetbox/internal/sandbox"
	"github.com/ZebulonRouseFrantzich/egetbox/internal/workspace"
)

// Runner executes one sandboxed attempt. *sandbox.Runner satisfies it.
type Runner interface {
	Run(ctx context.Context, argv []string, sandboxRoot, workDir string) (*sandbox.RunOutcome, error)
}

// Fetcher downloads one URL to a file. *fetch.Client satisfies it.
type Fetcher interface {
	DownloadFile(ctx context.Context, url, destPath string, onProgress fetch.ProgressFunc, timeout time.Duration) error
}

// AssetVerifier checks a fetched asset before the second attempt.
type AssetVerifier interface {
	VerifyAsset(ctx context.Context, assetURL, assetPath string) error
}

// Config wires an Orchestrator. Workspace, Runner and Fetcher are required.
type Config struct {
	Workspace *workspace.Workspace
	// WorkDir is the host output directory, mounted at /work.
	WorkDir  string
	Runner   Runner
	Fetcher  Fetcher
	Detector platform.Detector
	Verifier AssetVerifier
	// OnProgress is the default observer for asset fetches.
	OnProgress fetch.ProgressFunc
	Logger     logging.Logger
}

// Orchestrator owns one workspace and drives downloads through it.
type Orchestrator struct {
	cfg    Config
	logger logging.Logger

	// mu serializes Download calls; both phases share the sandbox scope.
	mu sync.Mutex

	sysMu  sync.Mutex
	system string
}

// New validates cfg and returns an orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Workspace == nil {
		return nil, fmt.Errorf("workspace is required")
	}
	if cfg.Runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cfg.Detector == nil {
		cfg.Detector = platform.NewDetector()
	}
	return &Orchestrator{
		cfg:    cfg,
		logger: logging.OrNop(cfg.Logger),
	}, nil
}

// Download fetches and installs a release of repo. It reports whether any
// work was performed; an up-to-date upgrade-only run returns false.
// HTTP failures from the asset fetch are returned unchanged.
func (o *Orchestrator) Download(ctx context.Context, repo string, spec DownloadSpec) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := ValidateRepo(repo); err != nil {
		return false, err
	}

	system, err := o.resolveSystem(ctx, spec.System)
	if err != nil {
		return false, err
	}
	argv := spec.Args(repo, system)

	sandboxDir, err := o.cfg.Workspace.Ensure()
	if err != nil {
		return false, err
	}

	o.logger.Debug("resolver attempt", "repo", repo, "attempt", 1, "args", argv)
	first, err := o.cfg.Runner.Run(ctx, argv, sandboxDir, o.cfg.WorkDir)
	if err != nil {
		return false, err
	}

	switch {
	case first.Success:
		return o.finish(repo, first), nil
	case first.Needed == nil:
		return false, o.capabilityError(first, 1)
	}

	needed := first.Needed
	hostPath, err := NeededAssetPath(sandboxDir, *needed)
	if err != nil {
		return false, err
	}
	if err := o.fetch(ctx, needed.URL, hostPath, spec); err != nil {
		return false, err
	}

	o.logger.Debug("resolver attempt", "repo", repo, "attempt", 2, "args", argv)
	second, err := o.cfg.Runner.Run(ctx, argv, sandboxDir, o.cfg.WorkDir)
	if err != nil {
		return false, err
	}

	switch {
	case second.Success:
		return o.finish(repo, second), nil
	case second.Needed != nil:
		o.logger.Warn("resolver requested a second asset", "fetched", needed.URL, "requested", second.Needed.URL)
		return false, fmt.Errorf("%w: fetched %s, then asked for %s", ErrProtocolStall, needed.URL, second.Needed.URL)
	default:
		return false, fmt.Errorf("%w: fetched %s: %w", ErrProtocolStall, needed.URL, o.capabilityError(second, 2))
	}
}

// Cleanup removes the workspace. Safe to call repeatedly and after a
// failed Download.
func (o *Orchestrator) Cleanup() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	root := o.cfg.Workspace.Root()
	if err := o.cfg.Workspace.Cleanup(); err != nil {
		return err
	}
	o.logger.Debug("workspace cleaned", "root", root)
	return nil
}

// System returns the system string used when a DownloadSpec leaves it empty.
func (o *Orchestrator) System(ctx context.Context) (string, error) {
	return o.resolveSystem(ctx, "")
}

func (o *Orchestrator) resolveSystem(ctx context.Context, requested string) (string, error) {
	if requested != "" {
		return requested, nil
	}

	o.sysMu.Lock()
	defer o.sysMu.Unlock()

	if o.system != "" {
		return o.system, nil
	}
	info, err := o.cfg.Detector.Detect(ctx)
	if err != nil {
		return "", fmt.Errorf("detect system: %w", err)
	}
	o.system = info.System()
	o.logger.Debug("detected system", "system", o.system)
	return o.system, nil
}

func (o *Orchestrator) fetch(ctx context.Context, assetURL, hostPath string, spec DownloadSpec) error {
	if err := os.MkdirAll(filepath.Dir(hostPath), 0o755); err != nil {
		return fmt.Errorf("create asset directory: %w", err)
	}

	onProgress := spec.OnProgress
	if onProgress == nil {
		onProgress = o.cfg.OnProgress
	}

	o.logger.Info("fetching asset", "url", assetURL, "path", hostPath)
	start := time.Now()
	if err := o.cfg.Fetcher.DownloadFile(ctx, assetURL, hostPath, onProgress, spec.timeout()); err != nil {
		o.logger.Debug("asset fetch failed", "url", assetURL, "error", err)
		return err
	}

	var size int64
	if info, err := os.Stat(hostPath); err == nil {
		size = info.Size()
	}
	o.logger.Debug("asset fetched", "url", assetURL, "bytes", size, "duration", time.Since(start))

	if o.cfg.Verifier != nil {
		if err := o.cfg.Verifier.VerifyAsset(ctx, assetURL, hostPath); err != nil {
			os.Remove(hostPath)
			return err
		}
	}
	return nil
}

func (o *Orchestrator) finish(repo string, outcome *sandbox.RunOutcome) bool {
	worked := !diag.ReportsNoWork(outcome.Output)
	o.logger.Debug("resolver succeeded", "repo", repo, "worked", worked)
	return worked
}

func (o *Orchestrator) capabilityError(outcome *sandbox.RunOutcome, attempt int) error {
	rec := diag.ErrorRecord{}
	if outcome.Failure != nil {
		rec = *outcome.Failure
	}
	o.logger.Debug("resolver failed", "attempt", attempt, "exit_code", outcome.ExitCode, "error", rec.Error)
	return &CapabilityError{Record: rec, ExitCode: outcome.ExitCode, Attempt: attempt}
}

// NeededAssetPath maps a needed asset to a host path inside sandboxDir.
// The resolver's own guest path wins; otherwise the asset is stored at
// "<host>/<url path>". Paths can never leave sandboxDir.
//
// Guest paths under /work return ErrAssetPath. The output directory is
// mounted over that prefix, so the retry would never see the asset.
func NeededAssetPath(sandboxDir string, needed sandbox.NeededAsset) (string, error) {
	if needed.Path != "" {
		clean := path.Clean("/" + filepath.ToSlash(needed.Path))
		if clean == sandbox.GuestWorkDir || strings.HasPrefix(clean, sandbox.GuestWorkDir+"/") {
			return "", fmt.Errorf("%w: %s is inside the output mount %s", ErrAssetPath, needed.Path, sandbox.GuestWorkDir)
		}
		return sandbox.ResolveGuestPath(sandboxDir, "", needed.Path)
	}

	u, err := url.Parse(needed.URL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("resolver requested an invalid URL %q", needed.URL)
	}
	p := u.Path
	if p == "" || strings.HasSuffix(p, "/") {
		p += "/index"
	}
	// Clean before joining so ".." segments cannot climb out of the host dir.
	return sandbox.ResolveGuestPath(sandboxDir, "", u.Host+path.Clean("/"+p))
}

// ValidateRepo accepts "owner/repo" or an http(s) URL.
func ValidateRepo(repo string) error {
	if strings.TrimSpace(repo) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidRepo)
	}
	if strings.ContainsAny(repo, " \t\r\n\x00") {
		return fmt.Errorf("%w: %q contains whitespace", ErrInvalidRepo, repo)
	}

	if strings.HasPrefix(repo, "http://") || strings.HasPrefix(repo, "https://") {
		u, err := url.Parse(repo)
		if err != nil || u.Host == "" {
			return fmt.Errorf("%w: %q is not a valid URL", ErrInvalidRepo, repo)
		}
		return nil
	}

	parts := strings.Split(repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("%w: %q is not owner/repo", ErrInvalidRepo, repo)
	}
	return nil
}
