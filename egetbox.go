// Package egetbox downloads and installs a GitHub release asset without a
// network-capable install tool on the host. The release resolver runs in a
// sandbox with no network access; when it needs an asset it names the URL,
// the host fetches it into the sandbox scope, and the resolver runs once
// more.
//
//	eg, err := egetbox.New(egetbox.Options{WasmPath: "eget.wasm"})
//	if err != nil {
//		return err
//	}
//	defer eg.Cleanup()
//
//	worked, err := eg.Download(ctx, "getsops/sops", egetbox.DownloadOptions{To: "bin/sops"})
//
// Each instance owns a private temp root under Options.TmpDir. Download
// calls on one instance are serialized; use separate instances for
// parallel work.
package egetbox

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ZebulonRouseFrantzich/egetbox/internal/fetch"
	"github.com/ZebulonRouseFrantzich/egetbox/internal/logging"
	"github.com/ZebulonRouseFrantzich/egetbox/internal/orchestrator"
	"github.com/ZebulonRouseFrantzich/egetbox/internal/platform"
	"github.com/ZebulonRouseFrantzich/egetbox/internal/sandbox"
	"github.com/ZebulonRouseFrantzich/egetbox/internal/workspace"
)

// DefaultTmpDirName is the temp directory created under Cwd when
// Options.TmpDir is empty.
const DefaultTmpDirName = ".eget"

// ErrNoResolver is returned by New when neither Capability nor WasmPath
// is set.
var ErrNoResolver = errors.New("no resolver configured: set Capability or WasmPath")

// Options configures an Eget instance.
type Options struct {
	// Cwd is the host output directory, seen by the resolver as /work.
	// Defaults to the process working directory.
	Cwd string
	// TmpDir holds instance temp roots. Defaults to <Cwd>/.eget; relative
	// paths are taken from Cwd.
	TmpDir string
	// Verbose logs debug output to stderr when Logger is nil.
	Verbose bool
	Logger  Logger
	// OnProgress observes asset fetches unless a call sets its own.
	OnProgress ProgressFunc

	// Capability runs the resolver. When nil, the WASI module at WasmPath
	// is used.
	Capability Capability
	WasmPath   string

	HTTPClient *http.Client
	Verifier   AssetVerifier
	Detector   Detector
}

// Eget is one downloader instance and its temp storage.
type Eget struct {
	cwd    string
	tmpDir string
	ws     *workspace.Workspace
	runner *sandbox.Runner
	orch   *orchestrator.Orchestrator
	logger Logger

	// ownsTmpDir is set when tmpDir is the default under cwd.
	ownsTmpDir bool
}

// New creates an instance. No files are created until the first Download.
func New(opts Options) (*Eget, error) {
	cwd, tmpDir, err := ResolveDirs(opts.Cwd, opts.TmpDir)
	if err != nil {
		return nil, err
	}
	ownsTmpDir := opts.TmpDir == ""

	logger, err := newLogger(opts)
	if err != nil {
		return nil, err
	}

	capability := opts.Capability
	if capability == nil {
		if opts.WasmPath == "" {
			return nil, ErrNoResolver
		}
		capability = &sandbox.WasmCapability{ModulePath: opts.WasmPath}
	}

	ws, err := workspace.New(filepath.Join(tmpDir, uuid.NewString()))
	if err != nil {
		return nil, err
	}

	var fetchOpts []fetch.Option
	if opts.HTTPClient != nil {
		fetchOpts = append(fetchOpts, fetch.WithHTTPClient(opts.HTTPClient))
	}

	runner := sandbox.NewRunner(capability, logger)
	orch, err := orchestrator.New(orchestrator.Config{
		Workspace:  ws,
		WorkDir:    cwd,
		Runner:     runner,
		Fetcher:    fetch.NewClient(fetchOpts...),
		Detector:   opts.Detector,
		Verifier:   opts.Verifier,
		OnProgress: opts.OnProgress,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	return &Eget{
		cwd:        cwd,
		tmpDir:     tmpDir,
		ownsTmpDir: ownsTmpDir,
		ws:         ws,
		runner:     runner,
		orch:       orch,
		logger:     logger,
	}, nil
}

// ResolveDirs applies the Cwd and TmpDir defaults and returns both as
// absolute paths.
func ResolveDirs(cwd, tmpDir string) (string, string, error) {
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", "", fmt.Errorf("get working directory: %w", err)
		}
		cwd = wd
	}
	cwd, err := filepath.Abs(cwd)
	if err != nil {
		return "", "", fmt.Errorf("resolve cwd: %w", err)
	}

	switch {
	case tmpDir == "":
		tmpDir = filepath.Join(cwd, DefaultTmpDirName)
	case !filepath.IsAbs(tmpDir):
		tmpDir = filepath.Join(cwd, tmpDir)
	}
	return cwd, filepath.Clean(tmpDir), nil
}

func newLogger(opts Options) (Logger, error) {
	if opts.Logger != nil {
		return opts.Logger, nil
	}
	if !opts.Verbose {
		return logging.Nop(), nil
	}
	cfg := logging.DefaultConfig()
	cfg.Level = "debug"
	zl, err := logging.NewZap(cfg)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return zl, nil
}

// Cwd returns the host output directory.
func (e *Eget) Cwd() string { return e.cwd }

// TmpDir returns the directory holding instance temp roots.
func (e *Eget) TmpDir() string { return e.tmpDir }

// Root returns this instance's private temp root.
func (e *Eget) Root() string { return e.ws.Root() }

// Download installs a release of repo ("owner/repo") and reports whether
// any work was done. Recoverable HTTP failures are returned as *HTTPError.
func (e *Eget) Download(ctx context.Context, repo string, opts DownloadOptions) (bool, error) {
	return e.orch.Download(ctx, repo, opts)
}

// Run executes the resolver once with args against this instance's
// sandbox scope, without the fetch-and-retry cycle.
func (e *Eget) Run(ctx context.Context, args []string) (*RunOutcome, error) {
	dir, err := e.ws.Ensure()
	if err != nil {
		return nil, err
	}
	return e.runner.Run(ctx, args, dir, e.cwd)
}

// Cleanup removes this instance's temp root. It is safe to call more than
// once and after a failed Download.
func (e *Eget) Cleanup() error {
	err := e.orch.Cleanup()
	if err != nil {
		return err
	}
	// Drop the default parent once no other instance is using it.
	if e.ownsTmpDir {
		os.Remove(e.tmpDir)
	}
	return nil
}

// DetectSystem returns the host's "os/arch" string.
func DetectSystem() string {
	return platform.DetectSystem()
}
