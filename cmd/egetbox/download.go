package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ZebulonRouseFrantzich/egetbox"
	"github.com/ZebulonRouseFrantzich/egetbox/internal/fetch"
	"github.com/ZebulonRouseFrantzich/egetbox/internal/logging"
	"github.com/ZebulonRouseFrantzich/egetbox/internal/platform"
	"github.com/ZebulonRouseFrantzich/egetbox/internal/verify"
)

func newDownloadCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "download REPO [REPO...]",
		Aliases: []string{"get"},
		Short:   "Download and install a release asset of each repository",
		Example: `  egetbox download --wasm eget.wasm getsops/sops
  egetbox get --script resolver.lua --tag v2.40.1 --to bin/gh cli/cli`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.runDownload,
	}

	flags := cmd.Flags()
	flags.String("system", "", "target system, os/arch (default: detected)")
	flags.String("asset", "", "asset name pattern")
	flags.String("tag", "", "release tag")
	flags.Bool("pre-release", false, "include pre-releases")
	flags.String("file", "", "file to extract from the archive")
	flags.String("to", "", "output path, relative to --cwd")
	flags.Bool("upgrade-only", false, "only install when a newer version exists")
	flags.Bool("remove-archive", false, "remove the archive after extraction")
	flags.Bool("all", false, "extract all files from the archive")
	flags.Bool("source", false, "download the source archive instead of a release asset")
	flags.Bool("download-only", false, "stop after downloading the asset")
	flags.Duration("timeout", fetch.DefaultTimeout, "timeout for each asset fetch")
	flags.Bool("skip-cleanup", false, "keep the temp directory for inspection")

	return cmd
}

func specFromFlags(cmd *cobra.Command) (egetbox.DownloadOptions, error) {
	flags := cmd.Flags()
	var spec egetbox.DownloadOptions
	var err error

	get := func(name string, dst *string) {
		if err == nil {
			*dst, err = flags.GetString(name)
		}
	}
	getBool := func(name string, dst *bool) {
		if err == nil {
			*dst, err = flags.GetBool(name)
		}
	}

	get("system", &spec.System)
	get("asset", &spec.Asset)
	get("tag", &spec.Tag)
	getBool("pre-release", &spec.PreRelease)
	get("file", &spec.File)
	get("to", &spec.To)
	getBool("upgrade-only", &spec.UpgradeOnly)
	getBool("remove-archive", &spec.RemoveArchive)
	getBool("all", &spec.ExtractAll)
	getBool("source", &spec.Source)
	getBool("download-only", &spec.DownloadOnly)
	if err != nil {
		return spec, err
	}

	spec.Timeout, err = flags.GetDuration("timeout")
	return spec, err
}

func (a *app) runDownload(cmd *cobra.Command, repos []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	spec, err := specFromFlags(cmd)
	if err != nil {
		return err
	}
	if spec.To != "" && len(repos) > 1 {
		return fmt.Errorf("--to cannot be used with more than one repository")
	}
	skipCleanup, _ := cmd.Flags().GetBool("skip-cleanup")

	logger, err := logging.NewZap(a.conf.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	opts, err := a.options(ctx, logger)
	if err != nil {
		return err
	}
	opts.OnProgress = newProgressPrinter(cmd.ErrOrStderr(), isTerminal(cmd.ErrOrStderr()))

	out := &lockedWriter{w: cmd.OutOrStdout()}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.conf.Parallel)

	for _, repo := range repos {
		g.Go(func() error {
			worked, err := egetbox.Get(gctx, repo, egetbox.GetOptions{
				Options:         opts,
				DownloadOptions: spec,
				SkipCleanup:     skipCleanup,
			})
			if err != nil {
				return fmt.Errorf("%s: %w", repo, describe(err))
			}
			if worked {
				fmt.Fprintf(out, "Installed %s\n", repo)
			} else {
				fmt.Fprintf(out, "%s is up to date\n", repo)
			}
			return nil
		})
	}
	return g.Wait()
}

// options builds the instance options shared by every repository.
func (a *app) options(ctx context.Context, logger logging.Logger) (egetbox.Options, error) {
	opts := egetbox.Options{
		Cwd:    a.conf.Cwd,
		TmpDir: a.conf.TmpDir,
		Logger: logger,
	}

	switch {
	case a.conf.Script != "":
		info, err := platform.NewDetector().Detect(ctx)
		if err != nil {
			return opts, err
		}
		opts.Capability = &egetbox.LuaCapability{ScriptPath: a.conf.Script, Platform: info}
	case a.conf.Wasm != "":
		opts.WasmPath = a.conf.Wasm
	default:
		return opts, fmt.Errorf("no resolver: set --wasm or --script")
	}

	var verifyOpts []verify.Option
	if a.conf.Keyring != "" {
		keyring, err := verify.LoadKeyring(a.conf.Keyring)
		if err != nil {
			return opts, err
		}
		verifyOpts = append(verifyOpts, verify.WithKeyring(keyring))
	}
	if a.conf.VerifySHA256 {
		verifyOpts = append(verifyOpts, verify.WithSHA256Sidecar())
	}
	if len(verifyOpts) > 0 {
		verifyOpts = append(verifyOpts, verify.WithLogger(logger))
		opts.Verifier = verify.New(fetch.NewClient(), verifyOpts...)
	}

	return opts, nil
}

// describe adds the retry hint to rate-limit failures.
func describe(err error) error {
	var httpErr *egetbox.HTTPError
	if errors.As(err, &httpErr) && httpErr.Kind == egetbox.KindRateLimited && httpErr.RetryAfter != nil {
		wait := time.Until(*httpErr.RetryAfter).Round(time.Second)
		if wait < 0 {
			wait = 0
		}
		return fmt.Errorf("%w (retry in %s)", err, wait)
	}
	return err
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isTerminalFd(int(f.Fd()))
}
