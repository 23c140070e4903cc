package egetbox

import "context"

// GetOptions combines instance and download options for Get.
type GetOptions struct {
	Options
	DownloadOptions
	// SkipCleanup leaves the temp root in place for inspection.
	SkipCleanup bool
}

// Get creates an instance, downloads repo, and cleans up unless
// SkipCleanup is set. A cleanup failure is logged and never replaces the
// download result.
func Get(ctx context.Context, repo string, opts GetOptions) (bool, error) {
	eg, err := New(opts.Options)
	if err != nil {
		return false, err
	}

	worked, err := eg.Download(ctx, repo, opts.DownloadOptions)

	if opts.SkipCleanup {
		eg.logger.Info("skipping cleanup", "root", eg.Root())
		return worked, err
	}
	if cleanupErr := eg.Cleanup(); cleanupErr != nil {
		eg.logger.Warn("cleanup failed", "root", eg.Root(), "error", cleanupErr)
	}
	return worked, err
}
