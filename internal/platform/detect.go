package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector using actual platform detection.
type RealDetector struct{}

// NewDetector creates a new platform detector.
func NewDetector() Detector {
	return &RealDetector{}
}

// Detect reports the running binary's GOOS/GOARCH and, on Linux, the
// distribution via gopsutil. Distribution lookup failures are tolerated;
// only cancellation is an error.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	return detect(ctx, runtime.GOOS, runtime.GOARCH)
}

func detect(ctx context.Context, goos, goarch string) (*Info, error) {
	info := &Info{
		OS:      goos,
		Arch:    systemArch(goarch),
		ArchRaw: goarch,
	}

	if goos != "linux" {
		return info, nil
	}

	platform, family, version, err := host.PlatformInformationWithContext(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
		}
		return info, nil
	}

	if platform = normalizePlatform(platform); platform != "" {
		info.Platform = platform
		info.Family = mapFamily(family)
		info.Version = normalizePlatform(version)
	}

	return info, nil
}

// DetectSystem returns "os/arch" for the running binary. It never fails.
func DetectSystem() string {
	return runtime.GOOS + "/" + systemArch(runtime.GOARCH)
}

// systemArch normalizes arch, passing through an architecture without an
// alias unchanged.
func systemArch(arch string) string {
	if goarch, err := normalizeArch(arch); err == nil {
		return goarch
	}
	return arch
}
