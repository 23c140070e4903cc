// Package platform answers one question for the resolver: which release
// asset family fits this host. It produces the "os/arch" system string
// passed as --system, and, on Linux, distribution details exposed to Lua
// resolver scripts.
package platform

import "context"

// Linux distribution family constants.
const (
	FamilyDebian  = "debian"  // Debian, Ubuntu, Linux Mint
	FamilyRHEL    = "rhel"    // RHEL, CentOS, Rocky Linux, AlmaLinux
	FamilyFedora  = "fedora"  // Fedora
	FamilySUSE    = "suse"    // openSUSE, SLES
	FamilyArch    = "arch"    // Arch Linux, Manjaro
	FamilyAlpine  = "alpine"  // Alpine Linux
	FamilyGentoo  = "gentoo"  // Gentoo
	FamilyUnknown = "unknown" // Unrecognized distributions
)

// Info contains platform detection information.
type Info struct {
	OS       string // GOOS value, e.g. "linux", "darwin", "windows"
	Arch     string // normalized GOARCH, e.g. "amd64", "arm64", "386"
	ArchRaw  string // architecture as reported before normalization
	Platform string // distro ID (Linux only, e.g., "ubuntu")
	Family   string // canonical family (e.g., "debian")
	Version  string // distro version (Linux only, e.g., "22.04")
}

// System returns the resolver's system string, "os/arch".
func (i *Info) System() string {
	return i.OS + "/" + i.Arch
}

// Distro contains Linux distribution information.
type Distro struct {
	ID      string
	Family  string
	Version string
}

// GetDistro returns distro information, or nil off Linux or when
// distribution detection failed.
func (i *Info) GetDistro() *Distro {
	if i.OS != "linux" || i.Platform == "" {
		return nil
	}
	return &Distro{
		ID:      i.Platform,
		Family:  i.Family,
		Version: i.Version,
	}
}

// IsLinux returns true if the platform is Linux.
func (i *Info) IsLinux() bool {
	return i.OS == "linux"
}

// IsMacOS returns true if the platform is macOS.
func (i *Info) IsMacOS() bool {
	return i.OS == "darwin"
}

// IsWindows returns true if the platform is Windows.
func (i *Info) IsWindows() bool {
	return i.OS == "windows"
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}

// StaticDetector returns a fixed Info. Useful when the system is known
// up front and in tests.
type StaticDetector struct {
	Info *Info
	Err  error
}

// Detect returns the configured info and error.
func (s StaticDetector) Detect(ctx context.Context) (*Info, error) {
	return s.Info, s.Err
}
