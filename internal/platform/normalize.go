package platform

import (
	"fmt"
	"strings"
)

// familyMap maps distribution names to their canonical family names.
var familyMap = map[string]string{
	"debian":   FamilyDebian,
	"ubuntu":   FamilyDebian,
	"rhel":     FamilyRHEL,
	"centos":   FamilyRHEL,
	"rocky":    FamilyRHEL,
	"fedora":   FamilyFedora,
	"suse":     FamilySUSE,
	"opensuse": FamilySUSE,
	"arch":     FamilyArch,
	"manjaro":  FamilyArch,
	"alpine":   FamilyAlpine,
	"gentoo":   FamilyGentoo,
}

// archAliases maps kernel and vendor spellings to GOARCH names, which is
// what the resolver's --system flag expects.
var archAliases = map[string]string{
	"amd64":   "amd64",
	"x86_64":  "amd64",
	"x64":     "amd64",
	"arm64":   "arm64",
	"aarch64": "arm64",
	"386":     "386",
	"i386":    "386",
	"i686":    "386",
	"x86":     "386",
	"arm":     "arm",
	"armv6l":  "arm",
	"armv7l":  "arm",
	"riscv64": "riscv64",
	"ppc64le": "ppc64le",
	"s390x":   "s390x",
	"loong64": "loong64",
}

// normalizeArch converts an architecture spelling to its GOARCH name.
func normalizeArch(arch string) (string, error) {
	if goarch, ok := archAliases[strings.ToLower(strings.TrimSpace(arch))]; ok {
		return goarch, nil
	}
	return "", fmt.Errorf("unsupported architecture: %q", arch)
}

// normalizePlatform converts platform IDs to lowercase for consistency.
func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}

// mapFamily maps distribution family strings to canonical family names.
func mapFamily(family string) string {
	if canonical, ok := familyMap[normalizePlatform(family)]; ok {
		return canonical
	}
	return FamilyUnknown
}
