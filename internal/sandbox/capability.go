package sandbox

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

const (
	// GuestRoot is where the sandbox root is mounted in the guest
	GuestRoot = "/"
	// GuestWorkDir is where the host output directory is mounted
	GuestWorkDir = "/work"
	// DefaultProgramName is argv[0] seen by the resolver
	DefaultProgramName = "eget"
)

// Invocation is one request to run the resolver.
type Invocation struct {
	// Args excludes the program name.
	Args []string
	// SandboxRoot is the host directory mounted at GuestRoot.
	SandboxRoot string
	// WorkDir is the host directory mounted at GuestWorkDir. Optional.
	WorkDir string
}

// Result is the resolver's terminal status and captured output.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Capability executes the resolver inside the sandbox. A non-nil error
// means the capability itself could not run (module failed to load,
// context cancelled); resolver failures are a non-zero ExitCode.
type Capability interface {
	Execute(ctx context.Context, inv Invocation) (Result, error)
}

// CapabilityFunc adapts a function to Capability.
type CapabilityFunc func(ctx context.Context, inv Invocation) (Result, error)

// Execute calls f.
func (f CapabilityFunc) Execute(ctx context.Context, inv Invocation) (Result, error) {
	return f(ctx, inv)
}

// ResolveGuestPath maps a guest path to the host. Relative paths are
// taken from GuestRoot. Paths under GuestWorkDir resolve into workDir
// when one is mounted.
func ResolveGuestPath(sandboxRoot, workDir, guest string) (string, error) {
	if guest == "" {
		return "", fmt.Errorf("empty guest path")
	}
	if strings.ContainsRune(guest, 0) {
		return "", fmt.Errorf("invalid guest path %q", guest)
	}

	// Cleaning an absolute path cannot climb above "/".
	clean := path.Clean("/" + filepath.ToSlash(guest))
	if clean == GuestRoot {
		return "", fmt.Errorf("guest path %q names the sandbox root", guest)
	}

	if workDir != "" && (clean == GuestWorkDir || strings.HasPrefix(clean, GuestWorkDir+"/")) {
		rel := strings.TrimPrefix(clean, GuestWorkDir)
		return filepath.Join(workDir, filepath.FromSlash(rel)), nil
	}

	return filepath.Join(sandboxRoot, filepath.FromSlash(clean)), nil
}
