// Package workspace owns the temporary storage behind one downloader
// instance: a root directory, created on first use, holding the sandbox
// scope the resolver sees. A sibling "<root>.lock" flock marks the root as
// owned, so no two instances can share it.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

// SandboxDirName is the sandbox scope's directory under the root.
const SandboxDirName = "sandbox"

var (
	// ErrInUse is returned when another owner holds the root's lock.
	ErrInUse = errors.New("workspace root is in use by another instance")
	// ErrNoRoot is returned by New callers passing an empty root.
	ErrNoRoot = errors.New("workspace root is required")
)

// Workspace is the temp root and sandbox scope of one instance.
type Workspace struct {
	mu     sync.Mutex
	root   string
	lock   *flock.Flock
	active bool
}

// New returns a workspace rooted at root. Nothing touches the disk until
// Ensure.
func New(root string) (*Workspace, error) {
	if root == "" {
		return nil, ErrNoRoot
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}
	return &Workspace{root: abs}, nil
}

// Root returns the absolute temp root.
func (w *Workspace) Root() string {
	return w.root
}

// SandboxDir returns the sandbox scope directory.
func (w *Workspace) SandboxDir() string {
	return filepath.Join(w.root, SandboxDirName)
}

// LockPath returns the path of the ownership lock.
func (w *Workspace) LockPath() string {
	return w.root + ".lock"
}

// Active reports whether the root has been created and not yet cleaned.
func (w *Workspace) Active() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

// Ensure creates the root and sandbox scope if needed and returns the
// sandbox directory. The first call takes the ownership lock.
func (w *Workspace) Ensure() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.active {
		lock, err := w.acquire()
		if err != nil {
			return "", err
		}
		w.lock = lock
		w.active = true
	}

	// Recreated on every call in case something removed it between runs.
	dir := w.SandboxDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create sandbox scope: %w", err)
	}
	return dir, nil
}

// lockAttempts bounds how often acquire recreates a parent that a sibling
// instance removed between MkdirAll and the lock-file open.
const lockAttempts = 5

// acquire creates the parent directory and takes the root's lock. Once
// the lock file exists the parent is non-empty, so a sibling's
// os.Remove(parent) can no longer succeed.
func (w *Workspace) acquire() (*flock.Flock, error) {
	var err error
	for range lockAttempts {
		if err = os.MkdirAll(filepath.Dir(w.root), 0o755); err != nil {
			return nil, fmt.Errorf("create workspace parent: %w", err)
		}

		lock := flock.New(w.LockPath())
		var ok bool
		ok, err = lock.TryLock()
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("lock workspace %s: %w", w.root, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrInUse, w.root)
		}
		return lock, nil
	}
	return nil, fmt.Errorf("lock workspace %s: %w", w.root, err)
}

// Cleanup removes the root and releases the lock. Calling it on a
// workspace that was never created, or twice, is a no-op. If removal
// fails the lock is kept so Cleanup can be retried.
func (w *Workspace) Cleanup() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.active {
		return nil
	}

	if err := os.RemoveAll(w.root); err != nil {
		return fmt.Errorf("remove workspace %s: %w", w.root, err)
	}

	var errs []error
	if err := w.lock.Unlock(); err != nil {
		errs = append(errs, fmt.Errorf("release workspace lock: %w", err))
	}
	if err := os.Remove(w.LockPath()); err != nil && !os.IsNotExist(err) {
		errs = append(errs, fmt.Errorf("remove workspace lock: %w", err))
	}

	w.lock = nil
	w.active = false
	return errors.Join(errs...)
}
