package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// StaleThreshold is the minimum age of an unlocked root before Prune
// removes it.
const StaleThreshold = 10 * time.Minute

// Prune removes instance roots under parent left behind by processes that
// exited without cleaning up: directories whose lock is not held and that
// have not been modified for olderThan. It returns the removed roots.
func Prune(parent string, olderThan time.Duration) ([]string, error) {
	entries, err := os.ReadDir(parent)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", parent, err)
	}

	var removed []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		root := filepath.Join(parent, entry.Name())

		stale, err := isStale(root, olderThan)
		if err != nil || !stale {
			continue
		}

		lock := flock.New(root + ".lock")
		ok, err := lock.TryLock()
		if err != nil || !ok {
			continue
		}

		rmErr := os.RemoveAll(root)
		lock.Unlock()
		if rmErr != nil {
			return removed, fmt.Errorf("remove stale root %s: %w", root, rmErr)
		}
		os.Remove(root + ".lock")
		removed = append(removed, root)
	}
	return removed, nil
}

func isStale(path string, threshold time.Duration) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return time.Since(info.ModTime()) > threshold, nil
}
