// Package lockfile provides an exclusive, non-blocking advisory lock scoped
// to a destination path. The lock is cooperative: it is only respected by
// processes that acquire it through the same lock-file convention.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/gofrs/flock"
)

// ErrHeld is returned when the destination's lock is already held elsewhere.
var ErrHeld = errors.New("lockfile: already held")

// Lock is a held advisory lock. Release must be called exactly once per
// acquisition; extra calls are no-ops.
type Lock struct {
	fl       *flock.Flock
	lockPath string

	mu       sync.Mutex
	released bool
}

// Acquire takes an exclusive non-blocking lock for dest by locking a
// sibling "<dest>.lock" file. A held lock surfaces as ErrHeld so callers
// can retry rather than queue.
func Acquire(dest string) (*Lock, error) {
	lockPath := dest + ".lock"
	fl := flock.New(lockPath)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", lockPath, err)
	}
	if !ok {
		return nil, fmt.Errorf("lock %s: %w", lockPath, ErrHeld)
	}
	return &Lock{fl: fl, lockPath: lockPath}, nil
}

// Release unlocks and removes the lock file. Safe to call more than once.
func (l *Lock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return nil
	}
	l.released = true

	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("unlock %s: %w", l.lockPath, err)
	}
	// Removal is best-effort: a concurrent acquirer may have recreated it.
	if err := os.Remove(l.lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", l.lockPath, err)
	}
	return nil
}

// Path returns the lock file's path.
func (l *Lock) Path() string {
	return l.lockPath
}
