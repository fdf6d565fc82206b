package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// ErrLockTimeout indicates the lock acquisition timed out
var ErrLockTimeout = errors.New("lock acquisition timed out")

// lockRetryInterval is the delay between lock attempts.
const lockRetryInterval = 50 * time.Millisecond

// FileLock is an advisory flock(2) lock on a sidecar file. Readers take the
// shared lock and writers the exclusive one, so a reader never sees a file
// that is being replaced.
type FileLock struct {
	lock *flock.Flock
}

// NewFileLock creates a lock at the given path. The lock file and its parent
// directories are created on first use.
func NewFileLock(path string) *FileLock {
	return &FileLock{lock: flock.New(path)}
}

// lockPathFor returns the sidecar lock path of a data file.
func lockPathFor(path string) string {
	return path + ".lock"
}

// RLock acquires the shared lock, waiting at most timeout.
func (l *FileLock) RLock(ctx context.Context, timeout time.Duration) error {
	return l.acquire(ctx, timeout, l.lock.TryRLockContext)
}

// Lock acquires the exclusive lock, waiting at most timeout.
func (l *FileLock) Lock(ctx context.Context, timeout time.Duration) error {
	return l.acquire(ctx, timeout, l.lock.TryLockContext)
}

func (l *FileLock) acquire(ctx context.Context, timeout time.Duration, try func(context.Context, time.Duration) (bool, error)) error {
	if err := os.MkdirAll(filepath.Dir(l.lock.Path()), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	locked, err := try(lockCtx, lockRetryInterval)
	if err != nil {
		// Our own deadline expiring is a timeout, the caller's is not
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return ErrLockTimeout
		}
		return fmt.Errorf("flock failed: %w", err)
	}
	if !locked {
		return ErrLockTimeout
	}
	return nil
}

// Unlock releases the lock. It is safe to call on an unlocked FileLock.
func (l *FileLock) Unlock() error {
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("flock unlock failed: %w", err)
	}
	return nil
}

// IsLocked returns true if this instance holds the lock, shared or exclusive.
func (l *FileLock) IsLocked() bool {
	return l.lock.Locked() || l.lock.RLocked()
}

// Path returns the path to the lock file.
func (l *FileLock) Path() string {
	return l.lock.Path()
}
