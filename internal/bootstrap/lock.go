package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName guards the data directory against a second instance.
const LockFileName = "ffmpeg-architect.lock"

// ErrInstanceLocked means another process holds the data directory lock.
var ErrInstanceLocked = errors.New("another instance is already running")

// InstanceLock is a held single-instance lock.
type InstanceLock struct {
	lock *flock.Flock
}

// AcquireLock takes the lock in dataDir without blocking.
func AcquireLock(dataDir string) (*InstanceLock, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	path := filepath.Join(dataDir, LockFileName)
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock: %s)", ErrInstanceLocked, path)
	}
	return &InstanceLock{lock: lock}, nil
}

// Release unlocks; calling it on nil is a no-op.
func (l *InstanceLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
