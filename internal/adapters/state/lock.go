package state

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/themperek/rig/internal/core/domain"
	"go.trai.ch/zerr"
)

// lockInfo is what a run writes into the lock file so a later run can tell
// a live holder from a stale one.
type lockInfo struct {
	PID        int       `json:"pid"`
	Hostname   string    `json:"hostname"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// FileLocker implements ports.Locker with an exclusively-created lock file
// next to the state file. A lock whose holder process is gone is treated as
// stale and broken.
type FileLocker struct{}

// NewFileLocker creates a new FileLocker.
func NewFileLocker() *FileLocker {
	return &FileLocker{}
}

// Acquire takes the lock guarding statePath.
func (l *FileLocker) Acquire(statePath string) (func() error, error) {
	lockPath := domain.LockPath(statePath)
	if err := os.MkdirAll(filepath.Dir(lockPath), domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrPersistence.Error()), "path", lockPath)
	}

	if release, err := l.tryAcquire(lockPath); err == nil {
		return release, nil
	} else if !errors.Is(err, fs.ErrExist) {
		return nil, err
	}

	// The lock file exists. Break it only if the holder is gone.
	holder, err := readLock(lockPath)
	if err == nil && processAlive(holder.PID) {
		return nil, zerr.With(zerr.With(domain.ErrLockHeld, "holder_pid", holder.PID), "path", lockPath)
	}
	// Unreadable lock files count as stale too: the previous run died
	// mid-write and nothing is running.
	if err := os.Remove(lockPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, zerr.With(zerr.Wrap(err, "failed to break stale lock"), "path", lockPath)
	}

	release, err := l.tryAcquire(lockPath)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, zerr.With(domain.ErrLockHeld, "path", lockPath)
		}
		return nil, err
	}
	return release, nil
}

func (l *FileLocker) tryAcquire(lockPath string) (func() error, error) {
	//nolint:gosec // Path is derived from the trusted state file location
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, domain.FilePerm)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, err
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to create lock file"), "path", lockPath)
	}

	hostname, _ := os.Hostname()
	info := lockInfo{
		PID:        os.Getpid(),
		Hostname:   hostname,
		AcquiredAt: time.Now(),
	}
	enc := json.NewEncoder(f)
	if err := enc.Encode(info); err != nil {
		_ = f.Close()
		_ = os.Remove(lockPath)
		return nil, zerr.With(zerr.Wrap(err, "failed to write lock file"), "path", lockPath)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(lockPath)
		return nil, zerr.With(zerr.Wrap(err, "failed to write lock file"), "path", lockPath)
	}

	release := func() error {
		if err := os.Remove(lockPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return zerr.With(zerr.Wrap(err, "failed to release lock"), "path", lockPath)
		}
		return nil
	}
	return release, nil
}

func readLock(lockPath string) (lockInfo, error) {
	var info lockInfo
	//nolint:gosec // Path is derived from the trusted state file location
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return info, err
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return info, err
	}
	if info.PID <= 0 {
		return info, errors.New("lock file has no holder pid")
	}
	return info, nil
}

// processAlive probes the holder pid with signal 0. On Unix FindProcess
// always succeeds; only the signal tells whether the process exists.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	// EPERM means the process exists but belongs to someone else.
	return err == nil || errors.Is(err, syscall.EPERM)
}
