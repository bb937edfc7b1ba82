package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/blendforge/blendforge/internal/errors"
)

// RunLock prevents two pipeline runs from sharing one build root.
type RunLock struct {
	// RunID identifies the run holding the lock.
	RunID string `yaml:"run_id"`
	// PID is the process holding the lock.
	PID int `yaml:"pid"`
	// StartedAt is when the lock was acquired.
	StartedAt time.Time `yaml:"started_at"`
}

// LockPath returns the lock file location for a build root.
func LockPath(buildRoot string) string {
	return filepath.Join(buildRoot, ".blendforge", "run.lock")
}

// AcquireLock takes the run lock for buildRoot. A live holder makes this
// fail; a lock left behind by a dead process is replaced silently.
func AcquireLock(buildRoot, runID string) error {
	existing, err := CurrentLock(buildRoot)
	if err != nil {
		return err
	}
	if existing != nil && processAlive(existing.PID) {
		return errors.RunLocked(existing.PID)
	}

	lock := &RunLock{RunID: runID, PID: os.Getpid(), StartedAt: time.Now()}
	data, err := yaml.Marshal(lock)
	if err != nil {
		return fmt.Errorf("marshaling run lock: %w", err)
	}

	path := LockPath(buildRoot)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing run lock: %w", err)
	}
	return nil
}

// ReleaseLock removes the run lock. Releasing an absent lock is fine.
func ReleaseLock(buildRoot string) error {
	if err := os.Remove(LockPath(buildRoot)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing run lock: %w", err)
	}
	return nil
}

// CurrentLock reads the lock for buildRoot, or nil when none exists.
func CurrentLock(buildRoot string) (*RunLock, error) {
	data, err := os.ReadFile(LockPath(buildRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading run lock: %w", err)
	}

	var lock RunLock
	if err := yaml.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("parsing run lock: %w", err)
	}
	return &lock, nil
}

// ActiveLock returns the lock for buildRoot when its holding process is
// still alive, nil otherwise.
func ActiveLock(buildRoot string) (*RunLock, error) {
	lock, err := CurrentLock(buildRoot)
	if err != nil {
		return nil, err
	}
	if lock == nil || !processAlive(lock.PID) {
		return nil, nil
	}
	return lock, nil
}

// processAlive reports whether pid refers to a live process.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return syscall.Kill(pid, 0) == nil
}
