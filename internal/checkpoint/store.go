// Package checkpoint persists per-stage completion markers. The store is the
// sole authority on whether a stage has completed: it tracks "the engine
// considered this stage done", deliberately decoupled from the stage's own
// on-disk products. Markers survive process restart and are scoped to one
// build root, so distinct build roots never share state.
package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Store records and queries stage completion. Only the step runner mutates
// it: MarkDone on validated success, Clear on forced re-run or invalidation.
type Store interface {
	// MarkDone persists a completion record for the stage, overwriting any
	// prior record.
	MarkDone(stage string) error
	// IsDone reports whether a completion record exists. Side-effect free.
	IsDone(stage string) (bool, error)
	// Clear removes the stage's record. Clearing an absent record is a no-op.
	Clear(stage string) error
	// CompletedAt returns the recorded completion time, and whether a record
	// exists.
	CompletedAt(stage string) (time.Time, bool, error)
}

// record is the on-disk form of one checkpoint.
type record struct {
	// Stage is the stage key the record belongs to.
	Stage string `yaml:"stage"`
	// CompletedAt is when the stage last completed with a passing validator.
	CompletedAt time.Time `yaml:"completed_at"`
}

// DirStore is a Store backed by one YAML file per stage in a directory.
type DirStore struct {
	dir string
	now func() time.Time
}

// NewDirStore creates a DirStore rooted at <buildRoot>/.blendforge/checkpoints.
func NewDirStore(buildRoot string) *DirStore {
	return &DirStore{
		dir: filepath.Join(buildRoot, ".blendforge", "checkpoints"),
		now: time.Now,
	}
}

// Dir returns the directory holding checkpoint records.
func (s *DirStore) Dir() string {
	return s.dir
}

func (s *DirStore) path(stage string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.yaml", stage))
}

// MarkDone writes the stage's completion record atomically (temp file +
// rename) so a crash mid-write can never leave a torn marker behind.
func (s *DirStore) MarkDone(stage string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating checkpoint directory: %w", err)
	}

	data, err := yaml.Marshal(record{Stage: stage, CompletedAt: s.now()})
	if err != nil {
		return fmt.Errorf("marshaling checkpoint: %w", err)
	}

	path := s.path(stage)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing temp checkpoint: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath) // Best effort cleanup
		return fmt.Errorf("renaming temp checkpoint: %w", err)
	}
	return nil
}

// IsDone reports whether a completion record exists for the stage.
func (s *DirStore) IsDone(stage string) (bool, error) {
	_, ok, err := s.CompletedAt(stage)
	return ok, err
}

// CompletedAt loads the stage's completion time. A missing record is not an
// error; it reports ok=false.
func (s *DirStore) CompletedAt(stage string) (time.Time, bool, error) {
	data, err := os.ReadFile(s.path(stage))
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("reading checkpoint: %w", err)
	}

	var rec record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return time.Time{}, false, fmt.Errorf("parsing checkpoint: %w", err)
	}
	return rec.CompletedAt, true, nil
}

// Clear removes the stage's record if present.
func (s *DirStore) Clear(stage string) error {
	if err := os.Remove(s.path(stage)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing checkpoint: %w", err)
	}
	return nil
}

// ClearAll removes every record in the store. Used by the clean command;
// a store with no records is cleared successfully.
func (s *DirStore) ClearAll() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading checkpoint directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			return fmt.Errorf("removing checkpoint %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// Compile-time interface compliance check.
var _ Store = (*DirStore)(nil)
