// Package history keeps an append-only record of past pipeline invocations,
// shown by the status command. History failures never fail a run.
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Entry is one recorded pipeline invocation.
type Entry struct {
	// RunID identifies the invocation (timestamp_uuid format).
	RunID string `yaml:"run_id"`
	// Requested is the stage selection ("all" or a stage key).
	Requested string `yaml:"requested"`
	// Forced records whether --force was set.
	Forced bool `yaml:"forced,omitempty"`
	// Outcome is the overall result: completed, failed, or interrupted.
	Outcome string `yaml:"outcome"`
	// StartedAt is when the run began.
	StartedAt time.Time `yaml:"started_at"`
	// Duration is the wall-clock run time.
	Duration string `yaml:"duration"`
}

// File is the on-disk history document.
type File struct {
	Entries []Entry `yaml:"entries"`
}

// NewRunID creates a unique run ID with a timestamp prefix.
func NewRunID() string {
	return fmt.Sprintf("%s_%s",
		time.Now().Format("20060102_150405"), uuid.New().String()[:8])
}

// Writer appends entries to the history file with automatic pruning.
type Writer struct {
	// Path is the history file location.
	Path string
	// MaxEntries caps retained history; oldest entries are pruned.
	MaxEntries int
}

// NewWriter creates a history writer for a build root.
func NewWriter(buildRoot string, maxEntries int) *Writer {
	return &Writer{
		Path:       filepath.Join(buildRoot, ".blendforge", "runs.yaml"),
		MaxEntries: maxEntries,
	}
}

// Append records an entry. Errors are non-fatal: they are written to stderr
// and never turn a finished run into a failure.
func (w *Writer) Append(entry Entry) {
	if err := w.append(entry); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to record run history: %v\n", err)
	}
}

func (w *Writer) append(entry Entry) error {
	hist, err := Load(w.Path)
	if err != nil {
		return err
	}

	hist.Entries = append(hist.Entries, entry)
	if w.MaxEntries > 0 && len(hist.Entries) > w.MaxEntries {
		hist.Entries = hist.Entries[len(hist.Entries)-w.MaxEntries:]
	}

	data, err := yaml.Marshal(hist)
	if err != nil {
		return fmt.Errorf("marshaling history: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(w.Path), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	tmpPath := w.Path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing temp history: %w", err)
	}
	if err := os.Rename(tmpPath, w.Path); err != nil {
		os.Remove(tmpPath) // Best effort cleanup
		return fmt.Errorf("renaming temp history: %w", err)
	}
	return nil
}

// Load reads the history file. A missing file yields an empty history.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &File{}, nil
		}
		return nil, fmt.Errorf("reading history: %w", err)
	}

	var hist File
	if err := yaml.Unmarshal(data, &hist); err != nil {
		return nil, fmt.Errorf("parsing history: %w", err)
	}
	return &hist, nil
}

// Latest returns the most recent entry, or nil when history is empty.
func (f *File) Latest() *Entry {
	if len(f.Entries) == 0 {
		return nil
	}
	return &f.Entries[len(f.Entries)-1]
}
