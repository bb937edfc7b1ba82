// Package buildlog manages per-stage captured output logs. Each stage writes
// all of its subprocess output into one log file under the build root; logs
// are retained after the run for post-mortem inspection and are the source
// the progress reporter reads its "latest line" from.
package buildlog

import (
	"fmt"
	"os"
	"path/filepath"
)

// Dir locates stage log files under a build root.
type Dir struct {
	root string
}

// NewDir returns a Dir rooted at <buildRoot>/.blendforge/logs.
func NewDir(buildRoot string) *Dir {
	return &Dir{root: filepath.Join(buildRoot, ".blendforge", "logs")}
}

// Root returns the log directory path.
func (d *Dir) Root() string {
	return d.root
}

// Path returns the log file path for a stage.
func (d *Dir) Path(stage string) string {
	return filepath.Join(d.root, fmt.Sprintf("%s.log", stage))
}

// Create truncates and opens the log file for a stage, creating the log
// directory if needed. The previous run's log for this stage is replaced;
// other stages' logs are untouched.
func (d *Dir) Create(stage string) (*os.File, error) {
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.Create(d.Path(stage))
	if err != nil {
		return nil, fmt.Errorf("creating stage log: %w", err)
	}
	return f, nil
}
