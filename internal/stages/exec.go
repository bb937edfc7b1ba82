package stages

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

// runCommand executes an external command with stdout and stderr joined into
// the stage's output sink. The returned error keeps the *exec.ExitError in
// its chain so the runner can surface the exit status.
func runCommand(ctx context.Context, out io.Writer, dir, name string, args ...string) error {
	fmt.Fprintf(out, "$ %s %v\n", name, args)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath
