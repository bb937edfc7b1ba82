package stages

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/blendforge/blendforge/internal/config"
	"github.com/blendforge/blendforge/internal/pipeline"
)

// minRenderBytes is the smallest plausible size for the verification render.
// A truncated or placeholder file below this fails validation even when the
// render process exited zero.
const minRenderBytes = 1024

// renderOutput is where the verification render lands.
func renderOutput(cfg *config.Configuration) string {
	return filepath.Join(cfg.BuildRoot, ".blendforge", "verify_render.png")
}

func verifyStage(cfg *config.Configuration) pipeline.Stage {
	return pipeline.Stage{
		Key:   "verify",
		Title: "verify installed build",
		Action: func(ctx context.Context, out io.Writer) error {
			return runVerification(ctx, out, cfg)
		},
		Validate: func(ctx context.Context) error {
			return validateRenderOutput(renderOutput(cfg))
		},
	}
}

// runVerification drives the installed binary headless through the embedded
// verification script: version check, CUDA device detection, and a small
// Cycles GPU render written to the render output path.
func runVerification(ctx context.Context, out io.Writer, cfg *config.Configuration) error {
	scriptPath := filepath.Join(cfg.BuildRoot, ".blendforge", "verify_build.py")
	if err := os.MkdirAll(filepath.Dir(scriptPath), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	if err := os.WriteFile(scriptPath, verifyScript, 0o644); err != nil {
		return fmt.Errorf("writing verification script: %w", err)
	}

	return runCommand(ctx, out, cfg.BuildRoot, installedBinary(cfg),
		"-b", "--factory-startup",
		"--python", scriptPath,
		"--", "--render-output", renderOutput(cfg),
	)
}

// validateRenderOutput checks the verification render exists and is large
// enough to be a real image.
func validateRenderOutput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("verification render missing: %s", path)
	}
	if info.Size() <= minRenderBytes {
		return fmt.Errorf("verification render suspiciously small (%d bytes): %s",
			info.Size(), path)
	}
	return nil
}
