package stages

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/blendforge/blendforge/internal/config"
)

// BenchmarkOutputDir is where the benchmark renders land, under the build
// root's state directory.
func BenchmarkOutputDir(cfg *config.Configuration) string {
	return filepath.Join(cfg.BuildRoot, ".blendforge", "benchmark")
}

// RunBenchmark drives the installed binary headless through the embedded GPU
// benchmark script: a procedural glass/metal fractal rendered at three sizes
// with per-tier timings. It requires a completed install; the pipeline's
// checkpoints are not consulted and not modified.
func RunBenchmark(ctx context.Context, out io.Writer, cfg *config.Configuration) error {
	binary := installedBinary(cfg)
	if err := validateExecutable(binary); err != nil {
		return fmt.Errorf("no installed build to benchmark (run the pipeline first): %w", err)
	}

	scriptPath := filepath.Join(cfg.BuildRoot, ".blendforge", "benchmark.py")
	if err := os.MkdirAll(filepath.Dir(scriptPath), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	if err := os.WriteFile(scriptPath, benchmarkScript, 0o644); err != nil {
		return fmt.Errorf("writing benchmark script: %w", err)
	}

	return runCommand(ctx, out, cfg.BuildRoot, binary,
		"-b", "--factory-startup",
		"--python", scriptPath,
		"--", "--output-dir", BenchmarkOutputDir(cfg),
	)
}
