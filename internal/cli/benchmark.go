package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blendforge/blendforge/internal/buildlog"
	"github.com/blendforge/blendforge/internal/errors"
	"github.com/blendforge/blendforge/internal/stages"
)

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Render the GPU benchmark scene with the installed build",
	Long: `Render a procedural glass-and-metal fractal scene on the GPU at three
sizes (preview, 720p, 1080p) using the installed Blender, and report the
per-tier render timings.

Requires a completed pipeline; checkpoints are neither read nor written.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(),
			os.Interrupt, syscall.SIGTERM)
		defer cancel()

		// Benchmark output streams to the terminal and is captured to a log
		// like a stage, so timings survive for later comparison.
		logs := buildlog.NewDir(cfg.BuildRoot)
		logFile, err := logs.Create("benchmark")
		if err != nil {
			return errors.Wrap(err, errors.Runtime)
		}
		defer logFile.Close()

		logw := buildlog.NewTimestampedWriter(logFile)
		defer logw.Flush()
		sink := io.MultiWriter(logw, cmd.OutOrStdout())

		if err := stages.RunBenchmark(ctx, sink, cfg); err != nil {
			return errors.Wrap(err, errors.Runtime,
				"The benchmark needs a finished install; run: blendforge run",
				fmt.Sprintf("Full output: %s", logs.Path("benchmark")),
			)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Renders written to %s\n",
			stages.BenchmarkOutputDir(cfg))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(benchmarkCmd)
}
