package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/blendforge/blendforge/internal/buildlog"
	"github.com/blendforge/blendforge/internal/checkpoint"
	"github.com/blendforge/blendforge/internal/errors"
	"github.com/blendforge/blendforge/internal/history"
	"github.com/blendforge/blendforge/internal/pipeline"
	"github.com/blendforge/blendforge/internal/progress"
	"github.com/blendforge/blendforge/internal/stages"
)

var runCmd = &cobra.Command{
	Use:   "run [stage]",
	Short: "Run the build pipeline, or a single stage",
	Long: `Run every pipeline stage in order, or one stage selected by key.

Stages with a valid checkpoint are skipped; --force re-runs the targeted
stage and invalidates the checkpoints of every later stage first.

Examples:
  # Full pipeline (resumes after an interrupted run)
  blendforge run

  # Re-run the build stage even though it completed before; the install and
  # verify checkpoints are cleared before it starts
  blendforge run build --force

  # Raw output instead of the progress indicator
  blendforge run --verbose`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		verbose, _ := cmd.Flags().GetBool("verbose")
		skipPreflight, _ := cmd.Flags().GetBool("skip-preflight")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("skip-preflight") {
			cfg.SkipPreflight = skipPreflight
		}

		reg, err := stages.BuildRegistry(cfg)
		if err != nil {
			return errors.Wrap(err, errors.Runtime)
		}

		// Reject unknown stage keys before taking the lock.
		if len(args) == 1 {
			if _, ok := reg.Get(args[0]); !ok {
				return errors.UnknownStage(args[0], reg.Keys())
			}
		}

		runID := history.NewRunID()
		if err := pipeline.AcquireLock(cfg.BuildRoot, runID); err != nil {
			return err
		}
		defer pipeline.ReleaseLock(cfg.BuildRoot)

		// An operator abort cancels the context; the running action is
		// killed, the reporter is stopped and its line cleared, and no
		// checkpoint is written for the unfinished stage.
		ctx, cancel := signal.NotifyContext(context.Background(),
			os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if !cfg.SkipPreflight {
			if err := runPreflight(ctx, cmd.OutOrStdout(), cfg, false); err != nil {
				return err
			}
		}

		store := checkpoint.NewDirStore(cfg.BuildRoot)
		logs := buildlog.NewDir(cfg.BuildRoot)
		caps := progress.DetectTerminalCapabilities()
		reporter := progress.NewReporter(cmd.OutOrStdout(), caps, verbose)
		runner := pipeline.NewRunner(reg, store, logs, reporter, verbose, cmd.OutOrStdout())

		start := time.Now()
		var runErr error
		requested := "all"
		if len(args) == 1 {
			requested = args[0]
			runErr = runner.RunOne(ctx, args[0], force)
		} else {
			runErr = runner.RunAll(ctx, force)
			pipeline.WriteSummary(cmd.OutOrStdout(), reg, runner.Records())
		}

		hist := history.NewWriter(cfg.BuildRoot, cfg.MaxHistoryEntries)
		hist.Append(history.Entry{
			RunID:     runID,
			Requested: requested,
			Forced:    force,
			Outcome:   runOutcome(ctx, runErr),
			StartedAt: start,
			Duration:  time.Since(start).Round(time.Second).String(),
		})

		return runErr
	},
}

// runOutcome classifies a finished invocation for the history record.
func runOutcome(ctx context.Context, err error) string {
	switch {
	case err == nil:
		return "completed"
	case ctx.Err() != nil:
		return "interrupted"
	default:
		return "failed"
	}
}

func init() {
	runCmd.Flags().BoolP("force", "f", false,
		"re-run the targeted stage, invalidating all later checkpoints")
	runCmd.Flags().BoolP("verbose", "v", false,
		"stream raw stage output instead of the progress indicator")
	runCmd.Flags().Bool("skip-preflight", false,
		"skip environment preflight checks")
	rootCmd.AddCommand(runCmd)
}
