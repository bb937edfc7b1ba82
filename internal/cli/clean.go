package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blendforge/blendforge/internal/buildlog"
	"github.com/blendforge/blendforge/internal/checkpoint"
	"github.com/blendforge/blendforge/internal/errors"
	"github.com/blendforge/blendforge/internal/pipeline"
	"github.com/blendforge/blendforge/internal/stages"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove checkpoints, logs and build artifacts",
	Long: `Remove every stage checkpoint, the stage logs, the build tree and the
install prefix, so the next run starts from scratch.

With --all the source checkout and the third-party library tree are removed
too, forcing a full re-fetch and dependency rebuild.

Cleaning a build root with nothing in it succeeds and does nothing.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		// Never pull state out from under an active run.
		lock, err := pipeline.ActiveLock(cfg.BuildRoot)
		if err != nil {
			return errors.Wrap(err, errors.Runtime)
		}
		if lock != nil {
			return errors.CleanWhileRunning(lock.PID)
		}

		store := checkpoint.NewDirStore(cfg.BuildRoot)
		if err := store.ClearAll(); err != nil {
			return errors.Wrap(err, errors.Runtime)
		}

		targets := []string{buildlog.NewDir(cfg.BuildRoot).Root()}
		targets = append(targets, stages.ArtifactDirs(cfg)...)
		if all {
			targets = stages.DeepArtifactDirs(cfg)
			targets = append(targets, buildlog.NewDir(cfg.BuildRoot).Root())
		}

		for _, dir := range targets {
			if err := os.RemoveAll(dir); err != nil {
				return errors.Wrap(err, errors.Runtime,
					fmt.Sprintf("Check permissions on %s and retry", dir))
			}
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Cleaned. The next run starts from the first stage.")
		return nil
	},
}

func init() {
	cleanCmd.Flags().Bool("all", false,
		"also remove the source checkout and the third-party library tree")
	rootCmd.AddCommand(cleanCmd)
}
