package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blendforge/blendforge/internal/checkpoint"
	"github.com/blendforge/blendforge/internal/errors"
	"github.com/blendforge/blendforge/internal/history"
	"github.com/blendforge/blendforge/internal/stages"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show checkpoint state per stage",
	Long: `Show each stage's checkpoint state (done with completion time, or
pending) and the most recent run, without executing anything.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		reg, err := stages.BuildRegistry(cfg)
		if err != nil {
			return errors.Wrap(err, errors.Runtime)
		}
		store := checkpoint.NewDirStore(cfg.BuildRoot)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Build root: %s\n\n", cfg.BuildRoot)

		width := 0
		for _, st := range reg.Stages() {
			if len(st.Key) > width {
				width = len(st.Key)
			}
		}

		for _, st := range reg.Stages() {
			completedAt, done, err := store.CompletedAt(st.Key)
			if err != nil {
				return errors.Wrap(err, errors.Runtime)
			}
			if done {
				fmt.Fprintf(out, "  %-*s  done    %s\n", width, st.Key,
					completedAt.Format("2006-01-02 15:04:05"))
			} else {
				fmt.Fprintf(out, "  %-*s  pending\n", width, st.Key)
			}
		}

		hist, err := history.Load(history.NewWriter(cfg.BuildRoot, cfg.MaxHistoryEntries).Path)
		if err == nil {
			if latest := hist.Latest(); latest != nil {
				fmt.Fprintf(out, "\nLast run: %s (%s, %s, took %s)\n",
					latest.RunID, latest.Requested, latest.Outcome, latest.Duration)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
