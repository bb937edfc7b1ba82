package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/blendforge/blendforge/internal/buildlog"
	"github.com/blendforge/blendforge/internal/errors"
	"github.com/blendforge/blendforge/internal/stages"
)

var logsCmd = &cobra.Command{
	Use:   "logs <stage>",
	Short: "Print a stage's captured log",
	Long: `Print the captured output log of a stage. With --follow the command
keeps streaming new lines as they are written, which is useful alongside a
run started in another terminal.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		follow, _ := cmd.Flags().GetBool("follow")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		reg, err := stages.BuildRegistry(cfg)
		if err != nil {
			return errors.Wrap(err, errors.Runtime)
		}
		if _, ok := reg.Get(args[0]); !ok {
			return errors.UnknownStage(args[0], reg.Keys())
		}

		path := buildlog.NewDir(cfg.BuildRoot).Path(args[0])
		if !follow {
			data, err := os.ReadFile(path)
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Fprintf(cmd.OutOrStdout(), "No log yet for stage %s\n", args[0])
					return nil
				}
				return errors.Wrap(err, errors.Runtime)
			}
			cmd.OutOrStdout().Write(data)
			return nil
		}

		follower, err := buildlog.NewFollower(path)
		if err != nil {
			return errors.Wrap(err, errors.Runtime)
		}
		defer follower.Close()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		for line := range follower.Lines(ctx, true) {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}

func init() {
	logsCmd.Flags().BoolP("follow", "f", false,
		"keep streaming new log lines until interrupted")
	rootCmd.AddCommand(logsCmd)
}
