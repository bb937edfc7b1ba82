package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blendforge/blendforge/internal/config"
	"github.com/blendforge/blendforge/internal/preflight"
)

var (
	checkPass = color.New(color.FgGreen).SprintFunc()
	checkWarn = color.New(color.FgYellow).SprintFunc()
	checkFail = color.New(color.FgRed, color.Bold).SprintFunc()
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run the environment preflight checks and report",
	Long: `Run every preflight check (architecture, disk space, required tools,
network reachability) without starting any stage, and print each result.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		return runPreflight(ctx, cmd.OutOrStdout(), cfg, true)
	},
}

// runPreflight executes the preflight checks. Warnings and failures are
// always printed; showAll additionally prints passing checks. The returned
// error is the fatal preflight failure, if any.
func runPreflight(ctx context.Context, out io.Writer, cfg *config.Configuration, showAll bool) error {
	checker := preflight.New(cfg)
	results, err := checker.Run(ctx)

	for _, r := range results {
		if !showAll && r.Status == preflight.Pass {
			continue
		}
		fmt.Fprintf(out, "  %s %s", statusMarker(r.Status), r.Name)
		if r.Detail != "" {
			fmt.Fprintf(out, ": %s", r.Detail)
		}
		fmt.Fprintln(out)
	}
	return err
}

func statusMarker(s preflight.Status) string {
	switch s {
	case preflight.Warn:
		return checkWarn("[WARN]")
	case preflight.Fail:
		return checkFail("[FAIL]")
	default:
		return checkPass("[ OK ]")
	}
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
