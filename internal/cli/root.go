// Package cli implements the blendforge command surface. The root command
// owns the single failure boundary: any error from a subcommand is rendered
// exactly once (stage failure banner, log tail, remediation) before the
// original status is propagated to the process exit code.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/blendforge/blendforge/internal/config"
	"github.com/blendforge/blendforge/internal/errors"
)

var rootCmd = &cobra.Command{
	Use:   "blendforge",
	Short: "Checkpointed Blender-from-source build pipeline",
	Long: `blendforge builds Blender from source on an arm64 CUDA host as a
resumable pipeline: install system packages, fetch sources, apply local
patches, build third-party dependencies, compile, install, and verify the
result with a headless render.

Each stage records a durable checkpoint on validated success, so a stopped
run resumes where it left off. Forcing a stage re-runs it and invalidates
every later stage's checkpoint.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "",
		"project config file (default .blendforge/config.yml)")
	rootCmd.PersistentFlags().String("build-root", "",
		"directory all pipeline state is scoped to (overrides config)")
}

// Execute runs the CLI. Failures are reported here, once, and returned for
// exit-status mapping in main.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		errors.PrintRunFailure(os.Stderr, err)
	}
	return err
}

// loadConfig loads configuration honoring the persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Configuration, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.Configuration,
			"Check .blendforge/config.yml for syntax errors",
			"Remove the file to fall back to built-in defaults")
	}
	if root, _ := cmd.Flags().GetString("build-root"); root != "" {
		cfg.BuildRoot = root
	}
	return cfg, nil
}
