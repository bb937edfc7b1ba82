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

// libDir is where Blender's `make deps` run places the precompiled
// third-party libraries, relative to the build root (beside the source dir).
func libDir(cfg *config.Configuration) string {
	return filepath.Join(cfg.BuildRoot, "lib")
}

// buildDir is the out-of-source CMake build tree.
func buildDir(cfg *config.Configuration) string {
	return filepath.Join(cfg.BuildRoot, "build")
}

// builtBinary is the compile output the build validator checks for.
func builtBinary(cfg *config.Configuration) string {
	return filepath.Join(buildDir(cfg), "bin", "blender")
}

func depsStage(cfg *config.Configuration) pipeline.Stage {
	return pipeline.Stage{
		Key:   "deps",
		Title: "build third-party dependencies",
		Action: func(ctx context.Context, out io.Writer) error {
			return runCommand(ctx, out, cfg.SourcePath(),
				"make", "-j"+jobsArg(cfg), "deps")
		},
		Validate: func(ctx context.Context) error {
			return validateNonEmptyDir(libDir(cfg), "dependency library directory")
		},
	}
}

func buildStage(cfg *config.Configuration) pipeline.Stage {
	return pipeline.Stage{
		Key:   "build",
		Title: "compile blender",
		Action: func(ctx context.Context, out io.Writer) error {
			return runCommand(ctx, out, cfg.SourcePath(),
				"make", "-j"+jobsArg(cfg), "BUILD_DIR="+buildDir(cfg), "release")
		},
		Validate: func(ctx context.Context) error {
			return validateExecutable(builtBinary(cfg))
		},
	}
}

func installStage(cfg *config.Configuration) pipeline.Stage {
	return pipeline.Stage{
		Key:   "install",
		Title: "install blender",
		Action: func(ctx context.Context, out io.Writer) error {
			return runCommand(ctx, out, cfg.SourcePath(),
				"cmake", "--install", buildDir(cfg), "--prefix", cfg.InstallPath())
		},
		Validate: func(ctx context.Context) error {
			return validateExecutable(installedBinary(cfg))
		},
	}
}

// installedBinary is the launcher the install stage must produce.
func installedBinary(cfg *config.Configuration) string {
	return filepath.Join(cfg.InstallPath(), "blender")
}

// validateNonEmptyDir checks that a directory exists and has content.
func validateNonEmptyDir(dir, what string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("%s missing: %s", what, dir)
	}
	if len(entries) == 0 {
		return fmt.Errorf("%s is empty: %s", what, dir)
	}
	return nil
}

// validateExecutable checks that path is a non-empty executable file. This
// is the check that catches "the compiler exited zero but produced nothing".
func validateExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("binary missing: %s", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("binary is empty: %s", path)
	}
	if info.Mode()&0o111 == 0 {
		return fmt.Errorf("binary is not executable: %s", path)
	}
	return nil
}
