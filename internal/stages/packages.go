package stages

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/blendforge/blendforge/internal/config"
	"github.com/blendforge/blendforge/internal/pipeline"
)

// buildPackages is the apt package set the Blender build depends on.
var buildPackages = []string{
	"build-essential",
	"git",
	"git-lfs",
	"cmake",
	"ninja-build",
	"gcc",
	"g++",
	"python3",
	"python3-dev",
	"subversion",
	"libx11-dev",
	"libxxf86vm-dev",
	"libxcursor-dev",
	"libxi-dev",
	"libxrandr-dev",
	"libxinerama-dev",
	"libegl-dev",
	"libwayland-dev",
	"wayland-protocols",
	"libxkbcommon-dev",
	"libdbus-1-dev",
	"linux-libc-dev",
}

// toolsToVerify are the commands the validator requires on PATH afterwards.
var toolsToVerify = []string{"git", "cmake", "make", "gcc", "g++", "python3"}

func packagesStage(cfg *config.Configuration) pipeline.Stage {
	return pipeline.Stage{
		Key:      "packages",
		Title:    "install system packages",
		Action:   packagesAction,
		Validate: packagesValidator,
	}
}

func packagesAction(ctx context.Context, out io.Writer) error {
	args := append([]string{"install", "-y"}, buildPackages...)
	if os.Geteuid() == 0 {
		return runCommand(ctx, out, "", "apt-get", args...)
	}
	return runCommand(ctx, out, "", "sudo", append([]string{"apt-get"}, args...)...)
}

func packagesValidator(ctx context.Context) error {
	for _, tool := range toolsToVerify {
		if _, err := lookPath(tool); err != nil {
			return fmt.Errorf("%s not on PATH after package install", tool)
		}
	}
	return nil
}
