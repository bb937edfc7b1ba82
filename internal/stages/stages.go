// Package stages defines the concrete pipeline stages for building Blender
// from source: install system packages, fetch sources, apply local patches,
// build third-party dependencies, compile, install, and verify the result
// with a headless render. Each stage supplies an opaque action and a
// post-condition validator to the step engine; the engine neither knows nor
// cares what the stages do.
package stages

import (
	"runtime"
	"strconv"

	"github.com/blendforge/blendforge/internal/config"
	"github.com/blendforge/blendforge/internal/pipeline"
)

// BuildRegistry assembles the ordered stage registry for a configuration.
// The order is the pipeline's total order; downstream invalidation and the
// prefix invariant both derive from it.
func BuildRegistry(cfg *config.Configuration) (*pipeline.Registry, error) {
	return pipeline.NewRegistry([]pipeline.Stage{
		packagesStage(cfg),
		fetchStage(cfg),
		patchStage(cfg),
		depsStage(cfg),
		buildStage(cfg),
		installStage(cfg),
		verifyStage(cfg),
	})
}

// ArtifactDirs returns the stage-produced directories the clean command
// removes: the build tree and the install prefix.
func ArtifactDirs(cfg *config.Configuration) []string {
	return []string{buildDir(cfg), cfg.InstallPath()}
}

// DeepArtifactDirs additionally includes the source checkout and the
// third-party library tree. Removing them forces a full re-fetch and deps
// rebuild, so clean only does it when asked.
func DeepArtifactDirs(cfg *config.Configuration) []string {
	return append(ArtifactDirs(cfg), cfg.SourcePath(), libDir(cfg))
}

// jobsArg returns the -j value for make invocations.
func jobsArg(cfg *config.Configuration) string {
	jobs := cfg.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	return strconv.Itoa(jobs)
}
