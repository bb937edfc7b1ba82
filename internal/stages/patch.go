package stages

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/blendforge/blendforge/internal/config"
	"github.com/blendforge/blendforge/internal/pipeline"
)

func patchStage(cfg *config.Configuration) pipeline.Stage {
	return pipeline.Stage{
		Key:   "patch",
		Title: "apply local patches",
		Action: func(ctx context.Context, out io.Writer) error {
			return applyPatches(ctx, out, cfg)
		},
		Validate: func(ctx context.Context) error {
			return validatePatches(ctx, cfg)
		},
	}
}

// listPatches returns the *.patch files in the patch directory, sorted by
// name so numbering prefixes define application order. A missing directory
// means no patches.
func listPatches(patchDir string) ([]string, error) {
	if patchDir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(patchDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading patch directory: %w", err)
	}

	var patches []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".patch" {
			continue
		}
		patches = append(patches, filepath.Join(patchDir, entry.Name()))
	}
	sort.Strings(patches)
	return patches, nil
}

// applyPatches applies each patch that is not already present in the tree.
// Re-running after an upstream fetch re-applies cleanly because already
// applied patches are detected and skipped, keeping the stage idempotent.
func applyPatches(ctx context.Context, out io.Writer, cfg *config.Configuration) error {
	patches, err := listPatches(cfg.PatchPath())
	if err != nil {
		return err
	}
	if len(patches) == 0 {
		fmt.Fprintln(out, "no local patches to apply")
		return nil
	}

	srcDir := cfg.SourcePath()
	for _, patch := range patches {
		if patchApplied(ctx, srcDir, patch) {
			fmt.Fprintf(out, "already applied: %s\n", filepath.Base(patch))
			continue
		}
		if err := runCommand(ctx, out, srcDir, "git", "apply", "--verbose", patch); err != nil {
			return fmt.Errorf("applying %s: %w", filepath.Base(patch), err)
		}
	}
	return nil
}

// patchApplied reports whether the patch is already present: if it can be
// reverse-applied cleanly, the tree already contains it.
func patchApplied(ctx context.Context, srcDir, patch string) bool {
	cmd := exec.CommandContext(ctx, "git", "apply", "--reverse", "--check", patch)
	cmd.Dir = srcDir
	return cmd.Run() == nil
}

// validatePatches confirms every configured patch is present in the tree.
func validatePatches(ctx context.Context, cfg *config.Configuration) error {
	patches, err := listPatches(cfg.PatchPath())
	if err != nil {
		return err
	}
	for _, patch := range patches {
		if !patchApplied(ctx, cfg.SourcePath(), patch) {
			return fmt.Errorf("patch not present in source tree: %s", filepath.Base(patch))
		}
	}
	return nil
}
