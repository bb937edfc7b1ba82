package stages

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/blendforge/blendforge/internal/config"
	"github.com/blendforge/blendforge/internal/pipeline"
)

func fetchStage(cfg *config.Configuration) pipeline.Stage {
	return pipeline.Stage{
		Key:   "fetch",
		Title: "fetch blender sources",
		Action: func(ctx context.Context, out io.Writer) error {
			return fetchSources(ctx, out, cfg)
		},
		Validate: func(ctx context.Context) error {
			return validateSourceTree(cfg.SourcePath())
		},
	}
}

// fetchSources clones the Blender repository on first run and fast-forwards
// an existing checkout afterwards. Clone and fetch progress stream into the
// stage log so the reporter has something to show during the long transfer.
func fetchSources(ctx context.Context, out io.Writer, cfg *config.Configuration) error {
	srcDir := cfg.SourcePath()

	repo, err := git.PlainOpen(srcDir)
	if err == git.ErrRepositoryNotExists {
		fmt.Fprintf(out, "cloning %s (%s) into %s\n", cfg.GitRemote, cfg.GitRef, srcDir)
		_, cloneErr := git.PlainCloneContext(ctx, srcDir, false, &git.CloneOptions{
			URL:               cfg.GitRemote,
			ReferenceName:     plumbing.NewBranchReferenceName(cfg.GitRef),
			SingleBranch:      true,
			RecurseSubmodules: git.DefaultSubmoduleRecursionDepth,
			Progress:          out,
		})
		if cloneErr != nil {
			return fmt.Errorf("cloning blender: %w", cloneErr)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening source repository: %w", err)
	}

	fmt.Fprintf(out, "updating existing checkout in %s\n", srcDir)
	if err := repo.FetchContext(ctx, &git.FetchOptions{Progress: out}); err != nil &&
		err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("fetching updates: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("opening worktree: %w", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(cfg.GitRef),
		Force:  true,
	}); err != nil {
		return fmt.Errorf("checking out %s: %w", cfg.GitRef, err)
	}
	return nil
}

// validateSourceTree confirms the checkout looks like a Blender source tree,
// not an empty or half-cloned directory.
func validateSourceTree(srcDir string) error {
	if _, err := os.Stat(filepath.Join(srcDir, ".git")); err != nil {
		return fmt.Errorf("%s is not a git checkout", srcDir)
	}
	if _, err := os.Stat(filepath.Join(srcDir, "CMakeLists.txt")); err != nil {
		return fmt.Errorf("%s has no top-level CMakeLists.txt", srcDir)
	}
	return nil
}
