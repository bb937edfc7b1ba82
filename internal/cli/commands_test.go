package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blendforge/blendforge/internal/checkpoint"
	"github.com/blendforge/blendforge/internal/errors"
	"github.com/blendforge/blendforge/internal/pipeline"
)

// execute runs the root command with args, capturing combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestStatusEmptyBuildRoot(t *testing.T) {
	root := t.TempDir()

	out, err := execute(t, "status", "--build-root", root)
	require.NoError(t, err)

	assert.Contains(t, out, "Build root: "+root)
	for _, stage := range []string{"packages", "fetch", "patch", "deps", "build", "install", "verify"} {
		assert.Contains(t, out, stage)
	}
	assert.Contains(t, out, "pending")
	assert.NotContains(t, out, "done ")
}

func TestStatusShowsCompletedStages(t *testing.T) {
	root := t.TempDir()
	store := checkpoint.NewDirStore(root)
	require.NoError(t, store.MarkDone("packages"))
	require.NoError(t, store.MarkDone("fetch"))

	out, err := execute(t, "status", "--build-root", root)
	require.NoError(t, err)
	assert.Contains(t, out, "done")
	assert.Contains(t, out, "pending")
}

func TestCleanWithNothingToCleanSucceeds(t *testing.T) {
	out, err := execute(t, "clean", "--build-root", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "Cleaned")
}

func TestCleanRemovesState(t *testing.T) {
	root := t.TempDir()
	store := checkpoint.NewDirStore(root)
	require.NoError(t, store.MarkDone("build"))
	logDir := filepath.Join(root, ".blendforge", "logs")
	require.NoError(t, os.MkdirAll(logDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(logDir, "build.log"), []byte("x\n"), 0o644))

	_, err := execute(t, "clean", "--build-root", root)
	require.NoError(t, err)

	done, err := store.IsDone("build")
	require.NoError(t, err)
	assert.False(t, done)
	_, err = os.Stat(logDir)
	assert.True(t, os.IsNotExist(err))
}

func TestCleanRefusedWhileRunLocked(t *testing.T) {
	root := t.TempDir()
	// This test process holds the lock, so the holder is alive.
	require.NoError(t, pipeline.AcquireLock(root, "run-1"))
	defer pipeline.ReleaseLock(root)

	_, err := execute(t, "clean", "--build-root", root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to clean")
}

func TestLogsUnknownStage(t *testing.T) {
	_, err := execute(t, "logs", "bulid", "--build-root", t.TempDir())
	require.Error(t, err)

	cliErr := errors.AsCLIError(err)
	require.NotNil(t, cliErr)
	assert.Equal(t, errors.Argument, cliErr.Category)
}

func TestLogsPrintsStageLog(t *testing.T) {
	root := t.TempDir()
	logDir := filepath.Join(root, ".blendforge", "logs")
	require.NoError(t, os.MkdirAll(logDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(logDir, "build.log"),
		[]byte("[10:00:00] compiling\n"), 0o644))

	out, err := execute(t, "logs", "build", "--build-root", root)
	require.NoError(t, err)
	assert.Contains(t, out, "compiling")
}

func TestLogsMissingLogFile(t *testing.T) {
	out, err := execute(t, "logs", "build", "--build-root", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No log yet")
}

func TestBenchmarkRequiresInstalledBuild(t *testing.T) {
	root := t.TempDir()

	_, err := execute(t, "benchmark", "--build-root", root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no installed build")

	cliErr := errors.AsCLIError(err)
	require.NotNil(t, cliErr)
	assert.Equal(t, errors.Runtime, cliErr.Category)
	assert.NotEmpty(t, cliErr.Remediation)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "blendforge")
}

func TestRunUnknownStageRejectedBeforeLock(t *testing.T) {
	root := t.TempDir()

	_, err := execute(t, "run", "bulid", "--build-root", root, "--skip-preflight")
	require.Error(t, err)
	cliErr := errors.AsCLIError(err)
	require.NotNil(t, cliErr)
	assert.Equal(t, errors.Argument, cliErr.Category)

	// The bad invocation never took the run lock.
	lock, lockErr := pipeline.CurrentLock(root)
	require.NoError(t, lockErr)
	assert.Nil(t, lock)
}
