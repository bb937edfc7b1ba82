package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blendforge/blendforge/internal/buildlog"
	"github.com/blendforge/blendforge/internal/checkpoint"
	"github.com/blendforge/blendforge/internal/errors"
	"github.com/blendforge/blendforge/internal/progress"
)

// fakeStage counts invocations and returns configured errors, standing in for
// a real stage's subprocess work.
type fakeStage struct {
	actionCalls   int
	validateCalls int
	actionErr     error
	validateErr   error
	actionFn      func(ctx context.Context, log io.Writer) error
}

func (f *fakeStage) stage(key string) Stage {
	return Stage{
		Key:   key,
		Title: key,
		Action: func(ctx context.Context, log io.Writer) error {
			f.actionCalls++
			if f.actionFn != nil {
				return f.actionFn(ctx, log)
			}
			return f.actionErr
		},
		Validate: func(ctx context.Context) error {
			f.validateCalls++
			return f.validateErr
		},
	}
}

// newTestRunner wires a Runner over a temp build root with a silenced
// reporter. Stage order follows the fakes slice.
func newTestRunner(t *testing.T, keys []string, fakes map[string]*fakeStage) (*Runner, *checkpoint.DirStore) {
	t.Helper()

	stages := make([]Stage, 0, len(keys))
	for _, key := range keys {
		stages = append(stages, fakes[key].stage(key))
	}
	reg, err := NewRegistry(stages)
	require.NoError(t, err)

	root := t.TempDir()
	store := checkpoint.NewDirStore(root)
	logs := buildlog.NewDir(root)
	reporter := progress.NewReporter(io.Discard, progress.TerminalCapabilities{}, true)
	return NewRunner(reg, store, logs, reporter, false, io.Discard), store
}

func TestRunnerRunAllMarksDoneInOrder(t *testing.T) {
	fakes := map[string]*fakeStage{"a": {}, "b": {}, "c": {}}
	runner, store := newTestRunner(t, []string{"a", "b", "c"}, fakes)

	require.NoError(t, runner.RunAll(context.Background(), false))

	for key, f := range fakes {
		assert.Equal(t, 1, f.actionCalls, key)
		assert.Equal(t, 1, f.validateCalls, key)
		done, err := store.IsDone(key)
		require.NoError(t, err)
		assert.True(t, done, key)
		assert.Equal(t, OutcomeSucceeded, runner.Records()[key].Outcome, key)
	}
}

func TestRunnerSkipsCompletedStage(t *testing.T) {
	fakes := map[string]*fakeStage{"a": {}, "b": {}}
	runner, store := newTestRunner(t, []string{"a", "b"}, fakes)
	require.NoError(t, store.MarkDone("a"))

	require.NoError(t, runner.RunAll(context.Background(), false))

	assert.Equal(t, 0, fakes["a"].actionCalls, "completed stage must not re-run")
	assert.Equal(t, 0, fakes["a"].validateCalls, "completed stage must not re-validate")
	assert.Equal(t, 1, fakes["b"].actionCalls)

	rec := runner.Records()["a"]
	assert.Equal(t, OutcomeSkipped, rec.Outcome)
	assert.Zero(t, rec.Duration, "skipped stages report no duration")
}

func TestRunnerSecondRunIsAllCached(t *testing.T) {
	fakes := map[string]*fakeStage{"a": {}, "b": {}}
	runner, store := newTestRunner(t, []string{"a", "b"}, fakes)

	require.NoError(t, runner.RunAll(context.Background(), false))

	// Fresh runner over the same store, as a second process invocation.
	fakes2 := map[string]*fakeStage{"a": {}, "b": {}}
	stages := []Stage{fakes2["a"].stage("a"), fakes2["b"].stage("b")}
	reg, err := NewRegistry(stages)
	require.NoError(t, err)
	logs := buildlog.NewDir(t.TempDir())
	reporter := progress.NewReporter(io.Discard, progress.TerminalCapabilities{}, true)
	runner2 := NewRunner(reg, store, logs, reporter, false, io.Discard)

	require.NoError(t, runner2.RunAll(context.Background(), false))
	assert.Equal(t, 0, fakes2["a"].actionCalls)
	assert.Equal(t, 0, fakes2["b"].actionCalls)
	assert.Equal(t, OutcomeSkipped, runner2.Records()["a"].Outcome)
	assert.Equal(t, OutcomeSkipped, runner2.Records()["b"].Outcome)
}

func TestRunnerActionFailureStopsPipeline(t *testing.T) {
	fakes := map[string]*fakeStage{
		"a": {},
		"b": {actionErr: fmt.Errorf("compile exploded")},
		"c": {},
	}
	runner, store := newTestRunner(t, []string{"a", "b", "c"}, fakes)

	err := runner.RunAll(context.Background(), false)
	require.Error(t, err)

	sf := errors.AsStageFailure(err)
	require.NotNil(t, sf)
	assert.Equal(t, "b", sf.Stage)
	assert.Equal(t, errors.ActionFailed, sf.Kind)

	// No checkpoint for the failed stage, validator never consulted,
	// later stages never attempted.
	done, err2 := store.IsDone("b")
	require.NoError(t, err2)
	assert.False(t, done)
	assert.Equal(t, 0, fakes["b"].validateCalls)
	assert.Equal(t, 0, fakes["c"].actionCalls)
	assert.Equal(t, OutcomeNotAttempted, runner.Records()["c"].Outcome)
}

func TestRunnerValidationFailureLeavesNoCheckpoint(t *testing.T) {
	fakes := map[string]*fakeStage{
		"a": {validateErr: fmt.Errorf("binary missing")},
	}
	runner, store := newTestRunner(t, []string{"a"}, fakes)

	err := runner.RunAll(context.Background(), false)
	require.Error(t, err)

	sf := errors.AsStageFailure(err)
	require.NotNil(t, sf)
	assert.Equal(t, errors.ValidationFailed, sf.Kind)
	assert.Equal(t, "binary missing", sf.Reason)

	done, err2 := store.IsDone("a")
	require.NoError(t, err2)
	assert.False(t, done, "a failing validator must not leave a checkpoint")

	// A later un-forced run re-attempts the stage.
	fakes["a"].validateErr = nil
	require.NoError(t, runner.RunOne(context.Background(), "a", false))
	assert.Equal(t, 2, fakes["a"].actionCalls)
}

func TestRunnerPlaceholderArtifactFailsValidation(t *testing.T) {
	// A fetch stage that leaves a 131-byte placeholder completes and
	// checkpoints; a verify stage demanding a real artifact (>1024 bytes)
	// fails validation, leaving no verify checkpoint.
	root := t.TempDir()
	artifact := filepath.Join(root, "artifact")

	fakes := map[string]*fakeStage{"fetch": {}, "verify": {}}
	fakes["fetch"].actionFn = func(ctx context.Context, log io.Writer) error {
		return os.WriteFile(artifact, make([]byte, 131), 0o644)
	}
	stages := []Stage{
		fakes["fetch"].stage("fetch"),
		{
			Key:   "verify",
			Title: "verify",
			Action: func(ctx context.Context, log io.Writer) error {
				fakes["verify"].actionCalls++
				return nil
			},
			Validate: func(ctx context.Context) error {
				info, err := os.Stat(artifact)
				if err != nil {
					return err
				}
				if info.Size() <= 1024 {
					return fmt.Errorf("artifact too small: %d bytes", info.Size())
				}
				return nil
			},
		},
	}
	reg, err := NewRegistry(stages)
	require.NoError(t, err)
	store := checkpoint.NewDirStore(root)
	reporter := progress.NewReporter(io.Discard, progress.TerminalCapabilities{}, true)
	runner := NewRunner(reg, store, buildlog.NewDir(root), reporter, false, io.Discard)

	err = runner.RunAll(context.Background(), false)
	require.Error(t, err)

	sf := errors.AsStageFailure(err)
	require.NotNil(t, sf)
	assert.Equal(t, "verify", sf.Stage)
	assert.Equal(t, errors.ValidationFailed, sf.Kind)

	fetchDone, err2 := store.IsDone("fetch")
	require.NoError(t, err2)
	assert.True(t, fetchDone, "fetch validated and stays done")

	verifyDone, err3 := store.IsDone("verify")
	require.NoError(t, err3)
	assert.False(t, verifyDone)
}

func TestRunnerForceInvalidatesDownstreamBeforeAction(t *testing.T) {
	var downstreamDoneAtActionTime bool
	fakes := map[string]*fakeStage{"a": {}, "b": {}, "c": {}, "d": {}}
	runner, store := newTestRunner(t, []string{"a", "b", "c", "d"}, fakes)

	for _, key := range []string{"a", "b", "c", "d"} {
		require.NoError(t, store.MarkDone(key))
	}

	fakes["b"].actionFn = func(ctx context.Context, log io.Writer) error {
		done, _ := store.IsDone("c")
		downstreamDoneAtActionTime = done
		return nil
	}

	require.NoError(t, runner.RunOne(context.Background(), "b", true))

	assert.Equal(t, 1, fakes["b"].actionCalls, "forced stage runs even though it was done")
	assert.False(t, downstreamDoneAtActionTime,
		"downstream checkpoints must be cleared before the forced action starts")

	// Upstream untouched, forced stage re-completed, downstream pending.
	want := map[string]bool{"a": true, "b": true, "c": false, "d": false}
	for key, wantDone := range want {
		done, err := store.IsDone(key)
		require.NoError(t, err)
		assert.Equal(t, wantDone, done, key)
	}
}

func TestRunnerForcedFailureClearsOwnCheckpoint(t *testing.T) {
	fakes := map[string]*fakeStage{"a": {actionErr: fmt.Errorf("boom")}, "b": {}}
	runner, store := newTestRunner(t, []string{"a", "b"}, fakes)
	require.NoError(t, store.MarkDone("a"))
	require.NoError(t, store.MarkDone("b"))

	require.Error(t, runner.RunOne(context.Background(), "a", true))

	// The forced stage's own checkpoint was cleared before the action, so a
	// failed forced run leaves it pending, not stale-done.
	for _, key := range []string{"a", "b"} {
		done, err := store.IsDone(key)
		require.NoError(t, err)
		assert.False(t, done, key)
	}
}

func TestRunnerRunAllForceRunsEverythingFresh(t *testing.T) {
	fakes := map[string]*fakeStage{"a": {}, "b": {}}
	runner, store := newTestRunner(t, []string{"a", "b"}, fakes)
	require.NoError(t, store.MarkDone("a"))
	require.NoError(t, store.MarkDone("b"))

	require.NoError(t, runner.RunAll(context.Background(), true))

	assert.Equal(t, 1, fakes["a"].actionCalls)
	assert.Equal(t, 1, fakes["b"].actionCalls)
}

func TestRunnerRunOneUnknownStage(t *testing.T) {
	runner, _ := newTestRunner(t, []string{"a"}, map[string]*fakeStage{"a": {}})

	err := runner.RunOne(context.Background(), "nope", false)
	require.Error(t, err)
	cliErr := errors.AsCLIError(err)
	require.NotNil(t, cliErr)
	assert.Equal(t, errors.Argument, cliErr.Category)
}

func TestRunnerInterruptLeavesNoCheckpoint(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fakes := map[string]*fakeStage{"a": {}}
	fakes["a"].actionFn = func(ctx context.Context, log io.Writer) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	}
	runner, store := newTestRunner(t, []string{"a"}, fakes)

	err := runner.RunOne(ctx, "a", false)
	require.Error(t, err)

	done, err2 := store.IsDone("a")
	require.NoError(t, err2)
	assert.False(t, done, "an interrupted stage must not be checkpointed")
}

func TestRunnerPreservesSubprocessExitStatus(t *testing.T) {
	fakes := map[string]*fakeStage{"a": {}}
	fakes["a"].actionFn = func(ctx context.Context, log io.Writer) error {
		cmd := exec.CommandContext(ctx, "sh", "-c", "exit 7")
		cmd.Stdout = log
		cmd.Stderr = log
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("sh: %w", err)
		}
		return nil
	}
	runner, _ := newTestRunner(t, []string{"a"}, fakes)

	err := runner.RunOne(context.Background(), "a", false)
	require.Error(t, err)

	sf := errors.AsStageFailure(err)
	require.NotNil(t, sf)
	assert.Equal(t, 7, sf.ExitCode)
}

func TestRunnerCapturesActionOutputToLog(t *testing.T) {
	root := t.TempDir()
	fakes := map[string]*fakeStage{"a": {}}
	fakes["a"].actionFn = func(ctx context.Context, log io.Writer) error {
		fmt.Fprintln(log, "configuring sources")
		return nil
	}
	reg, err := NewRegistry([]Stage{fakes["a"].stage("a")})
	require.NoError(t, err)
	logs := buildlog.NewDir(root)
	store := checkpoint.NewDirStore(root)
	reporter := progress.NewReporter(io.Discard, progress.TerminalCapabilities{}, true)
	runner := NewRunner(reg, store, logs, reporter, false, io.Discard)

	require.NoError(t, runner.RunOne(context.Background(), "a", false))

	data, err := os.ReadFile(logs.Path("a"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "configuring sources")
	// Each line carries a [HH:MM:SS] stamp.
	assert.Regexp(t, `^\[\d{2}:\d{2}:\d{2}\] `, string(data))
}

func TestRunnerRecordsDuration(t *testing.T) {
	fakes := map[string]*fakeStage{"a": {}}
	fakes["a"].actionFn = func(ctx context.Context, log io.Writer) error {
		time.Sleep(20 * time.Millisecond)
		return nil
	}
	runner, _ := newTestRunner(t, []string{"a"}, fakes)

	require.NoError(t, runner.RunOne(context.Background(), "a", false))
	assert.GreaterOrEqual(t, runner.Records()["a"].Duration, 20*time.Millisecond)
}
