package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/blendforge/blendforge/internal/buildlog"
	"github.com/blendforge/blendforge/internal/checkpoint"
	"github.com/blendforge/blendforge/internal/errors"
	"github.com/blendforge/blendforge/internal/progress"
)

// Runner drives stages through their per-invocation state machine:
//
//	PENDING -> SKIPPED
//	        -> RUNNING -> ACTION_FAILED
//	                   -> VALIDATING -> VALIDATION_FAILED
//	                                 -> DONE
//
// The Runner is the only component that mutates the checkpoint store, and it
// does so at exactly two points: MarkDone after a passing validator, and
// Clear when a forced re-run invalidates state. No checkpoint mutation is
// held open across a blocking operation, so partial writes cannot be
// observed mid-stage.
type Runner struct {
	reg      *Registry
	store    checkpoint.Store
	logs     *buildlog.Dir
	reporter *progress.Reporter

	// verbose streams action output to out in addition to the stage log and
	// disables the progress reporter's repaint behavior.
	verbose bool
	out     io.Writer

	records map[string]*Record
}

// NewRunner creates a Runner. All stages it is asked to run must come from
// reg.
func NewRunner(reg *Registry, store checkpoint.Store, logs *buildlog.Dir,
	reporter *progress.Reporter, verbose bool, out io.Writer) *Runner {
	records := make(map[string]*Record, len(reg.Stages()))
	for _, st := range reg.Stages() {
		records[st.Key] = &Record{Stage: st.Key, Outcome: OutcomeNotAttempted}
	}
	return &Runner{
		reg:      reg,
		store:    store,
		logs:     logs,
		reporter: reporter,
		verbose:  verbose,
		out:      out,
		records:  records,
	}
}

// Records returns the per-stage results of this invocation, keyed by stage.
func (r *Runner) Records() map[string]*Record {
	return r.records
}

// RunAll executes every stage in order, stopping at the first failure.
// When force is set the first stage is forced, which invalidates every later
// checkpoint up front; the whole pipeline then runs fresh.
func (r *Runner) RunAll(ctx context.Context, force bool) error {
	for i, st := range r.reg.Stages() {
		if err := r.runStage(ctx, st, force && i == 0); err != nil {
			return err
		}
	}
	return nil
}

// RunOne executes a single stage selected by key.
func (r *Runner) RunOne(ctx context.Context, key string, force bool) error {
	st, ok := r.reg.Get(key)
	if !ok {
		return errors.UnknownStage(key, r.reg.Keys())
	}
	return r.runStage(ctx, st, force)
}

func (r *Runner) runStage(ctx context.Context, st Stage, force bool) error {
	rec := r.records[st.Key]

	if force {
		// Clear this stage's own checkpoint and every downstream one before
		// the action executes. A forced stage is never skipped.
		if err := r.store.Clear(st.Key); err != nil {
			return fmt.Errorf("clearing checkpoint for forced stage %s: %w", st.Key, err)
		}
		if err := InvalidateAfter(r.reg, r.store, st.Key); err != nil {
			return err
		}
	} else {
		done, err := r.store.IsDone(st.Key)
		if err != nil {
			return fmt.Errorf("querying checkpoint for %s: %w", st.Key, err)
		}
		if done {
			// Resumability contract: a completed stage costs O(1) on
			// re-entry; neither action nor validator is invoked.
			rec.Outcome = OutcomeSkipped
			r.reporter.Announce(true, st.Title, "cached")
			return nil
		}
	}

	start := time.Now()
	err := r.execute(ctx, st)
	rec.Duration = time.Since(start)

	if err != nil {
		rec.Outcome = OutcomeFailed
		r.reporter.Announce(false, st.Title, "")
		return err
	}

	// Write-on-success is the only place a checkpoint is created.
	if err := r.store.MarkDone(st.Key); err != nil {
		return fmt.Errorf("recording checkpoint for %s: %w", st.Key, err)
	}
	rec.Outcome = OutcomeSucceeded
	r.reporter.Announce(true, st.Title, rec.Duration.Round(time.Second).String())
	return nil
}

// execute runs the action under the progress reporter, then the validator.
// No checkpoint is written on any failure path.
func (r *Runner) execute(ctx context.Context, st Stage) error {
	logFile, err := r.logs.Create(st.Key)
	if err != nil {
		return fmt.Errorf("opening log for stage %s: %w", st.Key, err)
	}
	defer logFile.Close()

	logw := buildlog.NewTimestampedWriter(logFile)
	var sink io.Writer = logw
	if r.verbose {
		sink = io.MultiWriter(logw, r.out)
	}

	// The reporter owns its repaint goroutine; the action runs synchronously
	// here and shares the stage context, so an interrupt cancels both.
	stop := r.reporter.Watch(ctx, st.Title, r.logs.Path(st.Key))
	actionErr := st.Action(ctx, sink)
	// Stop the reporter before anything else writes to the terminal; a
	// reporter that keeps repainting after the action ends is a bug.
	stop()
	logw.Flush()

	if actionErr != nil {
		return &errors.StageFailure{
			Stage:    st.Key,
			Title:    st.Title,
			Kind:     errors.ActionFailed,
			ExitCode: exitCodeOf(actionErr),
			LogPath:  r.logs.Path(st.Key),
			Err:      actionErr,
		}
	}

	if err := st.Validate(ctx); err != nil {
		return &errors.StageFailure{
			Stage:   st.Key,
			Title:   st.Title,
			Kind:    errors.ValidationFailed,
			Reason:  err.Error(),
			LogPath: r.logs.Path(st.Key),
			Err:     err,
		}
	}
	return nil
}

// exitCodeOf extracts a subprocess exit status from an action error,
// or -1 when none is available.
func exitCodeOf(err error) int {
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
