package pipeline

import "time"

// Outcome is a stage's result within one pipeline invocation.
type Outcome int

const (
	// OutcomeNotAttempted means the run never reached this stage.
	OutcomeNotAttempted Outcome = iota
	// OutcomeSkipped means a valid checkpoint existed and the stage's action
	// and validator were not invoked.
	OutcomeSkipped
	// OutcomeSucceeded means the action ran and the validator passed.
	OutcomeSucceeded
	// OutcomeFailed means the action or validator failed.
	OutcomeFailed
)

// String returns a human-readable name for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeSucceeded:
		return "completed"
	case OutcomeFailed:
		return "failed"
	default:
		return "not run"
	}
}

// Record tracks one stage's result and timing for the current invocation.
// Records are in-memory only: built by the Runner, consumed by the summary,
// discarded at process exit. Skipped stages keep a zero Duration; the
// distinct Outcome is what separates "cached" from "fast".
type Record struct {
	Stage    string
	Outcome  Outcome
	Duration time.Duration
}
