// Package pipeline implements the checkpointed step engine: an ordered stage
// registry, a runner with at-most-once completion semantics per stage,
// downstream invalidation on forced re-runs, and the end-of-run summary.
//
// Stages form a single total order, never a graph, and exactly one stage
// executes at a time. The done-set is therefore always a prefix of the order:
// invalidation clears a contiguous suffix and completion extends the prefix.
package pipeline

import (
	"context"
	"fmt"
	"io"
)

// Action is the opaque operation a stage performs. It streams its output
// into log as it runs and returns an error on non-success; subprocess-backed
// actions surface the exit status through the error chain.
type Action func(ctx context.Context, log io.Writer) error

// Validator is the opaque post-condition check confirming an action's effect
// actually took hold. It returns nil on pass or an error carrying a
// human-readable reason. A zero exit from the action is not trusted on its
// own: the validator is what separates "the command exited zero" from "the
// expected post-state exists".
type Validator func(ctx context.Context) error

// Stage is one ordered unit of the pipeline. Stages are immutable, defined
// once at process start.
type Stage struct {
	// Key is the unique stage identity used for checkpoints, logs, and CLI
	// selection.
	Key string
	// Title is the human-readable stage name shown by progress and summary.
	Title string
	// Action performs the stage's work.
	Action Action
	// Validate checks the stage's post-condition after a successful action.
	Validate Validator
}

// Registry is the static ordered catalog of stages. Position in the order
// defines "downstream".
type Registry struct {
	stages []Stage
	index  map[string]int
}

// NewRegistry builds a Registry from stages in execution order.
func NewRegistry(stages []Stage) (*Registry, error) {
	index := make(map[string]int, len(stages))
	for i, st := range stages {
		if st.Key == "" {
			return nil, fmt.Errorf("stage at position %d has no key", i)
		}
		if _, dup := index[st.Key]; dup {
			return nil, fmt.Errorf("duplicate stage key: %s", st.Key)
		}
		if st.Action == nil || st.Validate == nil {
			return nil, fmt.Errorf("stage %s missing action or validator", st.Key)
		}
		index[st.Key] = i
	}
	return &Registry{stages: stages, index: index}, nil
}

// Stages returns all stages in execution order.
func (r *Registry) Stages() []Stage {
	return r.stages
}

// Get returns the stage with the given key.
func (r *Registry) Get(key string) (Stage, bool) {
	i, ok := r.index[key]
	if !ok {
		return Stage{}, false
	}
	return r.stages[i], true
}

// Index returns a stage's position in the total order.
func (r *Registry) Index(key string) (int, bool) {
	i, ok := r.index[key]
	return i, ok
}

// Downstream returns every stage strictly after key in the total order.
func (r *Registry) Downstream(key string) []Stage {
	i, ok := r.index[key]
	if !ok {
		return nil
	}
	return r.stages[i+1:]
}

// Keys returns the stage keys in execution order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.stages))
	for i, st := range r.stages {
		keys[i] = st.Key
	}
	return keys
}
