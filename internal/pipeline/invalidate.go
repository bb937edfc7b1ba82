package pipeline

import (
	"fmt"

	"github.com/blendforge/blendforge/internal/checkpoint"
)

// InvalidateAfter clears the checkpoint of every stage strictly after key in
// the registry's total order, leaving key and all earlier stages untouched.
//
// Re-running an earlier stage may change on-disk state (sources, patch set)
// that later stages assumed was fixed; their checkpoints are no longer
// trustworthy. This must run before the forced stage itself executes, so a
// failure in the forced stage cannot leave downstream checkpoints in a "done
// but premise changed" state. Clearing a stage that was never done is a
// no-op, not an error.
func InvalidateAfter(reg *Registry, store checkpoint.Store, key string) error {
	if _, ok := reg.Index(key); !ok {
		return fmt.Errorf("unknown stage: %s", key)
	}
	for _, st := range reg.Downstream(key) {
		if err := store.Clear(st.Key); err != nil {
			return fmt.Errorf("invalidating stage %s: %w", st.Key, err)
		}
	}
	return nil
}
