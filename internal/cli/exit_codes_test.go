package cli

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blendforge/blendforge/internal/errors"
)

func TestExitCodeFor(t *testing.T) {
	tests := map[string]struct {
		err  error
		want int
	}{
		"nil is success": {
			err:  nil,
			want: ExitSuccess,
		},
		"action failure preserves subprocess status": {
			err:  &errors.StageFailure{Stage: "build", Kind: errors.ActionFailed, ExitCode: 7},
			want: 7,
		},
		"action failure without status": {
			err:  &errors.StageFailure{Stage: "fetch", Kind: errors.ActionFailed, ExitCode: -1},
			want: ExitActionFailed,
		},
		"validation failure": {
			err:  &errors.StageFailure{Stage: "install", Kind: errors.ValidationFailed},
			want: ExitValidationFailed,
		},
		"validation failure outranks exit status": {
			err:  &errors.StageFailure{Stage: "verify", Kind: errors.ValidationFailed, ExitCode: 9},
			want: ExitValidationFailed,
		},
		"preflight": {
			err:  errors.NewPreflightError("host is amd64"),
			want: ExitPreflightFailed,
		},
		"argument": {
			err:  errors.NewArgumentError("unknown stage"),
			want: ExitInvalidArguments,
		},
		"configuration": {
			err:  errors.NewConfigError("bad yaml"),
			want: ExitInvalidArguments,
		},
		"runtime cli error": {
			err:  errors.NewRuntimeError("lock held"),
			want: ExitRuntime,
		},
		"plain error": {
			err:  stderrors.New("unexpected"),
			want: ExitRuntime,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExitCodeFor(tc.err))
		})
	}
}
