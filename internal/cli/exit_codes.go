package cli

import "github.com/blendforge/blendforge/internal/errors"

// Exit codes for the blendforge CLI. Action failures preserve the failing
// subprocess's own exit status where one exists.
const (
	// ExitSuccess indicates every requested stage reached DONE or SKIPPED.
	ExitSuccess = 0

	// ExitActionFailed indicates a stage action failed without a usable
	// subprocess exit status.
	ExitActionFailed = 1

	// ExitValidationFailed indicates an action succeeded but its
	// post-condition check failed.
	ExitValidationFailed = 2

	// ExitPreflightFailed indicates the environment is unsuitable; no stage
	// was attempted.
	ExitPreflightFailed = 3

	// ExitInvalidArguments indicates invalid command arguments.
	ExitInvalidArguments = 4

	// ExitRuntime indicates an internal failure outside any stage action.
	ExitRuntime = 5
)

// ExitCodeFor maps an error returned by Execute to the process exit status.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if sf := errors.AsStageFailure(err); sf != nil {
		if sf.Kind == errors.ValidationFailed {
			return ExitValidationFailed
		}
		// Propagate the original failing status when the action's
		// subprocess provided one.
		if sf.ExitCode > 0 {
			return sf.ExitCode
		}
		return ExitActionFailed
	}

	if cliErr := errors.AsCLIError(err); cliErr != nil {
		switch cliErr.Category {
		case errors.Preflight:
			return ExitPreflightFailed
		case errors.Argument, errors.Configuration:
			return ExitInvalidArguments
		}
	}
	return ExitRuntime
}
