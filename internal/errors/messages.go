package errors

import "fmt"

// stageRemediation maps stage keys to remediation suggestions shown by the
// failure report. This is a static catalog keyed by stage identity, not
// derived from the failure itself.
var stageRemediation = map[string][]string{
	"packages": {
		"Check apt sources are reachable: sudo apt-get update",
		"Re-run with: blendforge run packages --force",
	},
	"fetch": {
		"Check network access to projects.blender.org",
		"Remove a corrupt checkout and retry: blendforge run fetch --force",
	},
	"patch": {
		"Inspect rejected hunks in the source tree (*.rej)",
		"Re-fetch pristine sources first: blendforge run fetch --force",
	},
	"deps": {
		"Dependency builds are disk and memory hungry; check free space with: df -h",
		"Retry the stage: blendforge run deps --force",
	},
	"build": {
		"Scan the log tail above for the first 'error:' from the compiler",
		"A stale CMake cache can poison builds; force the stage to reconfigure: blendforge run build --force",
	},
	"install": {
		"Check the install prefix is writable",
		"Re-run the build stage if the build tree is incomplete: blendforge run build --force",
	},
	"verify": {
		"Run the installed binary by hand: blender -b --factory-startup",
		"CUDA device detection failures usually mean a driver/toolkit mismatch; check: nvidia-smi",
	},
}

// validationRemediation is appended for validation failures on any stage:
// the command exited zero but the expected post-state is missing.
var validationRemediation = []string{
	"The stage command reported success but its expected output is missing or incomplete",
	"Inspect the full stage log with: blendforge logs <stage>",
}

// StageRemediation returns the remediation suggestions for a stage failure.
// Unknown stages get only the generic validation guidance where applicable.
func StageRemediation(stage string, kind FailureKind) []string {
	steps := stageRemediation[stage]
	if kind == ValidationFailed {
		steps = append(append([]string{}, steps...), validationRemediation...)
	}
	return steps
}

// UnknownStage creates an error for a stage key not present in the registry.
func UnknownStage(key string, known []string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("unknown stage: %s", key),
		"blendforge run [stage]",
		fmt.Sprintf("Valid stages in order: %v", known),
		"Omit the stage argument to run the full pipeline",
	)
}

// ConfigParseError creates an error for an invalid config file.
func ConfigParseError(path string, err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		fmt.Sprintf("failed to parse config file: %s", path),
		"Check the file for YAML syntax errors",
		"Remove the file to fall back to built-in defaults",
	)
}

// RunLocked creates an error when another pipeline run holds the lock.
func RunLocked(pid int) *CLIError {
	return NewRuntimeError(
		fmt.Sprintf("another blendforge run is active (pid %d)", pid),
		"Wait for the other run to finish",
		"If the process is gone, remove .blendforge/run.lock and retry",
	)
}

// CleanWhileRunning creates an error when clean is requested mid-run.
func CleanWhileRunning(pid int) *CLIError {
	return NewRuntimeError(
		fmt.Sprintf("refusing to clean while a run is active (pid %d)", pid),
		"Wait for the active run to finish, then re-run: blendforge clean",
	)
}
