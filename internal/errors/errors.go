// Package errors provides structured error handling for the blendforge CLI.
// It includes categorized errors with actionable remediation guidance and the
// stage-failure report emitted by the top-level failure boundary.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory represents the type of error that occurred.
type ErrorCategory int

const (
	// Argument errors are caused by invalid or missing command arguments.
	Argument ErrorCategory = iota
	// Configuration errors are caused by invalid or missing configuration.
	Configuration
	// Preflight errors mean the host environment is unsuitable; no stage was attempted.
	Preflight
	// Action errors mean a stage's action itself reported non-success.
	Action
	// Validation errors mean an action reported success but its post-condition
	// check failed. Treated as more severe than Action: it indicates silent
	// partial failure (e.g. a zero exit with no binary produced).
	Validation
	// Runtime errors occur during command execution outside a stage action.
	Runtime
)

// String returns a human-readable name for the error category.
func (c ErrorCategory) String() string {
	switch c {
	case Argument:
		return "Argument Error"
	case Configuration:
		return "Configuration Error"
	case Preflight:
		return "Preflight Error"
	case Action:
		return "Stage Failure"
	case Validation:
		return "Validation Failure"
	case Runtime:
		return "Runtime Error"
	default:
		return "Error"
	}
}

// CLIError is a structured error with category and remediation guidance.
type CLIError struct {
	// Category is the type of error (Argument, Preflight, etc.)
	Category ErrorCategory
	// Message is a human-readable description of what went wrong.
	Message string
	// Remediation is a list of actionable steps to resolve the error.
	Remediation []string
	// Usage shows the correct command syntax (optional, for argument errors).
	Usage string
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	return e.Message
}

// NewArgumentError creates a new argument error with remediation steps.
func NewArgumentError(message string, remediation ...string) *CLIError {
	return &CLIError{
		Category:    Argument,
		Message:     message,
		Remediation: remediation,
	}
}

// NewArgumentErrorWithUsage creates an argument error that includes correct usage syntax.
func NewArgumentErrorWithUsage(message, usage string, remediation ...string) *CLIError {
	return &CLIError{
		Category:    Argument,
		Message:     message,
		Usage:       usage,
		Remediation: remediation,
	}
}

// NewConfigError creates a new configuration error.
func NewConfigError(message string, remediation ...string) *CLIError {
	return &CLIError{
		Category:    Configuration,
		Message:     message,
		Remediation: remediation,
	}
}

// NewPreflightError creates an error for a failed fatal preflight check.
func NewPreflightError(message string, remediation ...string) *CLIError {
	return &CLIError{
		Category:    Preflight,
		Message:     message,
		Remediation: remediation,
	}
}

// NewRuntimeError creates a new runtime error.
func NewRuntimeError(message string, remediation ...string) *CLIError {
	return &CLIError{
		Category:    Runtime,
		Message:     message,
		Remediation: remediation,
	}
}

// Wrap wraps an existing error with a CLIError, preserving the original message.
func Wrap(err error, category ErrorCategory, remediation ...string) *CLIError {
	if err == nil {
		return nil
	}
	return &CLIError{
		Category:    category,
		Message:     err.Error(),
		Remediation: remediation,
	}
}

// WrapWithMessage wraps an error with a custom message and category.
func WrapWithMessage(err error, category ErrorCategory, message string, remediation ...string) *CLIError {
	if err == nil {
		return nil
	}
	return &CLIError{
		Category:    category,
		Message:     fmt.Sprintf("%s: %v", message, err),
		Remediation: remediation,
	}
}

// AsCLIError attempts to convert an error to a CLIError.
// Returns nil if no CLIError is found in the chain.
func AsCLIError(err error) *CLIError {
	var cliErr *CLIError
	if stderrors.As(err, &cliErr) {
		return cliErr
	}
	return nil
}

// FailureKind distinguishes how a stage run failed.
type FailureKind int

const (
	// ActionFailed means the stage's action exited non-success.
	ActionFailed FailureKind = iota
	// ValidationFailed means the action succeeded but the post-condition
	// validator rejected the result.
	ValidationFailed
)

// String returns a human-readable name for the failure kind.
func (k FailureKind) String() string {
	if k == ValidationFailed {
		return "validation failed"
	}
	return "action failed"
}

// StageFailure carries everything the failure boundary needs to report a
// failed stage: identity, exit status, and where its captured output lives.
// The original failure is preserved via Unwrap so callers can still inspect it.
type StageFailure struct {
	// Stage is the key of the failing stage.
	Stage string
	// Title is the stage's human-readable title.
	Title string
	// Kind is ActionFailed or ValidationFailed.
	Kind FailureKind
	// ExitCode is the action's exit status (0 for validation failures,
	// -1 when no subprocess exit status is available).
	ExitCode int
	// Reason is the validator's rejection reason (validation failures only).
	Reason string
	// LogPath is the stage's captured output log, retained for post-mortem.
	LogPath string
	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (f *StageFailure) Error() string {
	if f.Kind == ValidationFailed {
		return fmt.Sprintf("stage %s: validation failed: %s", f.Stage, f.Reason)
	}
	return fmt.Sprintf("stage %s: %v", f.Stage, f.Err)
}

// Unwrap returns the underlying failure.
func (f *StageFailure) Unwrap() error {
	return f.Err
}

// AsStageFailure attempts to convert an error to a StageFailure.
// Returns nil if no StageFailure is found in the chain.
func AsStageFailure(err error) *StageFailure {
	var sf *StageFailure
	if stderrors.As(err, &sf) {
		return sf
	}
	return nil
}
