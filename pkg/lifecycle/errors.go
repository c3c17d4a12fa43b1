package lifecycle

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a task failure for the runner's abort/continue logic.
type ErrorKind string

const (
	// KindCheckFailed indicates a missing or wrong-version external
	// dependency (e.g. kubectl not on PATH). Advisory unless the check is
	// marked mandatory; always advisory when the run skips checks.
	KindCheckFailed ErrorKind = "check_failed"

	// KindConfigInvalid indicates persisted or user-supplied config that
	// failed validation. Always fatal; the run aborts before Writing.
	KindConfigInvalid ErrorKind = "config_invalid"

	// KindExternalProcess indicates a post-generation helper command
	// failed. Reported as remediation text, not fatal: it occurs after all
	// output has been written.
	KindExternalProcess ErrorKind = "external_process"

	// KindInternal indicates an unexpected condition in task execution.
	// Always fatal, no partial-phase continuation.
	KindInternal ErrorKind = "internal"
)

// GeneratorError is a classified error carrying the phase and task that
// raised it, so diagnostics can attribute a failed run precisely.
type GeneratorError struct {
	// Kind is the error classification for abort/continue logic.
	Kind ErrorKind `json:"kind"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Phase and Task identify where the error was raised. The runner fills
	// these in; tasks do not need to set them.
	Phase Phase  `json:"phase,omitempty"`
	Task  string `json:"task,omitempty"`

	// Target is the generation target being processed, if applicable.
	Target string `json:"target,omitempty"`

	// Mandatory marks a check whose failure is fatal even though checks
	// are advisory by default. Only meaningful for KindCheckFailed.
	Mandatory bool `json:"mandatory,omitempty"`

	// Remediation is actionable next-steps text shown to the user for
	// external process failures.
	Remediation string `json:"remediation,omitempty"`

	// Err is the underlying error, if any.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *GeneratorError) Error() string {
	if e.Phase != "" && e.Task != "" {
		return fmt.Sprintf("[%s] %s (phase=%s, task=%s)%s",
			e.Kind, e.Message, e.Phase, e.Task, e.unwrapSuffix())
	}
	return fmt.Sprintf("[%s] %s%s", e.Kind, e.Message, e.unwrapSuffix())
}

// Unwrap returns the underlying error for error chain inspection.
func (e *GeneratorError) Unwrap() error {
	return e.Err
}

func (e *GeneratorError) unwrapSuffix() string {
	if e.Err != nil {
		return ": " + e.Err.Error()
	}
	return ""
}

// Is implements error equality for errors.Is: two GeneratorErrors match
// when their kinds match.
func (e *GeneratorError) Is(target error) bool {
	t, ok := target.(*GeneratorError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewCheckFailedError creates an advisory external-dependency error.
func NewCheckFailedError(message string, err error) *GeneratorError {
	return &GeneratorError{Kind: KindCheckFailed, Message: message, Err: err}
}

// NewConfigInvalidError creates an always-fatal configuration error.
func NewConfigInvalidError(message string, err error) *GeneratorError {
	return &GeneratorError{Kind: KindConfigInvalid, Message: message, Err: err}
}

// NewExternalProcessError creates a non-fatal post-generation command error.
func NewExternalProcessError(message string, err error) *GeneratorError {
	return &GeneratorError{Kind: KindExternalProcess, Message: message, Err: err}
}

// NewInternalError creates an always-fatal internal fault.
func NewInternalError(message string, err error) *GeneratorError {
	return &GeneratorError{Kind: KindInternal, Message: message, Err: err}
}

// WithPhase adds phase/task attribution to an error.
func (e *GeneratorError) WithPhase(phase Phase, task string) *GeneratorError {
	e.Phase = phase
	e.Task = task
	return e
}

// WithTarget adds the generation target being processed.
func (e *GeneratorError) WithTarget(target string) *GeneratorError {
	e.Target = target
	return e
}

// AsMandatory marks a check failure as fatal.
func (e *GeneratorError) AsMandatory() *GeneratorError {
	e.Mandatory = true
	return e
}

// WithRemediation attaches next-steps text for the user.
func (e *GeneratorError) WithRemediation(text string) *GeneratorError {
	e.Remediation = text
	return e
}

// IsCheckFailed returns true if the error is a failed dependency check.
func IsCheckFailed(err error) bool {
	var e *GeneratorError
	if errors.As(err, &e) {
		return e.Kind == KindCheckFailed
	}
	return false
}

// IsConfigInvalid returns true if the error is a config validation failure.
func IsConfigInvalid(err error) bool {
	var e *GeneratorError
	if errors.As(err, &e) {
		return e.Kind == KindConfigInvalid
	}
	return false
}

// IsExternalProcess returns true if the error is a failed helper command.
func IsExternalProcess(err error) bool {
	var e *GeneratorError
	if errors.As(err, &e) {
		return e.Kind == KindExternalProcess
	}
	return false
}

// classify wraps an arbitrary task error into a GeneratorError. Errors that
// already carry a classification pass through unchanged; anything else is an
// internal fault.
func classify(err error) *GeneratorError {
	var e *GeneratorError
	if errors.As(err, &e) {
		return e
	}
	return NewInternalError("task failed", err)
}
