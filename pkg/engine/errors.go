package engine

import (
	"errors"
	"fmt"
)

// ErrorClass classifies a failure for control-flow decisions. Every failure
// is logged before any decision is made on it: visibility over silence.
type ErrorClass string

const (
	// ErrorClassDetection covers detection ambiguity: no supported package
	// manager or unsupported OS. Always fatal, never worked around.
	ErrorClassDetection ErrorClass = "detection"

	// ErrorClassInstall covers per-package install failures. Isolated,
	// logged as warnings, the batch continues.
	ErrorClassInstall ErrorClass = "install"

	// ErrorClassStep covers step operation failures; the step's declared
	// criticality decides whether the plan continues.
	ErrorClassStep ErrorClass = "step"

	// ErrorClassBackup covers backup copy failures. A warning: the step
	// proceeds without rollback protection for that path.
	ErrorClassBackup ErrorClass = "backup"

	// ErrorClassState covers state store I/O failures. Treated as "not
	// completed", forcing re-execution rather than a silent skip.
	ErrorClassState ErrorClass = "state"
)

// RunError is a classified error with step context.
type RunError struct {
	// Class is the error classification.
	Class ErrorClass

	// Message is the human-readable error message.
	Message string

	// StepID is the step that produced the error, if applicable.
	StepID string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *RunError) Error() string {
	if e.StepID != "" {
		return fmt.Sprintf("[%s] %s (step=%s): %s", e.Class, e.Message, e.StepID, e.unwrapMessage())
	}
	return fmt.Sprintf("[%s] %s: %s", e.Class, e.Message, e.unwrapMessage())
}

// Unwrap returns the underlying error for error chain inspection.
func (e *RunError) Unwrap() error {
	return e.Err
}

func (e *RunError) unwrapMessage() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

// Is implements error equality for errors.Is.
func (e *RunError) Is(target error) bool {
	t, ok := target.(*RunError)
	if !ok {
		return false
	}
	return e.Class == t.Class
}

// WithStep adds step context to an error.
func (e *RunError) WithStep(stepID string) *RunError {
	e.StepID = stepID
	return e
}

// NewDetectionError creates a detection-class error.
func NewDetectionError(message string, err error) *RunError {
	return &RunError{Class: ErrorClassDetection, Message: message, Err: err}
}

// NewStepError creates a step-class error.
func NewStepError(message string, err error) *RunError {
	return &RunError{Class: ErrorClassStep, Message: message, Err: err}
}

// NewBackupError creates a backup-class error.
func NewBackupError(message string, err error) *RunError {
	return &RunError{Class: ErrorClassBackup, Message: message, Err: err}
}

// NewStateError creates a state-class error.
func NewStateError(message string, err error) *RunError {
	return &RunError{Class: ErrorClassState, Message: message, Err: err}
}

// IsDetection reports whether the error is detection-class.
func IsDetection(err error) bool {
	var e *RunError
	if errors.As(err, &e) {
		return e.Class == ErrorClassDetection
	}
	return false
}

// IsStep reports whether the error is step-class.
func IsStep(err error) bool {
	var e *RunError
	if errors.As(err, &e) {
		return e.Class == ErrorClassStep
	}
	return false
}
