package operations

import (
	"fmt"
)

// ErrorType represents the type of a run error
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeExecution    ErrorType = "execution"
	ErrorTypeTimeout      ErrorType = "timeout"
	ErrorTypeCancellation ErrorType = "cancellation"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeInvalidState ErrorType = "invalid_state"
)

// StepError represents a pipeline-specific error
type StepError struct {
	Type    ErrorType              `json:"type"`
	Step    string                 `json:"step,omitempty"`
	Message string                 `json:"message"`
	Cause   error                  `json:"cause,omitempty"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *StepError) Error() string {
	if e == nil {
		return "unknown run error"
	}
	if e.Step != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Type, e.Step, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *StepError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(step, message string) *StepError {
	return &StepError{
		Type:    ErrorTypeValidation,
		Step:    step,
		Message: message,
	}
}

// NewExecutionError creates a new execution error
func NewExecutionError(step string, cause error) *StepError {
	return &StepError{
		Type:    ErrorTypeExecution,
		Step:    step,
		Message: "step execution failed",
		Cause:   cause,
	}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(step string, timeout string) *StepError {
	return &StepError{
		Type:    ErrorTypeTimeout,
		Step:    step,
		Message: fmt.Sprintf("step exceeded timeout of %s", timeout),
		Context: map[string]interface{}{
			"timeout": timeout,
		},
	}
}

// NewCancellationError creates a new cancellation error
func NewCancellationError(step string) *StepError {
	return &StepError{
		Type:    ErrorTypeCancellation,
		Step:    step,
		Message: "run was cancelled",
	}
}

// GetErrorType returns the type of the error
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ""
	}
	if sErr, ok := err.(*StepError); ok {
		return sErr.Type
	}
	return ErrorTypeExecution
}

// WrapError wraps an error with pipeline context
func WrapError(err error, step string, message string) *StepError {
	if err == nil {
		return nil
	}

	// Enhance an existing StepError rather than nesting
	if sErr, ok := err.(*StepError); ok {
		if sErr.Step == "" {
			sErr.Step = step
		}
		if message != "" {
			sErr.Message = fmt.Sprintf("%s: %s", message, sErr.Message)
		}
		return sErr
	}

	return &StepError{
		Type:    ErrorTypeExecution,
		Step:    step,
		Message: message,
		Cause:   err,
	}
}

// Common run errors
var (
	// ErrRunNotFound is returned when a run cannot be found
	ErrRunNotFound = &StepError{
		Type:    ErrorTypeNotFound,
		Message: "run not found",
	}

	// ErrRunNotRunning is returned when cancelling a run that is not active
	ErrRunNotRunning = &StepError{
		Type:    ErrorTypeInvalidState,
		Message: "run is not running",
	}
)
