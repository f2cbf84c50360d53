package domain

import "fmt"

// ValidationError signals a precondition or invariant violation. It always
// aborts the in-flight save and is surfaced to the caller verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError signals a referenced record that is missing or cancelled.
// The offending identifier is always part of the message.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s does not exist", e.Kind, e.ID)
}

// ConflictError signals a concurrent-modification failure surfaced by the
// store layer. It is never retried here.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}
