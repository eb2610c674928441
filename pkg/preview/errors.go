package preview

import (
	"errors"
	"fmt"
)

// ErrTimeout marks a handler invocation that exceeded the dispatch timeout.
var ErrTimeout = errors.New("handler timed out")

// ValidationError reports a malformed handler registration or malformed
// dispatch input. It fails fast and never reaches a handler.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// HandlerError wraps a failure attributed to a specific handler.
type HandlerError struct {
	Handler   string
	Operation string
	Message   string
	Err       error
}

func (e *HandlerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[handler:%s] %s failed: %s: %v", e.Handler, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("[handler:%s] %s failed: %s", e.Handler, e.Operation, e.Message)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// NewHandlerError creates a HandlerError.
func NewHandlerError(handler, operation, message string, err error) *HandlerError {
	return &HandlerError{
		Handler:   handler,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
