package optimization

import (
	"errors"
	"fmt"

	"github.com/copyleftdev/brainwall/internal/problem"
)

// Error is returned when a strategy cannot be set up or run, for example
// because the pose does not match the figure.
type Error struct {
	// Message describes the error that occurred.
	Message string
	// Op is the operation that caused the error.
	Op string
	// Component is the component where the error occurred.
	Component string
	// Err is the underlying error that triggered this one, if any.
	Err error
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var prefix string
	if e.Component != "" && e.Op != "" {
		prefix = fmt.Sprintf("%s: %s", e.Component, e.Op)
	} else if e.Component != "" {
		prefix = e.Component
	} else if e.Op != "" {
		prefix = e.Op
	}

	if e.Err != nil {
		if prefix != "" {
			return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	if prefix != "" {
		return fmt.Sprintf("%s: %s", prefix, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WithOperation adds operation context to the error.
func (e *Error) WithOperation(op string) *Error {
	e.Op = op
	return e
}

// WithComponent adds component context to the error.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// NewError creates a new optimization error with the given message.
func NewError(message string) *Error {
	return &Error{
		Message: message,
	}
}

// NewErrorf creates a new optimization error with formatted message.
func NewErrorf(format string, args ...interface{}) *Error {
	return &Error{
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError wraps an existing error with additional context.
// If err is nil, WrapError returns nil.
func WrapError(err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Message: message,
		Err:     err,
	}
}

// IsOptimizationError reports whether err's chain holds an *Error and
// returns the first one found.
func IsOptimizationError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// invalidInput wraps a validation failure raised while constructing component.
func invalidInput(component string, err error) *Error {
	return WrapError(err, "invalid input").WithComponent(component).WithOperation("new")
}

// InvalidInput validates p and pose and returns an *Error naming component
// when either is malformed.
func InvalidInput(component string, p *problem.Problem, pose *problem.Pose) error {
	if p == nil {
		return NewError("problem is nil").WithComponent(component).WithOperation("new")
	}
	if err := p.Validate(); err != nil {
		return invalidInput(component, err)
	}
	if err := p.ValidatePose(pose); err != nil {
		return invalidInput(component, err)
	}
	return nil
}
