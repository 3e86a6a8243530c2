package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies engine failures by how callers should react.
type ErrorCategory string

const (
	// A risk rule or input check failed. Expected, user-correctable.
	ErrorCategoryValidation ErrorCategory = "VALIDATION"
	// An illegal lifecycle transition was attempted. Indicates a bug or a
	// lost race; logged loudly, surfaced generically.
	ErrorCategoryState ErrorCategory = "STATE"
	// A referenced order or position does not exist.
	ErrorCategoryNotFound ErrorCategory = "NOT_FOUND"
	// A price or persistence dependency is unreachable. Retryable.
	ErrorCategoryExternal ErrorCategory = "EXTERNAL"
)

// Sentinel errors for the lifecycle failures the engine names explicitly.
// Match with errors.Is.
var (
	ErrOrderAlreadyFilled    = errors.New("order already filled")
	ErrOrderAlreadyCancelled = errors.New("order already cancelled")
	ErrInsufficientPosition  = errors.New("insufficient position")
	ErrPriceUnavailable      = errors.New("price unavailable")
	ErrOrderNotFound         = errors.New("order not found")
	ErrPositionNotFound      = errors.New("position not found")
)

// EngineError is a categorized error with component/operation context.
type EngineError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *EngineError) Unwrap() error {
	return e.Underlying
}

// IsRetryable reports whether the operation may be retried; only external
// dependency failures qualify.
func (e *EngineError) IsRetryable() bool {
	return e.Category == ErrorCategoryExternal
}

// New creates a categorized engine error without an underlying cause.
func New(category ErrorCategory, component, operation, message string) *EngineError {
	return &EngineError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
	}
}

// Wrap attaches category and context to an existing error. Returns nil when
// err is nil.
func Wrap(err error, category ErrorCategory, component, operation string) *EngineError {
	if err == nil {
		return nil
	}
	return &EngineError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
	}
}

// NewStateError wraps a lifecycle sentinel with context.
func NewStateError(component, operation string, sentinel error) *EngineError {
	return &EngineError{
		Category:   ErrorCategoryState,
		Component:  component,
		Operation:  operation,
		Message:    "illegal state transition",
		Underlying: sentinel,
	}
}

// NewNotFoundError wraps a not-found sentinel with context.
func NewNotFoundError(component, operation string, sentinel error) *EngineError {
	return &EngineError{
		Category:   ErrorCategoryNotFound,
		Component:  component,
		Operation:  operation,
		Message:    "entity not found",
		Underlying: sentinel,
	}
}

// NewExternalError marks a dependency failure (price source, store).
func NewExternalError(component, operation string, err error) *EngineError {
	return Wrap(err, ErrorCategoryExternal, component, operation)
}

// CategoryOf returns the category of err if it is an EngineError, or a
// best-effort classification from the known sentinels otherwise.
func CategoryOf(err error) ErrorCategory {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Category
	}
	switch {
	case errors.Is(err, ErrOrderAlreadyFilled), errors.Is(err, ErrOrderAlreadyCancelled), errors.Is(err, ErrInsufficientPosition):
		return ErrorCategoryState
	case errors.Is(err, ErrOrderNotFound), errors.Is(err, ErrPositionNotFound):
		return ErrorCategoryNotFound
	case errors.Is(err, ErrPriceUnavailable):
		return ErrorCategoryExternal
	default:
		return ErrorCategoryState
	}
}
