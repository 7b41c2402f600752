package errors

import (
	stderrors "errors"
	"fmt"
)

// ClassifiedError represents a structured error with category, severity, and context.
type ClassifiedError struct {
	category ErrorCategory
	severity ErrorSeverity
	retry    RetryStrategy
	message  string
	cause    error
	context  ErrorContext
}

// Error implements the standard error interface.
func (e *ClassifiedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.category, e.severity, e.message, e.cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.category, e.severity, e.message)
}

// Unwrap implements Go 1.13+ error unwrapping.
func (e *ClassifiedError) Unwrap() error {
	return e.cause
}

// Category returns the error category.
func (e *ClassifiedError) Category() ErrorCategory {
	return e.category
}

// Severity returns the error severity.
func (e *ClassifiedError) Severity() ErrorSeverity {
	return e.severity
}

// RetryStrategy returns the recommended retry strategy.
func (e *ClassifiedError) RetryStrategy() RetryStrategy {
	return e.retry
}

// Message returns the error message.
func (e *ClassifiedError) Message() string {
	return e.message
}

// Context returns the error context.
func (e *ClassifiedError) Context() ErrorContext {
	return e.context
}

// WithContext returns a copy of the error with an extra context value.
func (e *ClassifiedError) WithContext(key string, value any) *ClassifiedError {
	ctx := make(ErrorContext, len(e.context)+1)
	for k, v := range e.context {
		ctx[k] = v
	}
	ctx[key] = value
	return &ClassifiedError{
		category: e.category,
		severity: e.severity,
		retry:    e.retry,
		message:  e.message,
		cause:    e.cause,
		context:  ctx,
	}
}

// Is matches another ClassifiedError with the same category and message.
func (e *ClassifiedError) Is(target error) bool {
	if other, ok := target.(*ClassifiedError); ok {
		return e.category == other.category && e.message == other.message
	}
	return false
}

// CanRetry checks if the error allows retry operations.
func (e *ClassifiedError) CanRetry() bool {
	return e.retry == RetryBackoff || e.retry == RetryRateLimit
}

// AsClassified finds the first ClassifiedError in the error chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var classified *ClassifiedError
	if stderrors.As(err, &classified) {
		return classified, true
	}
	return nil, false
}

// HasCategory checks if any error in the chain belongs to a category.
func HasCategory(err error, category ErrorCategory) bool {
	if classified, ok := AsClassified(err); ok {
		return classified.category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal.
func GetCategory(err error) ErrorCategory {
	if classified, ok := AsClassified(err); ok {
		return classified.Category()
	}
	return CategoryInternal
}

// IsRetryable reports whether err carries a retryable strategy.
func IsRetryable(err error) bool {
	if classified, ok := AsClassified(err); ok {
		return classified.CanRetry()
	}
	return false
}
