// Package errors defines the structured error taxonomy used across the
// simulation engine. Every error the dispatcher can surface to a caller
// carries a type and a stable code so handlers can map it to an HTTP
// status without string matching.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeRateLimit  ErrorType = "rate_limit"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// PatternError is a structured error type with context.
type PatternError struct {
	Type    ErrorType
	Code    string
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *PatternError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("[%s] %s", e.Code, msg)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause error.
func (e *PatternError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison by type and code.
func (e *PatternError) Is(target error) bool {
	var t *PatternError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}
	return false
}

// WithContext adds context information to the error.
func (e *PatternError) WithContext(key string, value interface{}) *PatternError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *PatternError {
	return &PatternError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
	}
}

// NewNotFoundError creates a not-found error.
func NewNotFoundError(code, message string) *PatternError {
	return &PatternError{
		Type:    ErrorTypeNotFound,
		Code:    code,
		Message: message,
	}
}

// NewRateLimitError creates a rate-limit error.
func NewRateLimitError(code, message string) *PatternError {
	return &PatternError{
		Type:    ErrorTypeRateLimit,
		Code:    code,
		Message: message,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *PatternError {
	return &PatternError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *PatternError {
	return &PatternError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Common error codes.
const (
	ErrCodeMissingFields   = "ERR_MISSING_FIELDS"
	ErrCodePatternNotFound = "ERR_PATTERN_NOT_FOUND"
	ErrCodeUnknownAction   = "ERR_UNKNOWN_ACTION"
	ErrCodeMissingParam    = "ERR_MISSING_PARAM"
	ErrCodeInvalidParam    = "ERR_INVALID_PARAM"
	ErrCodeConfigInvalid   = "ERR_CONFIG_INVALID"
	ErrCodeInternal        = "ERR_INTERNAL"
)

// ErrMissingFields is returned when a dispatch request omits required fields.
func ErrMissingFields() *PatternError {
	return NewValidationError(ErrCodeMissingFields, "Missing required fields")
}

// ErrPatternNotFound is returned when (category, slug) resolves to nothing.
func ErrPatternNotFound(category, slug string) *PatternError {
	return NewNotFoundError(ErrCodePatternNotFound, "Demo not found").
		WithContext("category", category).
		WithContext("slug", slug)
}

// ErrUnknownAction is returned when a known pattern receives an
// unsupported action name.
func ErrUnknownAction(action string) *PatternError {
	return NewValidationError(ErrCodeUnknownAction, "Unknown action: "+action)
}

// ErrMissingParam is returned when an action is missing a required parameter.
func ErrMissingParam(key string) *PatternError {
	return NewValidationError(ErrCodeMissingParam, "Missing required parameter: "+key)
}

// ErrInvalidParam is returned when a parameter has the wrong shape.
func ErrInvalidParam(key, reason string) *PatternError {
	return NewValidationError(
		ErrCodeInvalidParam,
		fmt.Sprintf("Invalid parameter %q: %s", key, reason),
	)
}

// IsNotFound checks if an error is a not-found error.
func IsNotFound(err error) bool {
	var pe *PatternError
	if errors.As(err, &pe) {
		return pe.Type == ErrorTypeNotFound
	}
	return false
}

// IsValidation checks if an error is a client input error.
func IsValidation(err error) bool {
	var pe *PatternError
	if errors.As(err, &pe) {
		return pe.Type == ErrorTypeValidation
	}
	return false
}

// IsRateLimit checks if an error is rate-limit related.
func IsRateLimit(err error) bool {
	var pe *PatternError
	if errors.As(err, &pe) {
		return pe.Type == ErrorTypeRateLimit
	}
	return false
}
