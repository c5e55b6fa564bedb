// Package errors defines the structured error taxonomy used across the
// categorization and insight engine.
//
// The engine distinguishes four failure modes:
//   - validation errors: malformed input, always surfaced to the caller
//   - service errors: the external categorization call failed, timed out,
//     or exhausted its retry budget; recovered via the rule-based fallback
//   - malformed response errors: the external call returned a structurally
//     invalid payload; recovered the same way but tracked separately
//   - internal errors: guard signals such as empty statistical input that
//     must never escape the component that checks for them
package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory groups errors by how the engine reacts to them
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryService    ErrorCategory = "service"
	CategoryInternal   ErrorCategory = "internal"
	CategoryConfig     ErrorCategory = "configuration"
)

// ErrorCode identifies a specific failure within a category
type ErrorCode string

const (
	// Validation errors
	CodeMissingField    ErrorCode = "missing_field"
	CodeInvalidAmount   ErrorCode = "invalid_amount"
	CodeInvalidCurrency ErrorCode = "invalid_currency"
	CodeInvalidType     ErrorCode = "invalid_type"
	CodeInvalidWindow   ErrorCode = "invalid_window"

	// Service errors (external categorization call)
	CodeServiceUnavailable ErrorCode = "service_unavailable"
	CodeTimeout            ErrorCode = "timeout"
	CodeMalformedResponse  ErrorCode = "malformed_response"

	// Internal errors
	CodeEmptyInput      ErrorCode = "empty_input"
	CodeUnexpectedError ErrorCode = "unexpected_error"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
)

// EngineError is the base error type for all engine errors
type EngineError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context carries additional structured information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *EngineError) WithContext(key string, value interface{}) *EngineError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *EngineError) WithSuggestion(suggestion string) *EngineError {
	e.Suggestion = suggestion
	return e
}

// GetExitCode returns an appropriate process exit code for the error
func (e *EngineError) GetExitCode() int {
	switch e.Category {
	case CategoryValidation:
		return 2
	case CategoryConfig:
		return 3
	case CategoryService:
		return 4
	case CategoryInternal:
		return 5
	default:
		return 1
	}
}

// New creates a new EngineError
func New(category ErrorCategory, code ErrorCode, message string) *EngineError {
	return &EngineError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with EngineError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *EngineError {
	if err == nil {
		return nil
	}

	return &EngineError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// ValidationError creates a field-level validation error. The field and
// reason are preserved in context so callers can render a field-level
// message.
func ValidationError(code ErrorCode, field string, value interface{}, reason string) *EngineError {
	message := fmt.Sprintf("invalid value for field '%s': %s", field, reason)

	var suggestion string
	switch code {
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	case CodeInvalidAmount:
		suggestion = "amounts are minor currency units and must be greater than zero"
	case CodeInvalidCurrency:
		suggestion = "use a 3-letter ISO currency code such as 'USD'"
	case CodeInvalidType:
		suggestion = "transaction type must be 'income' or 'expense'"
	case CodeInvalidWindow:
		suggestion = "the window start must precede its end and span at most 365 days"
	}

	return New(CategoryValidation, code, message).
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value).
		WithContext("reason", reason)
}

// ServiceUnavailableError indicates the external categorization call failed,
// timed out, or exceeded its retry budget. The orchestrator recovers from it
// via the rule-based fallback; it is never surfaced as a hard failure for a
// single-transaction categorization.
func ServiceUnavailableError(operation string, err error) *EngineError {
	message := fmt.Sprintf("categorization service unavailable during %s", operation)
	var result *EngineError
	if err != nil {
		result = Wrap(err, CategoryService, CodeServiceUnavailable, message)
	} else {
		result = New(CategoryService, CodeServiceUnavailable, message)
	}
	return result.
		WithSuggestion("the engine falls back to rule-based categorization automatically").
		WithContext("operation", operation)
}

// TimeoutError indicates the external call exceeded its deadline. Treated
// identically to ServiceUnavailableError for recovery purposes.
func TimeoutError(operation string, err error) *EngineError {
	message := fmt.Sprintf("categorization service timed out during %s", operation)
	var result *EngineError
	if err != nil {
		result = Wrap(err, CategoryService, CodeTimeout, message)
	} else {
		result = New(CategoryService, CodeTimeout, message)
	}
	return result.
		WithSuggestion("increase the AI timeout or rely on the fallback categorizer").
		WithContext("operation", operation)
}

// MalformedResponseError indicates the external call returned a structurally
// invalid payload. Recovered like a service error but kept distinct for
// observability.
func MalformedResponseError(detail string, err error) *EngineError {
	message := fmt.Sprintf("malformed categorization response: %s", detail)
	var result *EngineError
	if err != nil {
		result = Wrap(err, CategoryService, CodeMalformedResponse, message)
	} else {
		result = New(CategoryService, CodeMalformedResponse, message)
	}
	return result.WithContext("detail", detail)
}

// EmptyInputError signals a statistic was requested over an empty sample
// set. It is internal to the statistics package; callers are responsible
// for checking sample size before invoking the statistic.
func EmptyInputError(operation string) *EngineError {
	return New(CategoryInternal, CodeEmptyInput,
		fmt.Sprintf("%s requires at least one value", operation)).
		WithContext("operation", operation)
}

// ConfigError creates a configuration-related error
func ConfigError(setting string, value interface{}, reason string) *EngineError {
	return New(CategoryConfig, CodeInvalidConfig,
		fmt.Sprintf("invalid configuration for '%s': %s", setting, reason)).
		WithSuggestion("check the engine configuration documentation for valid values").
		WithContext("setting", setting).
		WithContext("value", value)
}

// InternalError creates an unexpected internal error
func InternalError(operation string, err error) *EngineError {
	message := fmt.Sprintf("unexpected error during %s", operation)
	var result *EngineError
	if err != nil {
		result = Wrap(err, CategoryInternal, CodeUnexpectedError, message)
	} else {
		result = New(CategoryInternal, CodeUnexpectedError, message)
	}
	return result.WithContext("operation", operation)
}

// AsEngineError extracts an EngineError from an error chain
func AsEngineError(err error) (*EngineError, bool) {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr, true
	}
	return nil, false
}

// IsValidationError reports whether err is a validation error
func IsValidationError(err error) bool {
	if engineErr, ok := AsEngineError(err); ok {
		return engineErr.Category == CategoryValidation
	}
	return false
}

// IsServiceUnavailable reports whether err is a service availability
// failure, including timeouts.
func IsServiceUnavailable(err error) bool {
	if engineErr, ok := AsEngineError(err); ok {
		return engineErr.Code == CodeServiceUnavailable || engineErr.Code == CodeTimeout
	}
	return false
}

// IsMalformedResponse reports whether err is a malformed response error
func IsMalformedResponse(err error) bool {
	return hasCode(err, CodeMalformedResponse)
}

// IsEmptyInput reports whether err is an empty statistical input signal
func IsEmptyInput(err error) bool {
	return hasCode(err, CodeEmptyInput)
}

// IsRecoverable reports whether the orchestrator may recover from err via
// the fallback categorizer. Validation errors are never recoverable.
func IsRecoverable(err error) bool {
	return IsServiceUnavailable(err) || IsMalformedResponse(err)
}

func hasCode(err error, code ErrorCode) bool {
	if engineErr, ok := AsEngineError(err); ok {
		return engineErr.Code == code
	}
	return false
}

// FieldMessage renders a short field-level message suitable for display,
// e.g. "description: required field 'description' is missing or empty".
func FieldMessage(err error) string {
	engineErr, ok := AsEngineError(err)
	if !ok {
		return err.Error()
	}

	if field, exists := engineErr.Context["field"]; exists {
		return fmt.Sprintf("%v: %s", field, engineErr.Message)
	}
	return engineErr.Message
}

// JoinMessages formats multiple errors into a single readable string
func JoinMessages(errs []error) string {
	if len(errs) == 0 {
		return "no errors"
	}

	parts := make([]string, len(errs))
	for i, err := range errs {
		parts[i] = err.Error()
	}
	return strings.Join(parts, "; ")
}
