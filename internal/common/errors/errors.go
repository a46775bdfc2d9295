// Package errors provides standardized error handling for the recommendation pipeline.
package errors

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeUnauthenticated ErrorCode = "UNAUTHENTICATED"
	ErrCodeInvalidInput    ErrorCode = "INVALID_INPUT"

	ErrCodeProfileNotFound ErrorCode = "PROFILE_NOT_FOUND"
	ErrCodeFieldNotFound   ErrorCode = "FIELD_NOT_FOUND"
	ErrCodeProgramNotFound ErrorCode = "PROGRAM_NOT_FOUND"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodePersistenceFailed        ErrorCode = "PERSISTENCE_FAILED"

	ErrCodeMLServiceUnavailable       ErrorCode = "ML_SERVICE_UNAVAILABLE"
	ErrCodeMLTimeout                  ErrorCode = "ML_TIMEOUT"
	ErrCodeLLMTimeout                 ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMValidationFailed        ErrorCode = "LLM_VALIDATION_FAILED"
	ErrCodeMalformedUpstreamResponse  ErrorCode = "MALFORMED_UPSTREAM_RESPONSE"
	ErrCodeComparisonGenerationFailed ErrorCode = "COMPARISON_GENERATION_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewUnauthenticatedError creates a non-retryable credential error.
func NewUnauthenticatedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnauthenticated,
		Message:   "Missing or invalid bearer credential",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidInputError creates a non-retryable request validation error.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProfileNotFoundError creates a non-retryable missing profile error.
func NewProfileNotFoundError(userID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProfileNotFound,
		Message:   "No stored profile for user",
		Details:   fmt.Sprintf("userId: %s", userID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewFieldNotFoundError creates a non-retryable catalog lookup error.
func NewFieldNotFoundError(fieldName string) *StandardError {
	return &StandardError{
		Code:      ErrCodeFieldNotFound,
		Message:   "Field of interest not found in catalog",
		Details:   fmt.Sprintf("fieldName: %s", fieldName),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProgramNotFoundError creates a non-retryable catalog lookup error.
func NewProgramNotFoundError(programID int64) *StandardError {
	return &StandardError{
		Code:      ErrCodeProgramNotFound,
		Message:   "Program not found in catalog",
		Details:   fmt.Sprintf("programId: %d", programID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryName string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("query: %s, error: %s", queryName, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(queryName string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Database query timeout",
		Details:   fmt.Sprintf("query: %s", queryName),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPersistenceFailedError creates a retryable history write error. The
// caller logs and swallows it; it never reaches the HTTP response.
func NewPersistenceFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistenceFailed,
		Message:   "Recommendation history write failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewMLServiceUnavailableError creates a retryable ML transport error.
func NewMLServiceUnavailableError(endpoint string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMLServiceUnavailable,
		Message:   "ML service unreachable",
		Details:   fmt.Sprintf("endpoint: %s, error: %s", endpoint, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewMLTimeoutError creates a retryable ML timeout error.
func NewMLTimeoutError(endpoint string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMLTimeout,
		Message:   "ML service call timeout",
		Details:   fmt.Sprintf("endpoint: %s", endpoint),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMTimeoutError creates a retryable LLM timeout error.
func NewLLMTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMTimeout,
		Message:   "LLM call timeout",
		Details:   "chat completion exceeded timeout threshold",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLLMValidationFailedError creates a retryable LLM transport/API error.
func NewLLMValidationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMValidationFailed,
		Message:   "LLM validation call failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedUpstreamResponseError creates a non-retryable parse error.
// Every caller recovers from this via a deterministic fallback.
func NewMalformedUpstreamResponseError(source, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedUpstreamResponse,
		Message:   fmt.Sprintf("Unparsable response from %s", source),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewComparisonGenerationFailedError creates a retryable comparison error.
func NewComparisonGenerationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeComparisonGenerationFailed,
		Message:   "Program comparison generation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps any error that escaped without a typed code.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. HTTP Status Mapping
// ==========================

// HTTPStatusMapping maps internal error codes to HTTP statuses. Degradable
// pipeline errors never reach this table; callers recover them with fallbacks
// before the response is written.
var HTTPStatusMapping = map[ErrorCode]int{
	ErrCodeUnauthenticated: http.StatusUnauthorized,
	ErrCodeInvalidInput:    http.StatusBadRequest,

	ErrCodeProfileNotFound: http.StatusNotFound,
	ErrCodeFieldNotFound:   http.StatusNotFound,
	ErrCodeProgramNotFound: http.StatusNotFound,

	ErrCodeDatabaseConnectionFailed: http.StatusInternalServerError,
	ErrCodeQueryExecutionFailed:     http.StatusInternalServerError,
	ErrCodeQueryTimeout:             http.StatusInternalServerError,
	ErrCodePersistenceFailed:        http.StatusInternalServerError,

	ErrCodeMLServiceUnavailable:       http.StatusServiceUnavailable,
	ErrCodeMLTimeout:                  http.StatusServiceUnavailable,
	ErrCodeLLMTimeout:                 http.StatusServiceUnavailable,
	ErrCodeLLMValidationFailed:        http.StatusServiceUnavailable,
	ErrCodeComparisonGenerationFailed: http.StatusServiceUnavailable,
	ErrCodeMalformedUpstreamResponse:  http.StatusBadGateway,

	ErrCodeInternal: http.StatusInternalServerError,
}

// HTTPStatus returns the HTTP status for an error code, defaulting to 500.
func HTTPStatus(code ErrorCode) int {
	if status, ok := HTTPStatusMapping[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ==========================
// 4. Utility Functions
// ==========================

// IsRetryable reports whether an error is a retryable StandardError.
func IsRetryable(err error) bool {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr.Retryable
	}
	return false
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "UNAUTHENTICATED"):
		return "AUTH"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "PERSISTENCE"):
		return "DATABASE"
	case strings.Contains(codeStr, "ML_") || strings.Contains(codeStr, "LLM") || strings.Contains(codeStr, "UPSTREAM") || strings.Contains(codeStr, "COMPARISON"):
		return "AI"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "LOOKUP"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
