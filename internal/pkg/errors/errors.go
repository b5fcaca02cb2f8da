// Package errors provides custom error types and error handling utilities.
package errors

import (
	"errors"
	"fmt"
)

// Error codes.
const (
	// Input and configuration errors.
	CodeValidation                = "VALIDATION_ERROR"
	CodeSchema                    = "SCHEMA_ERROR"
	CodeEmptyStore                = "EMPTY_STORE"
	CodeInsufficientPoisonedSeeds = "INSUFFICIENT_POISONED_SEEDS"
	CodeInvalidArgument           = "INVALID_ARGUMENT"

	// Runtime errors.
	CodeIndexBuild  = "INDEX_BUILD_ERROR"
	CodeNotBuilt    = "NOT_BUILT"
	CodeEmbedding   = "EMBEDDING_ERROR"
	CodePersistence = "PERSISTENCE_ERROR"
	CodeTimeout     = "TIMEOUT"
	CodeInternal    = "INTERNAL_ERROR"
	CodeUnavailable = "SERVICE_UNAVAILABLE"
)

// AppError represents an application error with code and details.
type AppError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// ExitCode returns the process exit status for this error.
// Structural input errors get distinct codes so callers (CI gates,
// wrapper scripts) can tell bad input from bad environment from bugs.
func (e *AppError) ExitCode() int {
	switch e.Code {
	case CodeSchema:
		return 2
	case CodeEmptyStore:
		return 3
	case CodeInsufficientPoisonedSeeds:
		return 4
	case CodeIndexBuild:
		return 5
	case CodeValidation, CodeInvalidArgument:
		return 6
	default:
		return 1
	}
}

// New creates a new AppError.
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with an AppError.
func Wrap(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithDetails adds details to the error.
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// WithDetail adds a single detail to the error.
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// Convenience constructors.

// ValidationError creates a validation error.
func ValidationError(message string) *AppError {
	return New(CodeValidation, message)
}

// SchemaError creates a seed schema error.
func SchemaError(message string) *AppError {
	return New(CodeSchema, message)
}

// EmptyStoreError creates an empty store error.
func EmptyStoreError(source string) *AppError {
	return New(CodeEmptyStore, fmt.Sprintf("no usable experience records in %s", source))
}

// InsufficientPoisonedSeedsError signals that the seed set holds fewer
// poisoned records than requested. Poisoned content is never synthesized.
func InsufficientPoisonedSeedsError(have, want int) *AppError {
	return New(CodeInsufficientPoisonedSeeds,
		fmt.Sprintf("seed set has %d poisoned records, %d required", have, want))
}

// IndexBuildError creates an index build error.
func IndexBuildError(message string, err error) *AppError {
	return Wrap(CodeIndexBuild, message, err)
}

// NotBuiltError signals a query against an index that was never built.
func NotBuiltError() *AppError {
	return New(CodeNotBuilt, "index has not been built")
}

// InvalidArgumentError creates a contract violation error.
func InvalidArgumentError(message string) *AppError {
	return New(CodeInvalidArgument, message)
}

// EmbeddingError creates an embedding provider error.
func EmbeddingError(message string, err error) *AppError {
	return Wrap(CodeEmbedding, message, err)
}

// PersistenceError creates a persistence I/O error.
func PersistenceError(message string, err error) *AppError {
	return Wrap(CodePersistence, message, err)
}

// InternalError creates an internal error.
func InternalError(message string, err error) *AppError {
	return Wrap(CodeInternal, message, err)
}

// TimeoutError creates a timeout error for a specific operation.
func TimeoutError(operation string) *AppError {
	message := "operation timed out"
	if operation != "" {
		message = fmt.Sprintf("%s timed out", operation)
	}
	return New(CodeTimeout, message)
}

// ServiceUnavailableError creates a service unavailable error.
func ServiceUnavailableError(service string) *AppError {
	message := "service unavailable"
	if service != "" {
		message = fmt.Sprintf("%s is unavailable", service)
	}
	return New(CodeUnavailable, message)
}

// Code returns the error code of err, or CodeInternal for foreign errors.
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsFatal reports whether err should abort the run. Query-level transient
// failures are handled by the retry policy and never reach this check.
func IsFatal(err error) bool {
	switch Code(err) {
	case CodeSchema, CodeEmptyStore, CodeInsufficientPoisonedSeeds,
		CodeIndexBuild, CodeNotBuilt, CodeInvalidArgument, CodeValidation:
		return true
	}
	return false
}

// ExitCode returns the exit status for an arbitrary error. nil maps to 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode()
	}
	return 1
}
