// Package errors provides structured error types for the typetower application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI, server, and library entry points
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Extraction distinguishes fatal conditions (unsupported kinds, registry
// invariant violations, unresolvable roots) from the single recoverable one:
// a reference resolved before its target was materialized. Callers can test
// for a specific condition with Is:
//
//	err := errors.New(errors.ErrCodeUnsupportedKind, "cannot classify %T", raw)
//	if errors.Is(err, errors.ErrCodeUnsupportedKind) {
//	    // Abort the extraction pass
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeImportFailure, loadErr, "load %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Extraction errors. All of these abort the pass except
	// ErrCodeMissingReference, which relation synthesis absorbs locally.
	ErrCodeImportFailure         Code = "IMPORT_FAILURE"
	ErrCodeUnsupportedKind       Code = "UNSUPPORTED_KIND"
	ErrCodeDuplicateRegistration Code = "DUPLICATE_REGISTRATION"
	ErrCodeMissingReference      Code = "MISSING_REFERENCE"
	ErrCodeMissingSource         Code = "MISSING_SOURCE"

	// Configuration errors, fatal at construction time.
	ErrCodeConfiguration Code = "INVALID_CONFIGURATION"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"

	// CLI surface errors.
	ErrCodeOutputExists Code = "OUTPUT_EXISTS"

	// Internal errors.
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
