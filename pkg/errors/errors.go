// Package errors provides structured error types for spkwatch.
//
// Every failure that can stop the resolution of a single package carries a
// machine-readable [Code], so the orchestrator can report per-package status
// without string matching:
//
//   - PARSE_ERROR: a recipe line or file could not be understood
//   - UNSAFE_PATCH: a value cannot be rewritten literally in a recipe
//   - NETWORK_ERROR: connection failure, timeout or non-200 response
//   - UNSUPPORTED_METHOD: unknown PKG_DOWNLOAD_METHOD
//   - VERSION_NOT_FOUND: no current version or no candidate matched
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnsupportedMethod, "method %q", method)
//	if errors.Is(err, errors.ErrCodeUnsupportedMethod) {
//	    // mark package unresolved
//	}
//
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "fetch %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidPackage Code = "INVALID_PACKAGE"
	ErrCodeInvalidPath    Code = "INVALID_PATH"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"

	// Recipe errors
	ErrCodeParse       Code = "PARSE_ERROR"
	ErrCodeUnsafePatch Code = "UNSAFE_PATCH"

	// Resolution errors
	ErrCodeNotFound          Code = "NOT_FOUND"
	ErrCodeVersionNotFound   Code = "VERSION_NOT_FOUND"
	ErrCodeUnsupportedMethod Code = "UNSUPPORTED_METHOD"
	ErrCodeCycle             Code = "DEPENDENCY_CYCLE"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	// Internal errors
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
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
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
		if e.Cause != nil {
			return e.Message + ": " + UserMessage(e.Cause)
		}
		return e.Message
	}
	return err.Error()
}
