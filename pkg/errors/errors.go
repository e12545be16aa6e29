// Package errors provides structured error types for Watermark Pro.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the composer and the pipeline
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The codes mirror the failure points of a watermark render:
//   - INVALID_INPUT: a selected file is not an image
//   - CONFIGURATION_ERROR: degenerate geometry (zero gap, bad font size, ...)
//   - DECODE_FAILURE: the source image could not be decoded for export
//   - SURFACE_ACQUISITION_FAILURE: a drawing surface could not be allocated
//   - ENCODING_FAILURE: the painted surface could not be serialized to PNG
//
// # Usage
//
//	err := errors.New(errors.ErrCodeConfiguration, "gap must be positive, got %v", gap)
//	if errors.Is(err, errors.ErrCodeConfiguration) {
//	    // Skip the render, keep the previous preview
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeDecode, origErr, "decode %s", name)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeConfiguration Code = "CONFIGURATION_ERROR"

	// Export path errors
	ErrCodeDecode             Code = "DECODE_FAILURE"
	ErrCodeSurfaceAcquisition Code = "SURFACE_ACQUISITION_FAILURE"
	ErrCodeEncoding           Code = "ENCODING_FAILURE"
	ErrCodeExportInProgress   Code = "EXPORT_IN_PROGRESS"

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

// Recovered converts a recovered panic value into an INTERNAL_ERROR.
// Returns nil when r is nil.
func Recovered(r any) error {
	if r == nil {
		return nil
	}
	if err, ok := r.(error); ok {
		return Wrap(ErrCodeInternal, err, "unexpected failure")
	}
	return New(ErrCodeInternal, "unexpected failure: %v", r)
}
