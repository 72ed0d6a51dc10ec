// Package errors provides structured error types for depview.
//
// Every failure an analysis attempt can end in is one of three kinds:
//   - INVALID_INPUT: the repository URL (or another user input) has the wrong shape
//   - TRANSPORT_FAILURE: the analysis call could not complete or returned an unreadable body
//   - SERVICE_ERROR: the analysis service answered with a non-2xx status
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "not a GitHub URL: %q", raw)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // show the localized invalid-URL banner
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeTransport, origErr, "POST %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for the error kinds an analysis attempt can end in.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidLanguage Code = "INVALID_LANGUAGE"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"
	ErrCodeInvalidPath     Code = "INVALID_PATH"

	// The analysis call could not complete or its body was unreadable
	ErrCodeTransport Code = "TRANSPORT_FAILURE"

	// The analysis service rejected the request
	ErrCodeService Code = "SERVICE_ERROR"

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
// It unwraps the error chain looking for an *Error or *ServiceError with a matching code.
func Is(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error carries no code.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return ErrCodeService
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error and *ServiceError types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Message
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Kind classifies err into one of the three attempt-ending kinds.
// Errors without a recognized code count as transport failures.
func Kind(err error) Code {
	switch code := GetCode(err); code {
	case ErrCodeInvalidInput, ErrCodeService:
		return code
	default:
		return ErrCodeTransport
	}
}

// ServiceError is returned when the analysis service answers with a non-2xx status.
type ServiceError struct {
	Status  int    // HTTP status code
	Message string // Service-supplied message, or a synthesized one
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", ErrCodeService, e.Status, e.Message)
}

// Code returns the error code for this error type.
func (e *ServiceError) Code() Code {
	return ErrCodeService
}
