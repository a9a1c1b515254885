// Package domainerrors provides code-tagged errors shared across services.
//
// Services wrap lower-level failures with a stable code; transports map the
// code to a status without inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a failure for transport mapping and retry decisions.
type ErrorCode string

const (
	// CodeBadRequest marks caller mistakes (invalid input, missing fields).
	CodeBadRequest ErrorCode = "bad_request"
	// CodeNotFound marks missing resources.
	CodeNotFound ErrorCode = "not_found"
	// CodeUnavailable marks external-dependency failures that are safe to retry.
	CodeUnavailable ErrorCode = "unavailable"
	// CodeInternal marks unexpected failures inside this service.
	CodeInternal ErrorCode = "internal"
)

// Error carries a code alongside a message and an optional wrapped cause.
type Error struct {
	Code    ErrorCode
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates an error with a code and message.
func New(code ErrorCode, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates an error with a code and a formatted message.
func Newf(code ErrorCode, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a code and message. Returns nil if err is nil.
func Wrap(err error, code ErrorCode, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// Is reports whether err (or anything it wraps) carries the given code.
func Is(err error, code ErrorCode) bool {
	return Code(err) == code
}

// Code extracts the code from err, defaulting to CodeInternal for untagged
// errors and "" for nil.
func Code(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
