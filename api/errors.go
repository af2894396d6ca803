// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for hioload-reactor.

package api

import (
	"errors"
	"fmt"
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeConfiguration
	ErrCodeDuplicateRegistration
	ErrCodeLogic
	ErrCodeFatalIO
	ErrCodeNotSupported
	ErrCodeNotConnected
	ErrCodeClosed
	ErrCodeInternal
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeOK:
		return "ok"
	case ErrCodeInvalidArgument:
		return "invalid argument"
	case ErrCodeConfiguration:
		return "configuration error"
	case ErrCodeDuplicateRegistration:
		return "duplicate registration"
	case ErrCodeLogic:
		return "logic error"
	case ErrCodeFatalIO:
		return "fatal io error"
	case ErrCodeNotSupported:
		return "operation not supported"
	case ErrCodeNotConnected:
		return "not connected"
	case ErrCodeClosed:
		return "closed"
	default:
		return "internal error"
	}
}

// Sentinels for errors.Is. Any *Error carrying the same code matches.
// ErrInvalidArgument and ErrConfiguration match each other: a malformed
// bind address and a zero timer parameter are both configuration faults.
var (
	ErrInvalidArgument       = &Error{Code: ErrCodeInvalidArgument, Message: "invalid argument"}
	ErrConfiguration         = &Error{Code: ErrCodeConfiguration, Message: "configuration error"}
	ErrDuplicateRegistration = &Error{Code: ErrCodeDuplicateRegistration, Message: "descriptor already registered"}
	ErrLogic                 = &Error{Code: ErrCodeLogic, Message: "logic error"}
	ErrFatalIO               = &Error{Code: ErrCodeFatalIO, Message: "fatal io error"}
	ErrNotSupported          = &Error{Code: ErrCodeNotSupported, Message: "operation not supported"}
	ErrNotConnected          = &Error{Code: ErrCodeNotConnected, Message: "not connected"}
	ErrClosed                = &Error{Code: ErrCodeClosed, Message: "closed"}
)

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if len(e.Context) == 0 {
		return msg
	}
	return fmt.Sprintf("%s (context: %+v)", msg, e.Context)
}

// Unwrap exposes the underlying cause, e.g. the errno of a failed syscall.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on code, so errors.Is(err, ErrConfiguration) holds for any
// configuration error regardless of message or context.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || t == nil {
		return false
	}
	if e.Code == t.Code {
		return true
	}
	return isConfigCode(e.Code) && isConfigCode(t.Code)
}

func isConfigCode(c ErrorCode) bool {
	return c == ErrCodeInvalidArgument || c == ErrCodeConfiguration
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WrapError creates a structured error around cause.
func WrapError(code ErrorCode, message string, cause error) *Error {
	e := NewError(code, message)
	e.Err = cause
	return e
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}
