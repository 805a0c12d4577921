// Package errors provides structured error handling for pitchboard.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeIO represents unreadable or missing input files
	ErrorTypeIO ErrorType = "io"
	// ErrorTypeParse represents malformed headers, rows or cells
	ErrorTypeParse ErrorType = "parse"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeValidation represents bad caller input (query parameters, flags)
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeNotFound represents unknown resources such as chart panels
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeRender represents chart rendering failures
	ErrorTypeRender ErrorType = "render"
	// ErrorTypeInternal represents internal system errors
	ErrorTypeInternal ErrorType = "internal"
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Type))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, e.Details[k]))
		}
		b.WriteString(" (")
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString(")")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new error with a formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return New(errType, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
	}
}

// IsType checks if the error is of the given type
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// TypeOf returns the type of the outermost structured error, or ErrorTypeInternal.
func TypeOf(err error) ErrorType {
	var e *Error
	if !errors.As(err, &e) {
		return ErrorTypeInternal
	}
	return e.Type
}

// Fatal reports whether an error must abort startup.
// Unreadable and malformed datasets have no partial-success mode.
func Fatal(err error) bool {
	return IsType(err, ErrorTypeIO) || IsType(err, ErrorTypeParse) || IsType(err, ErrorTypeConfig)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
