package errors

import (
	"errors"
	"fmt"
)

// Error codes for programmatic handling.
const (
	CodeUsage         = "USAGE"
	CodeConfigInvalid = "CONFIG_INVALID"
	CodeScopeNotFound = "SCOPE_NOT_FOUND"
	CodeFinderFailed  = "FINDER_FAILED"
	CodeReadFailed    = "READ_FAILED"
	CodeTimeout       = "TIMEOUT"
)

// MemsearchError is a structured error with a code and actionable suggestion.
type MemsearchError struct {
	Code       string // machine-readable code (e.g. USAGE)
	Message    string // human-readable description
	Suggestion string // actionable fix
	Err        error  // wrapped underlying error
}

// Error implements the error interface.
func (e *MemsearchError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap supports errors.Is / errors.As.
func (e *MemsearchError) Unwrap() error {
	return e.Err
}

// New creates a MemsearchError with the given code and message.
func New(code, message string) *MemsearchError {
	return &MemsearchError{Code: code, Message: message}
}

// Wrap creates a MemsearchError wrapping an existing error.
func Wrap(code, message string, err error) *MemsearchError {
	return &MemsearchError{Code: code, Message: message, Err: err}
}

// WithSuggestion sets the suggestion and returns the error.
func (e *MemsearchError) WithSuggestion(suggestion string) *MemsearchError {
	e.Suggestion = suggestion
	return e
}

// Is checks whether target matches this error's code.
func (e *MemsearchError) Is(target error) bool {
	var me *MemsearchError
	if errors.As(target, &me) {
		return e.Code == me.Code
	}
	return false
}

// AsCode extracts the MemsearchError code from an error, or "" if not a MemsearchError.
func AsCode(err error) string {
	var me *MemsearchError
	if errors.As(err, &me) {
		return me.Code
	}
	return ""
}

// Suggestion extracts the suggestion from an error, or "" if not a MemsearchError.
func Suggestion(err error) string {
	var me *MemsearchError
	if errors.As(err, &me) {
		return me.Suggestion
	}
	return ""
}

// IsUsage reports whether err is a caller misuse error.
func IsUsage(err error) bool {
	return AsCode(err) == CodeUsage
}
