package types

import (
	"errors"
	"fmt"
)

// ErrorCode classifies failures across the core so transports can map them
// to wire-level errors without string matching.
type ErrorCode string

const (
	CodeInvalidArgs          ErrorCode = "INVALID_ARGS"
	CodePreconditionRequired ErrorCode = "PRECONDITION_REQUIRED"
	CodeNotFound             ErrorCode = "NOT_FOUND"
	CodePermission           ErrorCode = "PERMISSION_ERROR"
	CodeLock                 ErrorCode = "LOCK_ERROR"
	CodeTimeout              ErrorCode = "TIMEOUT"
	CodeQuery                ErrorCode = "QUERY_ERROR"
	CodeConfirmationRequired ErrorCode = "CONFIRMATION_REQUIRED"
	CodeUnsupportedOperation ErrorCode = "UNSUPPORTED_OPERATION"
	CodeInternal             ErrorCode = "INTERNAL_ERROR"
)

// CoreError carries a code plus optional path/query context. Path is set for
// filesystem and lock failures, Query for engine failures (truncated).
type CoreError struct {
	Code    ErrorCode
	Message string
	Path    string
	Query   string
	Err     error
}

func (e *CoreError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Path != "" {
		msg += fmt.Sprintf(" (path: %s)", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CoreError) Unwrap() error { return e.Err }

// NewError builds a CoreError with just a code and message.
func NewError(code ErrorCode, format string, args ...any) *CoreError {
	return &CoreError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// PathError builds a CoreError tied to a filesystem path.
func PathError(code ErrorCode, path string, err error, format string, args ...any) *CoreError {
	return &CoreError{Code: code, Message: fmt.Sprintf(format, args...), Path: path, Err: err}
}

// QueryError wraps an engine failure with a truncated snippet of the query.
func QueryError(query string, err error) *CoreError {
	const maxSnippet = 200
	snippet := query
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet] + "..."
	}
	return &CoreError{Code: CodeQuery, Message: "query failed", Query: snippet, Err: err}
}

// CodeOf extracts the error code from err, or CodeInternal if it carries none.
func CodeOf(err error) ErrorCode {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return CodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
