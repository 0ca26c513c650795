// Package errors defines the coded errors treescope reports to its hosts.
//
// Every failure a user can act on carries a [Code]. The CLI prints the
// message; the HTTP server maps the code to a status with [HTTPStatus] and
// returns it in the JSON error body so clients can branch on it:
//
//	{"error": {"code": "PARSE_FAILED", "message": "yaml: line 3: did not find expected key"}}
//
// Codes are grouped by prefix: INVALID_ for rejected arguments, PARSE_ and
// STRUCTURE_ for documents that cannot be laid out, NETWORK_ for remote
// cache backends and INTERNAL_ for bugs.
//
//	if errors.Is(err, errors.ErrCodeTooDeep) {
//	    // suggest flattening the document
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable machine-readable error identifier.
type Code string

const (
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeInvalidGraph  Code = "INVALID_GRAPH"

	ErrCodeParseFailed Code = "PARSE_FAILED"
	ErrCodeTooDeep     Code = "STRUCTURE_TOO_DEEP"
	ErrCodeTooLarge    Code = "INPUT_TOO_LARGE"

	ErrCodeNotFound      Code = "NOT_FOUND"
	ErrCodeGraphNotFound Code = "GRAPH_NOT_FOUND"

	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// statusByCode is the HTTP status each code is served with. Codes missing
// here are internal errors.
var statusByCode = map[Code]int{
	ErrCodeInvalidInput:  http.StatusBadRequest,
	ErrCodeInvalidFormat: http.StatusBadRequest,
	ErrCodeInvalidPath:   http.StatusBadRequest,
	ErrCodeInvalidGraph:  http.StatusUnprocessableEntity,
	ErrCodeParseFailed:   http.StatusUnprocessableEntity,
	ErrCodeTooDeep:       http.StatusUnprocessableEntity,
	ErrCodeTooLarge:      http.StatusRequestEntityTooLarge,
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeGraphNotFound: http.StatusNotFound,
	ErrCodeNetwork:       http.StatusServiceUnavailable,
	ErrCodeTimeout:       http.StatusServiceUnavailable,
	ErrCodeUnsupported:   http.StatusNotImplemented,
}

// Error pairs a Code with a message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error with a formatted message around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	e := New(code, format, args...)
	e.Cause = cause
	return e
}

// Is reports whether any *Error in err's chain carries code.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
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

// GetCode returns the code of the outermost *Error in err's chain, or "".
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns err's message without the code prefix.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// HTTPStatus returns the status the API server responds with for code.
func HTTPStatus(code Code) int {
	if s, ok := statusByCode[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}
