package types

import (
	"errors"
	"fmt"
)

// Error represents an HTTP error with status code and message.
type Error struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
}

// Error returns the error message string.
func (e Error) Error() string {
	return e.Message
}

// NewError creates a new Error with the specified status code and message.
func NewError(statusCode int, message string) *Error {
	return &Error{
		StatusCode: statusCode,
		Message:    message,
	}
}

// AsError returns the first Error in the chain of err, whether it was
// returned as a pointer or as a value.
func AsError(err error) (*Error, bool) {
	var perr *Error
	if errors.As(err, &perr) && perr != nil {
		return perr, true
	}
	var verr Error
	if errors.As(err, &verr) {
		return &verr, true
	}
	return nil, false
}

// ResponseError is a failure that already carries the Response to send. It is
// how middleware rejects a request before it reaches a handler.
type ResponseError struct {
	Response *Response
}

// Error returns a short description including the response status code.
func (e ResponseError) Error() string {
	if e.Response == nil {
		return "rejected without response"
	}
	return fmt.Sprintf("rejected with status %d", e.Response.Status())
}

// Reject wraps resp into an error suitable for failing a task.
func Reject(resp *Response) error {
	return &ResponseError{Response: resp}
}

// AsResponse returns the Response carried by err, if any.
func AsResponse(err error) (*Response, bool) {
	var rerr *ResponseError
	if errors.As(err, &rerr) && rerr.Response != nil {
		return rerr.Response, true
	}
	return nil, false
}

// ErrorLevel is the amount of detail of fault messages sent back to clients.
type ErrorLevel string

// Supported ErrorLevel values.
const (
	// ErrorLevelNone replaces messages with the status text.
	ErrorLevelNone ErrorLevel = "none"
	// ErrorLevelMinimal keeps only the outermost part of wrapped messages.
	ErrorLevelMinimal ErrorLevel = "minimal"
	// ErrorLevelFull keeps messages intact.
	ErrorLevelFull ErrorLevel = "full"
)

// ErrorLevelFromString returns the ErrorLevel with the given name.
func ErrorLevelFromString(s string) (ErrorLevel, error) {
	switch lvl := ErrorLevel(s); lvl {
	case ErrorLevelNone, ErrorLevelMinimal, ErrorLevelFull:
		return lvl, nil
	default:
		return "", fmt.Errorf("invalid error level '%s'", s)
	}
}
