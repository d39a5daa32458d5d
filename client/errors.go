package client

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes the failures of a token acquisition.
type ErrorKind string

const (
	// KindConfig marks a missing or invalid field for the chosen flow.
	// Raised at construction, never at acquisition time.
	KindConfig ErrorKind = "config"
	// KindTransport marks a network or HTTP failure reaching the token or
	// authorization endpoint. These are surfaced as-is; there is no retry.
	KindTransport ErrorKind = "transport"
	// KindAuthServer marks an OAuth2 error reported by the server, or a
	// token response lacking required fields.
	KindAuthServer ErrorKind = "auth_server"
	// KindState marks a missing refresh token or an unrecognized/expired
	// inbound state. Inside the acquisition these trigger a fallback to a
	// fresh grant; they only surface where no fallback applies.
	KindState ErrorKind = "state"
)

// Error is a structured acquisition error.
type Error struct {
	Kind    ErrorKind
	Message string

	// Code and Description carry the server-provided OAuth2 error fields
	// for KindAuthServer.
	Code        string
	Description string

	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Code != "" && e.Description != "":
		return fmt.Sprintf("%s: %s: %s: %s", e.Kind, e.Message, e.Code, e.Description)
	case e.Code != "":
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.Code)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsKind reports whether err is (or wraps) an Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var acqErr *Error
	if errors.As(err, &acqErr) {
		return acqErr.Kind == kind
	}
	return false
}

func newConfigError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConfig, Message: fmt.Sprintf(format, args...)}
}

func newTransportError(cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindTransport, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func newAuthServerError(code, description, message string) *Error {
	return &Error{Kind: KindAuthServer, Message: message, Code: code, Description: description}
}

func newStateError(cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindState, Message: fmt.Sprintf(format, args...), Cause: cause}
}
