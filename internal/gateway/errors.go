package gateway

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType categorizes client failures.
type ErrorType string

const (
	// ErrorTypeConfigRead covers device-directory reads that fail before any
	// network activity, such as a missing hostname file.
	ErrorTypeConfigRead ErrorType = "config_read"

	// ErrorTypeUnsupportedMethod is returned for any HTTP method other than
	// GET. No network call is attempted.
	ErrorTypeUnsupportedMethod ErrorType = "unsupported_method"

	// ErrorTypeCredentialLoad covers client certificate or trust root
	// material that cannot be loaded or parsed.
	ErrorTypeCredentialLoad ErrorType = "credential_load"

	// ErrorTypeConnection covers DNS, TCP, TLS handshake, and certificate
	// verification failures while dispatching the request.
	ErrorTypeConnection ErrorType = "connection"
)

// Error is a structured client error with context.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *Error) Error() string {
	parts := []string{fmt.Sprintf("[%s]", string(e.Type)), e.Message}

	if len(e.Context) > 0 {
		var contextParts []string
		for key, value := range e.Context {
			contextParts = append(contextParts, fmt.Sprintf("%s=%v", key, value))
		}
		parts = append(parts, fmt.Sprintf("context: %s", strings.Join(contextParts, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " | ")
}

// Unwrap returns the underlying error for error unwrapping.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewError creates a new client error with the specified type and message.
func NewError(errorType ErrorType, message string) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// NewErrorWithCause creates a new client error with an underlying cause.
func NewErrorWithCause(errorType ErrorType, message string, cause error) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewConfigReadError reports a device-directory file that could not be read.
func NewConfigReadError(path string, cause error) *Error {
	return NewErrorWithCause(ErrorTypeConfigRead, fmt.Sprintf("unable to read %s", path), cause).
		WithContext("path", path)
}

// NewUnsupportedMethodError rejects an HTTP method the client does not speak.
func NewUnsupportedMethodError(method string) *Error {
	return NewError(ErrorTypeUnsupportedMethod, fmt.Sprintf("Unsupported HTTP method: %s", method)).
		WithContext("method", method)
}

// NewCredentialLoadError reports client certificate or trust material that
// could not be loaded.
func NewCredentialLoadError(message string, cause error) *Error {
	return NewErrorWithCause(ErrorTypeCredentialLoad, message, cause)
}

// NewConnectionError reports a transport-level failure for the given URL.
func NewConnectionError(url string, cause error) *Error {
	return NewErrorWithCause(ErrorTypeConnection, fmt.Sprintf("Error connecting to %s", url), cause).
		WithContext("url", url)
}

// TypeOf returns the error type of err, or an empty string when err is not a
// gateway error.
func TypeOf(err error) ErrorType {
	var clientErr *Error
	if errors.As(err, &clientErr) {
		return clientErr.Type
	}
	return ""
}

// IsConnectionError reports whether err is a transport-level failure.
func IsConnectionError(err error) bool {
	return TypeOf(err) == ErrorTypeConnection
}

// IsConfigError reports whether err failed before any network activity.
func IsConfigError(err error) bool {
	switch TypeOf(err) {
	case ErrorTypeConfigRead, ErrorTypeUnsupportedMethod:
		return true
	}
	return false
}
