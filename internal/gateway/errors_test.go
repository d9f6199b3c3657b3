package gateway

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "basic error",
			err: &Error{
				Type:    ErrorTypeConnection,
				Message: "Error connecting to https://localhost:8443/items",
			},
			contains: []string{"[connection]", "Error connecting to https://localhost:8443/items"},
		},
		{
			name: "error with context",
			err: &Error{
				Type:    ErrorTypeConfigRead,
				Message: "unable to read hostname file",
				Context: map[string]interface{}{"path": "/dev0/dghostname"},
			},
			contains: []string{"[config_read]", "context:", "path=/dev0/dghostname"},
		},
		{
			name: "error with cause",
			err: &Error{
				Type:    ErrorTypeCredentialLoad,
				Message: "load client certificate",
				Cause:   fmt.Errorf("no such file"),
			},
			contains: []string{"[credential_load]", "cause: no such file"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.err.Error()
			for _, want := range tt.contains {
				assert.Contains(t, result, want)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewConnectionError("https://localhost:8443/items", cause)

	assert.ErrorIs(t, err, cause)
}

func TestError_WithContext(t *testing.T) {
	err := NewError(ErrorTypeConnection, "test error")

	result := err.WithContext("key", "value")

	assert.Same(t, err, result)
	assert.Equal(t, "value", err.Context["key"])
}

func TestNewUnsupportedMethodError(t *testing.T) {
	err := NewUnsupportedMethodError("POST")

	assert.Equal(t, ErrorTypeUnsupportedMethod, err.Type)
	assert.Contains(t, err.Error(), "Unsupported HTTP method: POST")
}

func TestNewConnectionErrorEmbedsURL(t *testing.T) {
	err := NewConnectionError("https://gw:8443/items", fmt.Errorf("dial tcp: refused"))

	assert.Contains(t, err.Error(), "https://gw:8443/items")
	assert.Contains(t, err.Error(), "refused")
}

func TestClassificationHelpers(t *testing.T) {
	assert.True(t, IsConnectionError(NewConnectionError("https://gw/", nil)))
	assert.False(t, IsConnectionError(NewUnsupportedMethodError("PUT")))

	assert.True(t, IsConfigError(NewConfigReadError("/dev0/dghostname", nil)))
	assert.True(t, IsConfigError(NewUnsupportedMethodError("PUT")))
	assert.False(t, IsConfigError(NewConnectionError("https://gw/", nil)))

	assert.False(t, IsConnectionError(errors.New("plain")))
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))
}

func TestTypeOfWrappedError(t *testing.T) {
	inner := NewCredentialLoadError("load client certificate", fmt.Errorf("no such file"))
	outer := NewConnectionError("https://gw:8443/items", inner)

	// Outer classification wins; the credential detail stays reachable.
	assert.Equal(t, ErrorTypeConnection, TypeOf(outer))
	var credErr *Error
	assert.True(t, errors.As(outer.Cause, &credErr))
	assert.Equal(t, ErrorTypeCredentialLoad, credErr.Type)
}
