package provider

import (
	"errors"
	"fmt"

	"github.com/mstgnz/thaipay/model"
)

// ErrUnsupportedProvider is returned for provider types without an adapter.
var ErrUnsupportedProvider = errors.New("provider: no adapter registered")

// Error reports a failed or malformed upstream call.
type Error struct {
	Provider   model.ProviderType
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Provider, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds a provider error without an HTTP status.
func Errorf(p model.ProviderType, format string, args ...any) *Error {
	return &Error{Provider: p, Message: fmt.Sprintf(format, args...)}
}

// MissingField reports a required response field the provider omitted.
func MissingField(p model.ProviderType, field string) *Error {
	return &Error{Provider: p, Message: fmt.Sprintf("response missing %s", field)}
}
