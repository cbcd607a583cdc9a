// Package apierr defines the closed set of failure kinds the gateway can
// produce and their mapping to HTTP statuses.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a gateway failure.
type Kind int

const (
	// AuthorizationFailure is a missing or mismatched shared-secret token.
	AuthorizationFailure Kind = iota
	// MalformedInput is an undecodable or invalid request (header or body).
	MalformedInput
	// SerializationFailure is a payload that could not be serialized for
	// span emission.
	SerializationFailure
	// BackendUnavailable is a network-level failure reaching an external
	// store.
	BackendUnavailable
	// BackendError is an external store responding with a failure status
	// or an undecodable body.
	BackendError
	// ConfigurationMissing is a required secret or credential absent at
	// startup. Fatal to the process, never request-scoped.
	ConfigurationMissing
)

func (k Kind) String() string {
	switch k {
	case AuthorizationFailure:
		return "authorization failure"
	case MalformedInput:
		return "malformed input"
	case SerializationFailure:
		return "serialization failure"
	case BackendUnavailable:
		return "backend unavailable"
	case BackendError:
		return "backend error"
	case ConfigurationMissing:
		return "configuration missing"
	default:
		return "unknown"
	}
}

// Status maps a kind to the HTTP status returned to the caller.
func (k Kind) Status() int {
	switch k {
	case AuthorizationFailure:
		return http.StatusUnauthorized
	case MalformedInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure with an optional underlying cause and an
// optional detail string (for backend errors, the upstream response body).
type Error struct {
	Kind   Kind
	Cause  error
	Detail string
}

func (e *Error) Error() string {
	switch {
	case e.Cause != nil && e.Detail != "":
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Cause)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an Error of the given kind wrapping cause.
func New(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

// Newf builds an Error of the given kind with a formatted detail and no
// underlying cause.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// WithDetail builds an Error carrying both a cause and a detail string.
func WithDetail(kind Kind, cause error, detail string) *Error {
	return &Error{Kind: kind, Cause: cause, Detail: detail}
}

// Missing reports a required configuration variable that was not set.
func Missing(name string) *Error {
	return &Error{Kind: ConfigurationMissing, Detail: name + " is required"}
}

// KindOf extracts the kind from err. Errors outside the taxonomy are
// treated as BackendUnavailable so they surface as 500s.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return BackendUnavailable
}

// StatusOf maps err to the HTTP status for its kind.
func StatusOf(err error) int {
	return KindOf(err).Status()
}
