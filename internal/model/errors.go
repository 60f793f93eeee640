package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrProfileExists      = errors.New("profile already exists")
	ErrUnavailable        = errors.New("backend temporarily unavailable")
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrNotAuthenticated   = errors.New("user not authenticated")
	ErrClosed             = errors.New("session manager closed")
	ErrInvalidInput       = errors.New("invalid input")
)

// ErrorKind classifies controller errors for consumers.
type ErrorKind string

const (
	KindCredentials              ErrorKind = "credentials"
	KindMissingSessionData       ErrorKind = "missing_session_data"
	KindSessionFetch             ErrorKind = "session_fetch"
	KindProfileFetch             ErrorKind = "profile_fetch"
	KindProfileProvisionConflict ErrorKind = "profile_provision_conflict"
	KindTimeout                  ErrorKind = "timeout"
	KindInvalidInput             ErrorKind = "invalid_input"
	KindProviderRejected         ErrorKind = "provider_rejected"
	KindUnknown                  ErrorKind = "unknown"
)

// AuthError is the error recorded in State.Error and returned by operations.
type AuthError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// NewAuthError wraps err with a kind and the failing operation.
func NewAuthError(kind ErrorKind, op string, err error) *AuthError {
	return &AuthError{Kind: kind, Op: op, Err: err}
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or KindUnknown when err is not an AuthError.
func KindOf(err error) ErrorKind {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return KindUnknown
}

// ProviderError is a non-transient rejection reported by the identity backend.
type ProviderError struct {
	Status  int
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("identity provider: %s (status %d, code %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("identity provider: %s (status %d)", e.Message, e.Status)
}
