package domain

import (
	"errors"
	"fmt"
)

// Error types for consistent error handling across the panel.

// ErrNotFound indicates the remote API answered 404 for a resource.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure calling the remote stock API.
// Status is zero when the request never got a response (transport failure).
type ErrExternalService struct {
	Service string
	Status  int
	Body    string
	Err     error
}

func (e *ErrExternalService) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("external service error [%s]: status %d: %v", e.Service, e.Status, e.Err)
	}
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// Retryable reports whether the same request could succeed later:
// transport failures, 5xx and 429 are retryable, any other status is not.
func (e *ErrExternalService) Retryable() bool {
	return e.Status == 0 || e.Status >= 500 || e.Status == 429
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrConflict indicates a resource already exists (e.g. duplicate document).
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}

// ErrMalformedResponse indicates a 2xx response missing a field the flow depends on.
type ErrMalformedResponse struct {
	Service string
	Field   string
}

func (e *ErrMalformedResponse) Error() string {
	return fmt.Sprintf("malformed response from %s: missing %q", e.Service, e.Field)
}

// ErrInFlight indicates a submission was attempted while the previous one
// of the same view is still running.
type ErrInFlight struct {
	View string
}

func (e *ErrInFlight) Error() string {
	return fmt.Sprintf("%s: submission already in progress", e.View)
}

// ErrSignupIncomplete indicates the user record was created but the follow-up
// login failed. Resubmitting resumes at the login phase.
type ErrSignupIncomplete struct {
	UserID string
	Err    error
}

func (e *ErrSignupIncomplete) Error() string {
	return fmt.Sprintf("user %s created but login failed: %v", e.UserID, e.Err)
}

func (e *ErrSignupIncomplete) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err belongs to the retryable kind
// (network failure, upstream 5xx/429, open circuit).
func IsRetryable(err error) bool {
	var ext *ErrExternalService
	var open *ErrCircuitOpen
	switch {
	case errors.As(err, &open):
		return true
	case errors.As(err, &ext):
		return ext.Retryable()
	default:
		return false
	}
}
