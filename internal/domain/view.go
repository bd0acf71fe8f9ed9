package domain

import (
	"context"
	"errors"
)

// Routes pushed to the navigation collaborator.
const (
	RouteHome       = "/"
	RouteSignIn     = "/sign-in"
	RouteRegister   = "/register"
	RouteCreateUser = "/create-user"
)

// ErrorKind tells the renderer whether offering a retry makes sense.
type ErrorKind string

const (
	ErrorKindRetryable ErrorKind = "retryable"
	ErrorKindTerminal  ErrorKind = "terminal"
)

// ViewError is the displayable error state a view exposes after a failed
// boundary call. It replaces thrown errors: views keep running and the
// renderer decides how to show it.
type ViewError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
	Detail  string    `json:"detail,omitempty"`
}

// NewViewError classifies err under a user-facing message.
// Returns nil for a nil error.
func NewViewError(message string, err error) *ViewError {
	if err == nil {
		return nil
	}

	ve := &ViewError{
		Kind:    ErrorKindTerminal,
		Message: message,
		Detail:  err.Error(),
	}

	var validation *ErrValidation
	var unauthorized *ErrUnauthorized
	var inFlight *ErrInFlight
	switch {
	case errors.As(err, &validation):
		ve.Field = validation.Field
		ve.Detail = validation.Message
	case errors.As(err, &unauthorized):
		ve.Detail = unauthorized.Error()
	case errors.As(err, &inFlight):
		ve.Kind = ErrorKindRetryable
	case errors.Is(err, context.DeadlineExceeded):
		ve.Kind = ErrorKindRetryable
	case IsRetryable(err):
		ve.Kind = ErrorKindRetryable
	}
	return ve
}
