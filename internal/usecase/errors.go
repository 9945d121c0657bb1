package usecase

import (
	"errors"

	"github.com/samber/oops"
)

// Kind classifies a service failure for the transport layer.
type Kind int

const (
	KindServer Kind = iota
	KindValidation
	KindConflict
	KindAuth
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindConflict:
		return "conflict"
	case KindAuth:
		return "auth_failed"
	case KindNotFound:
		return "not_found"
	default:
		return "server_error"
	}
}

// Client-facing messages. Authentication failures share one message per
// flow so responses never reveal which check failed.
const (
	MsgValidationFailed   = "validation failed"
	MsgEmailTaken         = "user already exists"
	MsgInvalidCredentials = "invalid credentials"
	MsgInvalidFederated   = "invalid federated credential"
	MsgInvalidResetCode   = "invalid or expired reset code"
	MsgUserNotFound       = "user not found"
	MsgServerError        = "server error"
)

// Error is returned by every service operation. Message is safe to show to
// clients; Err keeps the internal cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err; anything unclassified is a server error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindServer
}

func validationError(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: MsgValidationFailed, Fields: fields}
}

func conflictError(message string, cause error) *Error {
	return &Error{Kind: KindConflict, Message: message, Err: cause}
}

func authError(message string, cause error) *Error {
	return &Error{Kind: KindAuth, Message: message, Err: cause}
}

func notFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// serverError tags a collaborator failure with an oops code so the log line
// carries the failing operation.
func serverError(code, operation string, err error) *Error {
	return &Error{
		Kind:    KindServer,
		Message: MsgServerError,
		Err:     oops.Code(code).With("operation", operation).Wrap(err),
	}
}
