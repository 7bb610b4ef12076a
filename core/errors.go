package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// ErrorKind tells the transport layer how to report a domain error.
type ErrorKind uint8

const (
	KindInvalid ErrorKind = iota + 1
	KindForbidden
	KindNotFound
	KindGone
)

// Error is a domain error with a client-safe message.
// Sentinels are compared by identity, so build them once at package level.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (err *Error) Error() string { return err.Message }

func NewInvalidError(msg string) error   { return &Error{Kind: KindInvalid, Message: msg} }
func NewForbiddenError(msg string) error { return &Error{Kind: KindForbidden, Message: msg} }
func NewNotFoundError(msg string) error  { return &Error{Kind: KindNotFound, Message: msg} }
func NewGoneError(msg string) error      { return &Error{Kind: KindGone, Message: msg} }

// IsKind reports whether the cause of err is a domain Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	dErr, ok := errors.Cause(err).(*Error)
	return ok && dErr.Kind == kind
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
