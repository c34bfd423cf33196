package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("already exists")
	ErrServer     = errors.New("server error")
	ErrTransport  = errors.New("transport error")

	// Transport failures the client can tell apart.
	ErrNonJSONResponse = fmt.Errorf("%w: non-JSON response", ErrTransport)
	ErrMalformedJSON   = fmt.Errorf("%w: malformed JSON", ErrTransport)
)

// Error carries a message meant for the user together with its kind
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Errorf builds an *Error of the given kind
func Errorf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf is shorthand for Errorf(ErrNotFound, ...)
func NotFoundf(format string, args ...any) error {
	return Errorf(ErrNotFound, format, args...)
}
