// Package apperr classifies failures so HTTP handlers can pick a status code
// and decide whether the message is safe to show to a client.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	Internal Kind = iota
	Validation
	NotFound
	Conflict
	Upstream
	Configuration
	Timeout
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case Upstream:
		return "upstream"
	case Configuration:
		return "configuration"
	case Timeout:
		return "timeout"
	}
	return "internal"
}

// Error carries a kind, a client-facing message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Validationf(format string, args ...any) *Error {
	return New(Validation, fmt.Sprintf(format, args...))
}

func NotFoundf(format string, args ...any) *Error {
	return New(NotFound, fmt.Sprintf(format, args...))
}

func Conflictf(format string, args ...any) *Error {
	return New(Conflict, fmt.Sprintf(format, args...))
}

func Configf(format string, args ...any) *Error {
	return New(Configuration, fmt.Sprintf(format, args...))
}

// Upstreamf wraps a provider or backend failure; err may be nil.
func Upstreamf(err error, format string, args ...any) *Error {
	return Wrap(Upstream, fmt.Sprintf(format, args...), err)
}

// KindOf returns the kind of the first *Error in the chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool { return err != nil && KindOf(err) == kind }

// HTTPStatus maps a kind to its response status.
func HTTPStatus(k Kind) int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case Upstream:
		return http.StatusBadGateway
	case Timeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// GenericMessage is shown in place of upstream and configuration details.
const GenericMessage = "something went wrong, please try again later"

// Public reports whether the message of err may be returned to a client.
func Public(err error) bool {
	switch KindOf(err) {
	case Validation, NotFound, Conflict, Timeout:
		return true
	}
	return false
}

// ClientMessage returns the text a client should see for err.
func ClientMessage(err error) string {
	var e *Error
	if Public(err) && errors.As(err, &e) {
		return e.Message
	}
	return GenericMessage
}
