// Package apperr defines the typed error kinds that every AAC component
// returns. Only the outermost HTTP handler maps one of these to a wire
// response; service and storage code never writes status codes directly.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is one of the externally-observable error outcomes.
type Kind string

const (
	KindValidation  Kind = "INVALID_ARGUMENT"
	KindAuthN       Kind = "UNAUTHENTICATED"
	KindForbidden   Kind = "PERMISSION_DENIED"
	KindNotFound    Kind = "NOT_FOUND"
	KindConflict    Kind = "ALREADY_EXISTS"
	KindRateLimited Kind = "RESOURCE_EXHAUSTED"
	KindInternal    Kind = "INTERNAL"
)

// Error is a typed, wrappable application error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status code for the error kind.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthN:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func new_(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Validation(msg string, err error) *Error  { return new_(KindValidation, msg, err) }
func AuthN(msg string, err error) *Error       { return new_(KindAuthN, msg, err) }
func Forbidden(msg string, err error) *Error   { return new_(KindForbidden, msg, err) }
func NotFound(msg string, err error) *Error    { return new_(KindNotFound, msg, err) }
func Conflict(msg string, err error) *Error    { return new_(KindConflict, msg, err) }
func RateLimited(msg string, err error) *Error { return new_(KindRateLimited, msg, err) }
func Internal(msg string, err error) *Error    { return new_(KindInternal, msg, err) }

// As is a thin convenience wrapper over errors.As for *Error.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of err, defaulting to KindInternal for untyped errors.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}
