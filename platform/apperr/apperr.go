// Package apperr defines the typed errors repositories and handlers exchange.
// httpkit.HandleError turns them into HTTP responses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for HTTP mapping.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindValidation
	KindBadRequest
	KindForbidden
	KindInternal
)

var statusByKind = map[Kind]int{
	KindNotFound:   http.StatusNotFound,
	KindValidation: http.StatusBadRequest,
	KindBadRequest: http.StatusBadRequest,
	KindForbidden:  http.StatusForbidden,
	KindInternal:   http.StatusInternalServerError,
}

// Error carries a Kind, a client-facing message and optionally the
// operation and cause behind it.
type Error struct {
	Kind    Kind
	Message string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the Kind to a status code. Unknown kinds are 400.
func (e *Error) HTTPStatus() int {
	if status, ok := statusByKind[e.Kind]; ok {
		return status
	}
	return http.StatusBadRequest
}

// WithOp records the failing operation.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// Wrap attaches a Kind and message to a cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NotFound(message string) *Error   { return &Error{Kind: KindNotFound, Message: message} }
func Validation(message string) *Error { return &Error{Kind: KindValidation, Message: message} }
func BadRequest(message string) *Error { return &Error{Kind: KindBadRequest, Message: message} }
func Forbidden(message string) *Error  { return &Error{Kind: KindForbidden, Message: message} }
func Internal(message string) *Error   { return &Error{Kind: KindInternal, Message: message} }

// As finds the first *Error in err's chain, so typed errors survive
// fmt.Errorf("...: %w") wrapping in services.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
