package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error into the response taxonomy.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindPersistence
)

// AppError carries a user-facing message, an error kind and the wrapped cause.
type AppError struct {
	Kind    Kind   `json:"-"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error kind to its HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func Validation(message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message}
}

func Unauthenticated(message string) *AppError {
	return &AppError{Kind: KindUnauthenticated, Message: message}
}

func Forbidden(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

func NotFound(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

func Conflict(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

// Persistence wraps a backing-store failure. The client sees only the generic
// message; the cause stays attached for server-side logging.
func Persistence(err error) *AppError {
	return &AppError{Kind: KindPersistence, Message: "Error interno del servidor", Err: err}
}

// AsAppError extracts an *AppError from an error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Kind == kind
	}
	return false
}
