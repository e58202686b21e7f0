package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error. Callers switch on Kind instead of
// inspecting error strings.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindUnauthorized
	KindUpload
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindUpload:
		return "upload"
	default:
		return "internal"
	}
}

// HTTPStatus maps the kind to the status code sent to clients.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindUpload:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is the tagged error returned by the service layer.
// Message is safe to show to clients; Err is the internal cause and is only logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind, so
// errors.Is(err, common.ErrorUnauthorized) matches any unauthorized error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// HTTPStatus is a shortcut for e.Kind.HTTPStatus().
func (e *Error) HTTPStatus() int {
	return e.Kind.HTTPStatus()
}

// NewError builds an error of the given kind.
func NewError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// Validation reports bad client input.
func Validation(message string) *Error {
	return NewError(KindValidation, message, nil)
}

// Conflict reports a uniqueness clash such as a taken username or email.
func Conflict(message string) *Error {
	return NewError(KindConflict, message, nil)
}

// NotFound reports a missing record.
func NotFound(message string) *Error {
	return NewError(KindNotFound, message, nil)
}

// Unauthorized reports missing or rejected credentials.
func Unauthorized(message string) *Error {
	return NewError(KindUnauthorized, message, nil)
}

// Upload reports a failed object-store upload.
func Upload(message string, cause error) *Error {
	return NewError(KindUpload, message, cause)
}

// Internal wraps an unexpected failure. Its message is never shown to clients.
func Internal(message string, cause error) *Error {
	return NewError(KindInternal, message, cause)
}

// KindOf returns the kind of err, or KindInternal for errors that are not *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

var (
	// Kind sentinels, to be matched with errors.Is.
	ErrorValidation   = &Error{Kind: KindValidation, Message: "validation error"}
	ErrorConflict     = &Error{Kind: KindConflict, Message: "already exists"}
	ErrorNotFound     = &Error{Kind: KindNotFound, Message: "not found"}
	ErrorUnauthorized = &Error{Kind: KindUnauthorized, Message: "unauthorized"}
	ErrorUpload       = &Error{Kind: KindUpload, Message: "upload failed"}
	ErrorInternal     = &Error{Kind: KindInternal, Message: "internal error"}

	// Token errors. An expired token is also an invalid one.
	ErrInvalidToken   = errors.New("invalid token")
	ErrMalformedToken = errors.New("malformed token")
	ErrTokenExpired   = fmt.Errorf("%w: token expired", ErrInvalidToken)
)
