package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
	Err     error     `json:"-"`
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

// StatusCode maps the error code onto an HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrBadRequest, ErrValidation:
		return http.StatusBadRequest
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrForbidden
	ErrInternal
	ErrValidation
	ErrUpstream
)

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// NewValidation reports input rejected before anything is sent upstream.
func NewValidation(field, message string) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: message,
		Field:   field,
	}
}

// NewUpstream wraps a failed call to the clinic backend. The message is what
// the backend said, or fallback when it said nothing.
func NewUpstream(message, fallback string, status int, err error) *UpstreamError {
	if message == "" {
		message = fallback
	}
	return &UpstreamError{
		AppError: AppError{
			Code:    ErrUpstream,
			Message: message,
			Err:     err,
		},
		Status: status,
	}
}

// UpstreamError keeps the backend's HTTP status next to its message.
type UpstreamError struct {
	AppError
	Status int
}

func (e *UpstreamError) Unwrap() error {
	return &e.AppError
}

// StatusCode passes client errors (4xx) from the backend through unchanged.
func (e *UpstreamError) StatusCode() int {
	if e.Status >= 400 && e.Status < 500 {
		return e.Status
	}
	return http.StatusBadGateway
}

// WithFallback replaces the message of an upstream error that carried no
// backend message of its own.
func WithFallback(err error, fallback string) error {
	var up *UpstreamError
	if stderrors.As(err, &up) && up.Message == "" {
		up.Message = fallback
	}
	return err
}

// Common errors
func NotFound(resource string, err error) *AppError {
	return NewNotFound(resource, err)
}

func BadRequest(message string, err error) *AppError {
	return NewBadRequest(message, err)
}

func Internal(err error) *AppError {
	return NewInternal(err)
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "unauthorized",
		Err:     err,
	}
}

// IsNotFound reports whether err is, or wraps, a not-found error. A backend
// 404 counts as not found as well.
func IsNotFound(err error) bool {
	var app *AppError
	if stderrors.As(err, &app) && app.Code == ErrNotFound {
		return true
	}
	var up *UpstreamError
	return stderrors.As(err, &up) && up.Status == http.StatusNotFound
}

// Message returns the user-facing text of the outermost application error
// in err, falling back when there is none.
func Message(err error, fallback string) string {
	var app *AppError
	if stderrors.As(err, &app) && app.Message != "" {
		return app.Message
	}
	return fallback
}

// Status returns the HTTP status for err.
func Status(err error) int {
	var sc interface{ StatusCode() int }
	if stderrors.As(err, &sc) {
		return sc.StatusCode()
	}
	return http.StatusInternalServerError
}
