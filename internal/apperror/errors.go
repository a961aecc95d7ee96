package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common conditions.
var (
	ErrNotFound           = errors.New("not found")
	ErrRoleNotFound       = errors.New("role not found")
	ErrValidation         = errors.New("validation error")
	ErrSpecResolution     = errors.New("spec resolution error")
	ErrExecutableNotFound = errors.New("executable not found")
	ErrTimeout            = errors.New("execution timed out")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInternal           = errors.New("internal error")
)

// AppError is a structured error with an HTTP status code and optional fields.
type AppError struct {
	Err     error
	Message string
	Status  int
	Fields  map[string]string
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error for an unknown client.
func NotFound(format string, args ...interface{}) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf(format, args...),
		Status:  http.StatusNotFound,
	}
}

// RoleNotFound creates a 404 error for an unknown role.
func RoleNotFound(format string, args ...interface{}) *AppError {
	return &AppError{
		Err:     ErrRoleNotFound,
		Message: fmt.Sprintf(format, args...),
		Status:  http.StatusNotFound,
	}
}

// Validation creates a 400 error.
func Validation(format string, args ...interface{}) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: fmt.Sprintf(format, args...),
		Status:  http.StatusBadRequest,
	}
}

// SpecResolution creates an error for a parser or runner specifier that
// cannot be bound to an implementation.
func SpecResolution(format string, args ...interface{}) *AppError {
	return &AppError{
		Err:     ErrSpecResolution,
		Message: fmt.Sprintf(format, args...),
		Status:  http.StatusInternalServerError,
	}
}

// ExecutableNotFound creates a 502 error for a command that cannot be
// located or launched.
func ExecutableNotFound(format string, args ...interface{}) *AppError {
	return &AppError{
		Err:     ErrExecutableNotFound,
		Message: fmt.Sprintf(format, args...),
		Status:  http.StatusBadGateway,
	}
}

// Timeout creates a 504 error for an invocation that exceeded its budget.
func Timeout(format string, args ...interface{}) *AppError {
	return &AppError{
		Err:     ErrTimeout,
		Message: fmt.Sprintf(format, args...),
		Status:  http.StatusGatewayTimeout,
	}
}

// Internal creates a 500 error.
func Internal(format string, args ...interface{}) *AppError {
	return &AppError{
		Err:     ErrInternal,
		Message: fmt.Sprintf(format, args...),
		Status:  http.StatusInternalServerError,
	}
}

// HTTPStatus extracts the HTTP status code from an error, defaulting to 500.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrRoleNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrExecutableNotFound):
		return http.StatusBadGateway
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Kind returns a short machine-readable name for the error category,
// used in API responses and metric labels.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrRoleNotFound):
		return "role_not_found"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrSpecResolution):
		return "spec_resolution_error"
	case errors.Is(err, ErrExecutableNotFound):
		return "executable_not_found"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	default:
		return "internal_error"
	}
}
