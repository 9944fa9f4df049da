package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies engine failures. Every type is recovered locally
// into a user-visible result record; none propagate as a crash.
type ErrorType string

const (
	// ErrorTypeSetupRequired is a state, not a failure: no credentials
	// are configured yet.
	ErrorTypeSetupRequired ErrorType = "setup_required"
	// ErrorTypeAuth covers bad credentials and sessions rejected by the
	// server.
	ErrorTypeAuth ErrorType = "auth"
	// ErrorTypeNetwork covers timeouts, transport failures and
	// unclassified HTTP errors.
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeData covers empty or unparsable responses.
	ErrorTypeData ErrorType = "data"
	// ErrorTypeStorage covers persistence failures.
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypeInternal is everything else.
	ErrorTypeInternal ErrorType = "internal"
)

// AppError is an application error with classification and, for HTTP
// failures, the status code the server answered with.
type AppError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Internal   error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s (status %d)", e.Type, e.Message, e.StatusCode)
	case e.Internal != nil:
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Internal)
	default:
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Is matches on error type so callers can compare against the predefined
// errors below.
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Type == t.Type
	}
	return errors.Is(e.Internal, target)
}

// LogFields returns structured logging fields for slog.
func (e *AppError) LogFields() []any {
	fields := []any{
		"error_type", string(e.Type),
		"error_message", e.Message,
	}
	if e.StatusCode != 0 {
		fields = append(fields, "status_code", e.StatusCode)
	}
	if e.Internal != nil {
		fields = append(fields, "internal_error", e.Internal.Error())
	}
	return fields
}

// New creates a new AppError.
func New(errorType ErrorType, message string) *AppError {
	return &AppError{Type: errorType, Message: message}
}

// Wrap wraps an existing error into an AppError.
func Wrap(err error, errorType ErrorType, message string) *AppError {
	return &AppError{Type: errorType, Message: message, Internal: err}
}

// NewHTTPError records a non-2xx server answer.
func NewHTTPError(statusCode int, message string) *AppError {
	errType := ErrorTypeNetwork
	if IsAuthStatus(statusCode) {
		errType = ErrorTypeAuth
	}
	return &AppError{Type: errType, Message: message, StatusCode: statusCode}
}

// IsAuthStatus reports whether an HTTP status indicates an auth or server
// side rejection. The Share API answers 500-class statuses for bad
// credentials, so those classify as auth failures rather than transient
// network trouble.
func IsAuthStatus(statusCode int) bool {
	return statusCode == 401 || statusCode >= 500
}

// TypeOf returns the classification of err, or ErrorTypeInternal for
// plain errors.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// Predefined errors for Is comparisons.
var (
	ErrSetupRequired    = New(ErrorTypeSetupRequired, "credentials not configured")
	ErrNotAuthenticated = New(ErrorTypeAuth, "no session held")
	ErrNoData           = New(ErrorTypeData, "server returned no readings")
)
