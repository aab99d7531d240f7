package common

import (
	"errors"
	"net/http"
)

// AppError is a domain failure translated for an HTTP client.
type AppError struct {
	Status  int
	Code    string
	Message string
	Details any
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// NewAppError wraps err with a client facing status, code and message.
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{Status: status, Code: code, Message: message, Err: err}
}

// Internal is the generic failure shown when the cause must not leak.
func Internal(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, "SERVER_ERROR", "Something went wrong, please try again later", err)
}

// AsAppError returns the AppError in err's chain, or Internal(err).
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
