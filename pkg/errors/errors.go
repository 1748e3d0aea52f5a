package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the error type every public SDK operation returns. Code
// classifies the failure, Message carries human-readable context and Err
// holds the underlying cause, if any.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Normalize is the classification funnel every public operation passes its
// failures through. An error that is already an *AppError keeps its original
// classification; anything else is wrapped with the given code and message.
func Normalize(err error, code, message string) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, code, message)
}

// IsCode reports whether err carries the given classification code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Common error codes
const (
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeContract   = "CONTRACT_ERROR"
	ErrCodeAPI        = "API_ERROR"
)
