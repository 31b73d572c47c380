package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrTooLarge     = errors.New("document exceeds size ceiling")
	ErrUnsupported  = errors.New("unsupported document type")
	ErrCorrupt      = errors.New("document cannot be opened")
	ErrInvalidInput = errors.New("invalid input")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")
)

// Error codes carried by AppError.Code.
const (
	CodeNotFound    = "NOT_FOUND"
	CodeTooLarge    = "TOO_LARGE"
	CodeUnsupported = "UNSUPPORTED"
	CodeCorrupt     = "CORRUPT"
	CodeConfig      = "CONFIG_ERROR"
	CodeDatabase    = "DB_ERROR"
	CodeValidation  = "VALIDATION_ERROR"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsFatal reports whether err rejects a document outright (as opposed to degrading the result).
func IsFatal(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrTooLarge) ||
		errors.Is(err, ErrUnsupported) ||
		errors.Is(err, ErrCorrupt)
}
