package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
	// Fields names the offending inputs, e.g. the canonical columns missing from an upload
	Fields []string
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
			Fields:  appErr.Fields,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
			Fields:  appErr.Fields,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is, or wraps, an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the error code of the outermost AppError in the chain, otherwise "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// GetFields returns the offending fields carried by the error chain, if any
func GetFields(err error) []string {
	for err != nil {
		var appErr *AppError
		if !stderrors.As(err, &appErr) {
			return nil
		}
		if len(appErr.Fields) > 0 {
			return appErr.Fields
		}
		err = appErr.Cause
	}
	return nil
}

// As is errors.As from the standard library, re-exported so callers need a single errors import
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// Is reports whether err carries the given code
func Is(err error, code string) bool {
	return GetCode(err) == code
}

// Predefined error codes
const (
	CodeConfigInvalid      = "CONFIG_INVALID"
	CodeValidationError    = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeConflict           = "CONFLICT"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeMissingColumns     = "MISSING_COLUMNS"
	CodeInvalidFormat      = "INVALID_FORMAT"
	CodePersistenceFailure = "PERSISTENCE_FAILURE"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found.", resource))
}

func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, message)
}

func Conflict(message string) *AppError {
	return New(CodeConflict, message)
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

// MissingColumns reports canonical columns that no upload header could supply
func MissingColumns(fields []string) *AppError {
	return &AppError{
		Code:    CodeMissingColumns,
		Message: fmt.Sprintf("Missing required columns: %s", strings.Join(fields, ", ")),
		Fields:  fields,
	}
}

// InvalidFormat reports an upload that is not readable delimited text
func InvalidFormat(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeInvalidFormat,
		Message: message,
		Cause:   cause,
	}
}

// PersistenceFailure reports a storage fault during an atomic commit
func PersistenceFailure(operation string, cause error) *AppError {
	return &AppError{
		Code:    CodePersistenceFailure,
		Message: fmt.Sprintf("Database error: %s", operation),
		Cause:   cause,
	}
}
