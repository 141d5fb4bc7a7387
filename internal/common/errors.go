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

// Error codes. Job-level codes end up in RunMetrics.fails; run-level
// codes abort the run.
const (
	CodeInvalidSource   = "InvalidSourceError"
	CodeConversion      = "ConversionError"
	CodeTimeout         = "TimeoutError"
	CodeDevice          = "DeviceError"
	CodeOutputCollision = "OutputCollisionError"
	CodeIO              = "IOError"
	CodeConfig          = "ConfigError"
)

// Error kinds produced by the orchestrator itself. Converter-reported kinds
// (CorruptDocument, UnsupportedFormat, ...) pass through untouched.
const (
	KindTimeout               = "Timeout"
	KindWorkerCrashed         = "WorkerCrashed"
	KindConverterUnavailable  = "ConverterUnavailable"
	KindDeviceUnavailable     = "DeviceUnavailable"
	KindMalformedOutput       = "MalformedOutput"
	KindCorruptDocument       = "CorruptDocument"
	KindUnsupportedFormat     = "UnsupportedFormat"
	KindInvalidCrossReference = "InvalidCrossReference"
	KindSchemaViolation       = "SchemaViolation"
	KindOutputWriteFailed     = "OutputWriteFailed"
	KindConversion            = "ConversionError"
)

// Common application errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("resource not found")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")
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

func InvalidSourceError(message string, cause error) error {
	return NewAppError(CodeInvalidSource, message, cause)
}

func OutputCollisionError(message string) error {
	return NewAppError(CodeOutputCollision, message, nil)
}

func IOError(message string, cause error) error {
	return NewAppError(CodeIO, message, cause)
}

func ConfigError(message string, cause error) error {
	return NewAppError(CodeConfig, message, cause)
}

func DeviceError(message string, cause error) error {
	return NewAppError(CodeDevice, message, cause)
}

// IsCode reports whether err carries an AppError with the given code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// CodeOf returns the code of the outermost AppError in err's chain, or "".
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// ClassOf maps a job error kind onto the error taxonomy class reported in
// RunMetrics.fails.
func ClassOf(kind string) string {
	switch kind {
	case KindTimeout:
		return CodeTimeout
	case KindDeviceUnavailable:
		return CodeDevice
	case KindOutputWriteFailed:
		return CodeIO
	default:
		return CodeConversion
	}
}
