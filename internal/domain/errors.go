package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Validation Errors (VALIDATION_*)
	ErrorCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Configuration Errors (CONFIG_*)
	ErrorCodeConfigMissing ErrorCode = "CONFIG_MISSING"

	// Carrier Errors (UPSTREAM_*)
	ErrorCodeUpstreamUnauthorized ErrorCode = "UPSTREAM_UNAUTHORIZED"
	ErrorCodeUpstreamBadRequest   ErrorCode = "UPSTREAM_BAD_REQUEST"
	ErrorCodeUpstreamNotFound     ErrorCode = "UPSTREAM_NOT_FOUND"
	ErrorCodeUpstreamServer       ErrorCode = "UPSTREAM_SERVER_ERROR"
	ErrorCodeUpstreamUnavailable  ErrorCode = "UPSTREAM_UNAVAILABLE"
	ErrorCodeDecodeFailed         ErrorCode = "UPSTREAM_DECODE_FAILED"

	// Storage Errors
	ErrorCodePersistenceFailed ErrorCode = "PERSISTENCE_FAILED"
	ErrorCodeNotFound          ErrorCode = "NOT_FOUND"

	// Internal Errors (INTERNAL_*)
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// coded is implemented by every error type in this package
type coded interface {
	ErrorCode() ErrorCode
}

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// ErrorCode returns the machine-readable code
func (e *DomainError) ErrorCode() ErrorCode {
	return e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{Code: code, Message: message, Err: err}
}

// ValidationError is raised before any remote call when input is malformed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func (e *ValidationError) ErrorCode() ErrorCode { return ErrorCodeValidationFailed }

// NewValidationError creates a validation error for a single field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ConfigError means a required setting (usually a carrier credential) is absent.
// It is fatal for the call and never retried.
type ConfigError struct {
	Setting string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error (%s): %s", e.Setting, e.Message)
}

func (e *ConfigError) ErrorCode() ErrorCode { return ErrorCodeConfigMissing }

// UpstreamKind classifies carrier failures by HTTP status
type UpstreamKind string

const (
	UpstreamUnauthorized UpstreamKind = "unauthorized"
	UpstreamBadRequest   UpstreamKind = "bad_request"
	UpstreamNotFound     UpstreamKind = "not_found"
	UpstreamServer       UpstreamKind = "server"
	UpstreamUnavailable  UpstreamKind = "unavailable"
)

// UpstreamError is a carrier call that failed at transport level (StatusCode == 0)
// or answered with a non-2xx status.
type UpstreamError struct {
	Err        error
	Operation  string
	Body       string
	StatusCode int
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("carrier %s failed: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("carrier %s returned status %d", e.Operation, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Kind maps the status code to one of the distinct upstream subkinds
func (e *UpstreamError) Kind() UpstreamKind {
	switch e.StatusCode {
	case 0:
		return UpstreamUnavailable
	case http.StatusUnauthorized:
		return UpstreamUnauthorized
	case http.StatusBadRequest:
		return UpstreamBadRequest
	case http.StatusNotFound:
		return UpstreamNotFound
	default:
		return UpstreamServer
	}
}

func (e *UpstreamError) ErrorCode() ErrorCode {
	switch e.Kind() {
	case UpstreamUnauthorized:
		return ErrorCodeUpstreamUnauthorized
	case UpstreamBadRequest:
		return ErrorCodeUpstreamBadRequest
	case UpstreamNotFound:
		return ErrorCodeUpstreamNotFound
	case UpstreamUnavailable:
		return ErrorCodeUpstreamUnavailable
	default:
		return ErrorCodeUpstreamServer
	}
}

// DecodeError means the carrier answered 2xx with a body we could not use
type DecodeError struct {
	Err       error
	Operation string
	Reason    string
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("carrier %s response could not be decoded: %s: %v", e.Operation, e.Reason, e.Err)
	}
	return fmt.Sprintf("carrier %s response could not be decoded: %s", e.Operation, e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) ErrorCode() ErrorCode { return ErrorCodeDecodeFailed }

// PersistenceError wraps a ledger write failure. It is logged, never returned to HTTP callers.
type PersistenceError struct {
	Err       error
	Operation string
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed during %s: %v", e.Operation, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) ErrorCode() ErrorCode { return ErrorCodePersistenceFailed }

// GetErrorCode extracts the error code from an error, returns empty string if the error is not coded
func GetErrorCode(err error) ErrorCode {
	var c coded
	if errors.As(err, &c) {
		return c.ErrorCode()
	}
	return ""
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsConfigError checks if an error is a configuration error
func IsConfigError(err error) bool {
	var c *ConfigError
	return errors.As(err, &c)
}

// IsDecodeError checks if an error is a carrier decode error
func IsDecodeError(err error) bool {
	var d *DecodeError
	return errors.As(err, &d)
}

// AsUpstreamError returns the carrier error carried by err, if any
func AsUpstreamError(err error) (*UpstreamError, bool) {
	var u *UpstreamError
	if errors.As(err, &u) {
		return u, true
	}
	return nil, false
}

// IsNotFoundError checks if an error represents a "not found" condition
func IsNotFoundError(err error) bool {
	return GetErrorCode(err) == ErrorCodeNotFound
}

var (
	ErrOffersNotFound = NewDomainError(ErrorCodeNotFound, "no offers found")
	ErrInternalError  = NewDomainError(ErrorCodeInternalError, "internal server error")
)
