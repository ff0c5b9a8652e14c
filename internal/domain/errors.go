package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeInvalidEntity = "INVALID_ENTITY"
	ErrCodeDateFormat    = "DATE_FORMAT_ERROR"
	ErrCodeUpstream      = "UPSTREAM_ERROR"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrInvalidSourceType    = NewDomainError(ErrCodeValidation, "invalid source type")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
)

// Authentication errors
var (
	ErrSessionExpired = NewDomainError(ErrCodeUnauthorized, "session expired")
	ErrNoSession      = NewDomainError(ErrCodeUnauthorized, "no active session")
)

// Upstream errors
var (
	ErrMalformedPayload = NewDomainError(ErrCodeUpstream, "malformed backend payload")
)

// NewInvalidEntityError reports a search result entity that is missing its
// ordering key. The offending source is named so the upstream data contract
// violation can be traced.
func NewInvalidEntityError(sourceID string) *DomainError {
	return NewDomainError(ErrCodeInvalidEntity, fmt.Sprintf("entity for source %q has no primary key", sourceID))
}

// NewDateFormatError reports a date string that is not YYYY-MM-DD.
func NewDateFormatError(input string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeDateFormat, fmt.Sprintf("malformed date %q", input), err)
}
