package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes shared across the storefront domain
const (
	CodeNotFound            = "NOT_FOUND"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeForbidden           = "FORBIDDEN"
	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput        = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrForbidden           = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
	ErrUpstreamUnavailable = NewDomainError(CodeUpstreamUnavailable, "Catalog is temporarily unavailable")
)

// CodeOf returns the DomainError code carried by err, or "" when err has none
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsNotFound reports whether err carries the NOT_FOUND code
func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNotFound
}
