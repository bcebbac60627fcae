package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeUpstreamUnavailable is used when the remote catalog cannot be reached
	ErrCodeUpstreamUnavailable = "ERR_UPSTREAM_UNAVAILABLE"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRange is used when a value is out of range
	ErrCodeValidationRange = "ERR_VALIDATION_RANGE"
	// ErrCodeSearchQueryTooShort is used when a search term is below the minimum length
	ErrCodeSearchQueryTooShort = "ERR_SEARCH_QUERY_TOO_SHORT"
)

// Access error codes
const (
	// ErrCodeForbidden is used when the target is not permitted, e.g. an image host off the allow-list
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeRateLimited is used when a client exceeds its request budget
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
)

// Category route error codes
const (
	// ErrCodeInvalidHierarchy is used when a child slug exists under a different parent
	ErrCodeInvalidHierarchy = "ERR_INVALID_HIERARCHY"
	// ErrCodeHierarchyTooDeep is used when a route has more levels than supported
	ErrCodeHierarchyTooDeep = "ERR_HIERARCHY_TOO_DEEP"
	// ErrCodeInvalidRoute is used for an empty category route
	ErrCodeInvalidRoute = "ERR_INVALID_ROUTE"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidURL is used when the image proxy url parameter is missing or malformed
	ErrCodeInvalidURL = "ERR_INVALID_URL"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:             http.StatusInternalServerError,
	ErrCodeInternal:            http.StatusInternalServerError,
	ErrCodeUpstreamUnavailable: http.StatusBadGateway,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeValidationRange:     http.StatusBadRequest,
	ErrCodeSearchQueryTooShort: http.StatusBadRequest,

	ErrCodeForbidden:   http.StatusForbidden,
	ErrCodeRateLimited: http.StatusTooManyRequests,

	ErrCodeNotFound: http.StatusNotFound,

	// Category route errors -> 400 Bad Request
	ErrCodeInvalidHierarchy: http.StatusBadRequest,
	ErrCodeHierarchyTooDeep: http.StatusBadRequest,
	ErrCodeInvalidRoute:     http.StatusBadRequest,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidURL:   http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":              ErrCodeNotFound,
	"INVALID_INPUT":          ErrCodeInvalidInput,
	"FORBIDDEN":              ErrCodeForbidden,
	"UPSTREAM_UNAVAILABLE":   ErrCodeUpstreamUnavailable,
	"INVALID_HIERARCHY":      ErrCodeInvalidHierarchy,
	"HIERARCHY_TOO_DEEP":     ErrCodeHierarchyTooDeep,
	"INVALID_ROUTE":          ErrCodeInvalidRoute,
	"SEARCH_QUERY_TOO_SHORT": ErrCodeSearchQueryTooShort,
	"VALIDATION_ERROR":       ErrCodeValidation,
	"BAD_REQUEST":            ErrCodeBadRequest,
	"INTERNAL_ERROR":         ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the API format
// If the code is already in the API format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
