package catalog

import (
	"errors"

	"github.com/storefront/backend/internal/domain/shared"
)

// Catalog error codes that are not shared with other domains
const (
	CodeInvalidHierarchy    = "INVALID_HIERARCHY"
	CodeHierarchyTooDeep    = "HIERARCHY_TOO_DEEP"
	CodeInvalidRoute        = "INVALID_ROUTE"
	CodeSearchQueryTooShort = "SEARCH_QUERY_TOO_SHORT"
)

var (
	ErrProductNotFound     = shared.NewDomainError(shared.CodeNotFound, "Product not found")
	ErrCategoryNotFound    = shared.NewDomainError(shared.CodeNotFound, "Category not found")
	ErrInvalidHierarchy    = shared.NewDomainError(CodeInvalidHierarchy, "Invalid category hierarchy")
	ErrHierarchyTooDeep    = shared.NewDomainError(CodeHierarchyTooDeep, "Category routes support at most two levels")
	ErrInvalidRoute        = shared.NewDomainError(CodeInvalidRoute, "Category route is empty")
	ErrSearchQueryTooShort = shared.NewDomainError(CodeSearchQueryTooShort, "Search query must be at least 2 characters long")
)

// IsValidationError reports whether err is a caller mistake rather than an
// absence or an upstream failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidHierarchy) ||
		errors.Is(err, ErrHierarchyTooDeep) ||
		errors.Is(err, ErrInvalidRoute) ||
		errors.Is(err, ErrSearchQueryTooShort)
}
