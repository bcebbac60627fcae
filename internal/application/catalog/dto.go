package catalog

import (
	"github.com/storefront/backend/internal/domain/catalog"
)

// ProductFilter narrows a product listing. Zero values take the gateway defaults.
type ProductFilter struct {
	Page     int
	PerPage  int
	Status   string
	Featured *bool
	Slug     string
	Category string
	Search   string
	OrderBy  string
	Order    string
	Include  []int64
}

// ProductList is one page of products
type ProductList struct {
	Items   []catalog.Product
	Page    int
	PerPage int
	// Degraded is set when the catalog could not be reached and Items is empty
	Degraded bool
}

// CategoryList is the flat category tree
type CategoryList struct {
	Items    []catalog.Category
	Degraded bool
}

// SearchResult is one page of search hits. TotalResults counts this page only;
// the catalog does not report a grand total to the storefront.
type SearchResult struct {
	Products     []catalog.Product
	Query        string
	Page         int
	PerPage      int
	TotalResults int
	HasMore      bool
	Degraded     bool
}
