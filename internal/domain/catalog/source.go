package catalog

import "context"

// ProductQuery filters a product listing. Zero values are left to the
// catalog's own defaults.
type ProductQuery struct {
	Page     int
	PerPage  int
	Status   string
	Featured *bool
	Slug     string
	Category string // category id as accepted by the catalog
	Search   string
	OrderBy  string
	Order    string
	Include  []int64
}

// CategoryQuery filters a category listing
type CategoryQuery struct {
	Page      int
	PerPage   int
	HideEmpty bool
}

// Source is the read side of the remote catalog.
// Implementations return NotFound-coded errors only when the catalog
// positively reports absence; transport and HTTP failures are returned as-is.
type Source interface {
	ListProducts(ctx context.Context, q ProductQuery) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (*Product, error)
	ListCategories(ctx context.Context, q CategoryQuery) ([]Category, error)
	GetCategory(ctx context.Context, id int64) (*Category, error)
	GetCategoryImage(ctx context.Context, id int64) (*CategoryImage, error)
}
