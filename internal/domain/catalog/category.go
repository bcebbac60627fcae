package catalog

// Category is a node of the flat, slug-addressed category collection.
// ParentID 0 marks a root.
type Category struct {
	ID          int64
	Slug        string
	Name        string
	ParentID    int64
	Description string
	Display     string // default, products, subcategories, both
	MenuOrder   int
	Count       int // number of published products
	Image       *Image
}

// IsRoot returns true if this is a root category (no parent)
func (c Category) IsRoot() bool {
	return c.ParentID == 0
}

// IsChildOf reports whether c sits directly under parent
func (c Category) IsChildOf(parent Category) bool {
	return c.ParentID != 0 && c.ParentID == parent.ID
}

// CategoryImage is a category together with its featured media, as served by
// the content namespace of the catalog.
type CategoryImage struct {
	ID            int64
	Name          string
	Slug          string
	Description   string
	Count         int
	FeaturedImage *FeaturedImage // nil when the category has no featured media
}

// FeaturedImage describes a media attachment. Width and Height are nil when
// the catalog does not report them.
type FeaturedImage struct {
	URL    string
	Alt    string
	Width  *int
	Height *int
}
