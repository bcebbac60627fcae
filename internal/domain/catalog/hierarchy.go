package catalog

import (
	"fmt"
	"strings"
)

// MaxRouteDepth is the deepest category route the storefront serves: a root
// category and one child.
const MaxRouteDepth = 2

// Route is a resolved category path. Parent and Siblings are only set for a
// two-segment route.
type Route struct {
	Category      Category
	Parent        *Category
	Subcategories []Category
	Siblings      []Category
}

// FindBySlug returns the first category whose slug matches exactly
func FindBySlug(categories []Category, slug string) (Category, bool) {
	for _, c := range categories {
		if c.Slug == slug {
			return c, true
		}
	}
	return Category{}, false
}

// SubcategoriesOf returns the direct children of parentID in input order.
// Parent 0 yields the root categories.
func SubcategoriesOf(categories []Category, parentID int64) []Category {
	out := make([]Category, 0)
	for _, c := range categories {
		if c.ParentID == parentID {
			out = append(out, c)
		}
	}
	return out
}

// SiblingsOf returns the categories that share c's parent, excluding c
func SiblingsOf(categories []Category, c Category) []Category {
	out := make([]Category, 0)
	for _, other := range categories {
		if other.ParentID == c.ParentID && other.ID != c.ID {
			out = append(out, other)
		}
	}
	return out
}

// SplitRoute turns a URL path such as "/outdoor/chairs/" into its segments
func SplitRoute(path string) []string {
	parts := strings.Split(path, "/")
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// ResolveRoute maps slug segments onto the category collection.
//
// One segment resolves a category and its children. Two segments resolve a
// root parent and a child that must sit directly under it; a child that exists
// elsewhere in the collection is ErrInvalidHierarchy, not ErrCategoryNotFound.
func ResolveRoute(categories []Category, segments []string) (*Route, error) {
	switch {
	case len(segments) == 0:
		return nil, ErrInvalidRoute
	case len(segments) > MaxRouteDepth:
		return nil, fmt.Errorf("%w: %d segments", ErrHierarchyTooDeep, len(segments))
	}

	first, ok := FindBySlug(categories, segments[0])
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCategoryNotFound, segments[0])
	}

	if len(segments) == 1 {
		return &Route{
			Category:      first,
			Subcategories: SubcategoriesOf(categories, first.ID),
			Siblings:      []Category{},
		}, nil
	}

	if !first.IsRoot() {
		return nil, fmt.Errorf("%w: %q is not a top-level category", ErrHierarchyTooDeep, first.Slug)
	}

	child, ok := findChild(categories, first, segments[1])
	if !ok {
		if _, exists := FindBySlug(categories, segments[1]); exists {
			return nil, fmt.Errorf("%w: %q is not under %q", ErrInvalidHierarchy, segments[1], first.Slug)
		}
		return nil, fmt.Errorf("%w: %q", ErrCategoryNotFound, segments[1])
	}

	parent := first
	return &Route{
		Category:      child,
		Parent:        &parent,
		Subcategories: SubcategoriesOf(categories, child.ID),
		Siblings:      SiblingsOf(categories, child),
	}, nil
}

// findChild looks the slug up among parent's direct children only, so a slug
// reused under another parent does not shadow the correct one.
func findChild(categories []Category, parent Category, slug string) (Category, bool) {
	for _, c := range categories {
		if c.Slug == slug && c.IsChildOf(parent) {
			return c, true
		}
	}
	return Category{}, false
}
