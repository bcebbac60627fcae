package catalog

import (
	"github.com/storefront/backend/internal/domain/catalog"
)

// Records are rebuilt field by field so that nothing from the upstream record
// reaches the storefront unless it is listed here.

func (g *Gateway) reshapeProducts(products []catalog.Product) []catalog.Product {
	out := make([]catalog.Product, 0, len(products))
	for _, p := range products {
		out = append(out, g.reshapeProduct(p))
	}
	return out
}

func (g *Gateway) reshapeProduct(p catalog.Product) catalog.Product {
	return catalog.Product{
		ID:               p.ID,
		Name:             p.Name,
		Slug:             p.Slug,
		Permalink:        p.Permalink,
		Type:             p.Type,
		Status:           p.Status,
		Featured:         p.Featured,
		Description:      p.Description,
		ShortDescription: p.ShortDescription,
		SKU:              p.SKU,
		Price:            p.Price,
		RegularPrice:     p.RegularPrice,
		SalePrice:        p.SalePrice,
		OnSale:           p.OnSale,
		Purchasable:      p.Purchasable,
		TotalSales:       p.TotalSales,
		StockQuantity:    copyInt(p.StockQuantity),
		StockStatus:      p.StockStatus,
		AverageRating:    p.AverageRating,
		RatingCount:      p.RatingCount,
		Images:           g.reshapeImages(p.Images),
		Categories:       copyTerms(p.Categories),
		Tags:             copyTerms(p.Tags),
		Attributes:       copyAttributes(p.Attributes),
		RelatedIDs:       append([]int64(nil), p.RelatedIDs...),
		DateCreated:      p.DateCreated,
		DateModified:     p.DateModified,
	}
}

func (g *Gateway) reshapeImages(images []catalog.Image) []catalog.Image {
	out := make([]catalog.Image, 0, len(images))
	for _, img := range images {
		out = append(out, g.reshapeImage(img))
	}
	return out
}

func (g *Gateway) reshapeImage(img catalog.Image) catalog.Image {
	return catalog.Image{
		ID:     img.ID,
		Src:    g.images.Rewrite(img.Src),
		SrcSet: g.images.RewriteSrcSet(img.SrcSet),
		Name:   img.Name,
		Alt:    img.Alt,
	}
}

func (g *Gateway) reshapeCategories(categories []catalog.Category) []catalog.Category {
	out := make([]catalog.Category, 0, len(categories))
	for _, c := range categories {
		out = append(out, g.reshapeCategory(c))
	}
	return out
}

func (g *Gateway) reshapeCategory(c catalog.Category) catalog.Category {
	reshaped := catalog.Category{
		ID:          c.ID,
		Slug:        c.Slug,
		Name:        c.Name,
		ParentID:    c.ParentID,
		Description: c.Description,
		Display:     c.Display,
		MenuOrder:   c.MenuOrder,
		Count:       c.Count,
	}
	if c.Image != nil {
		img := g.reshapeImage(*c.Image)
		reshaped.Image = &img
	}
	return reshaped
}

func (g *Gateway) reshapeCategoryImage(ci catalog.CategoryImage) catalog.CategoryImage {
	reshaped := catalog.CategoryImage{
		ID:          ci.ID,
		Name:        ci.Name,
		Slug:        ci.Slug,
		Description: ci.Description,
		Count:       ci.Count,
	}
	if ci.FeaturedImage != nil {
		reshaped.FeaturedImage = &catalog.FeaturedImage{
			URL:    g.images.Rewrite(ci.FeaturedImage.URL),
			Alt:    ci.FeaturedImage.Alt,
			Width:  copyInt(ci.FeaturedImage.Width),
			Height: copyInt(ci.FeaturedImage.Height),
		}
	}
	return reshaped
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

func copyTerms(terms []catalog.TermRef) []catalog.TermRef {
	out := make([]catalog.TermRef, 0, len(terms))
	for _, t := range terms {
		out = append(out, catalog.TermRef{ID: t.ID, Name: t.Name, Slug: t.Slug})
	}
	return out
}

func copyAttributes(attrs []catalog.Attribute) []catalog.Attribute {
	out := make([]catalog.Attribute, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, catalog.Attribute{
			ID:      a.ID,
			Name:    a.Name,
			Visible: a.Visible,
			Options: append([]string(nil), a.Options...),
		})
	}
	return out
}
