package woocommerce

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/storefront/backend/internal/domain/catalog"
)

// CatalogAdapter implements catalog.Source on top of the REST client
type CatalogAdapter struct {
	client  *Client
	content *Client
}

var _ catalog.Source = (*CatalogAdapter)(nil)

// NewCatalogAdapter creates an adapter. Category media is read from the
// content namespace of the same store.
func NewCatalogAdapter(client *Client) *CatalogAdapter {
	return &CatalogAdapter{
		client:  client,
		content: client.WithAPIVersion(ContentAPIVersion),
	}
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

// ListProducts fetches one page of products
func (a *CatalogAdapter) ListProducts(ctx context.Context, q catalog.ProductQuery) ([]catalog.Product, error) {
	resp, err := a.client.Get(ctx, "products", productParams(q))
	if err != nil {
		return nil, err
	}

	var items []wcProduct
	if err := resp.Decode(&items); err != nil {
		return nil, err
	}

	products := make([]catalog.Product, 0, len(items))
	for i := range items {
		products = append(products, toProduct(&items[i]))
	}
	return products, nil
}

// GetProduct fetches one product by id
func (a *CatalogAdapter) GetProduct(ctx context.Context, id int64) (*catalog.Product, error) {
	resp, err := a.client.Get(ctx, "products/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: id %d", catalog.ErrProductNotFound, id)
		}
		return nil, err
	}

	var item wcProduct
	if err := resp.Decode(&item); err != nil {
		return nil, err
	}
	product := toProduct(&item)
	return &product, nil
}

func productParams(q catalog.ProductQuery) url.Values {
	params := url.Values{}
	setInt(params, "page", q.Page)
	setInt(params, "per_page", q.PerPage)
	setString(params, "status", q.Status)
	if q.Featured != nil {
		params.Set("featured", strconv.FormatBool(*q.Featured))
	}
	setString(params, "slug", q.Slug)
	setString(params, "category", q.Category)
	setString(params, "search", q.Search)
	setString(params, "orderby", q.OrderBy)
	setString(params, "order", q.Order)
	if len(q.Include) > 0 {
		ids := make([]string, 0, len(q.Include))
		for _, id := range q.Include {
			ids = append(ids, strconv.FormatInt(id, 10))
		}
		params.Set("include", strings.Join(ids, ","))
	}
	return params
}

// ---------------------------------------------------------------------------
// Categories
// ---------------------------------------------------------------------------

// ListCategories fetches one page of product categories
func (a *CatalogAdapter) ListCategories(ctx context.Context, q catalog.CategoryQuery) ([]catalog.Category, error) {
	params := url.Values{}
	setInt(params, "page", q.Page)
	setInt(params, "per_page", q.PerPage)
	if q.HideEmpty {
		params.Set("hide_empty", "true")
	}

	resp, err := a.client.Get(ctx, "products/categories", params)
	if err != nil {
		return nil, err
	}

	var items []wcCategory
	if err := resp.Decode(&items); err != nil {
		return nil, err
	}

	categories := make([]catalog.Category, 0, len(items))
	for i := range items {
		categories = append(categories, toCategory(&items[i]))
	}
	return categories, nil
}

// GetCategory fetches one product category by id
func (a *CatalogAdapter) GetCategory(ctx context.Context, id int64) (*catalog.Category, error) {
	resp, err := a.client.Get(ctx, "products/categories/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: id %d", catalog.ErrCategoryNotFound, id)
		}
		return nil, err
	}

	var item wcCategory
	if err := resp.Decode(&item); err != nil {
		return nil, err
	}
	category := toCategory(&item)
	return &category, nil
}

// GetCategoryImage reads the category term from the content namespace with
// embedded media and extracts its featured image.
func (a *CatalogAdapter) GetCategoryImage(ctx context.Context, id int64) (*catalog.CategoryImage, error) {
	params := url.Values{"_embed": {"1"}}
	resp, err := a.content.Get(ctx, "product_cat/"+strconv.FormatInt(id, 10), params)
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: id %d", catalog.ErrCategoryNotFound, id)
		}
		return nil, err
	}

	var term wpProductCategory
	if err := resp.Decode(&term); err != nil {
		return nil, err
	}

	img := &catalog.CategoryImage{
		ID:          term.ID,
		Name:        term.Name,
		Slug:        term.Slug,
		Description: term.Description,
		Count:       term.Count,
	}
	if media := term.Embedded.FeaturedMedia; len(media) > 0 && media[0].SourceURL != "" {
		alt := media[0].AltText
		if alt == "" {
			alt = term.Name
		}
		img.FeaturedImage = &catalog.FeaturedImage{
			URL:    media[0].SourceURL,
			Alt:    alt,
			Width:  media[0].MediaDetails.Width,
			Height: media[0].MediaDetails.Height,
		}
	}
	return img, nil
}

// ---------------------------------------------------------------------------
// Mapping
// ---------------------------------------------------------------------------

func toProduct(p *wcProduct) catalog.Product {
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
		Price:            ParseDecimal(p.Price),
		RegularPrice:     ParseDecimal(p.RegularPrice),
		SalePrice:        ParseDecimal(p.SalePrice),
		OnSale:           p.OnSale,
		Purchasable:      p.Purchasable,
		TotalSales:       int(p.TotalSales),
		StockQuantity:    p.StockQuantity,
		StockStatus:      catalog.StockStatus(p.StockStatus),
		AverageRating:    ParseDecimal(p.AverageRating),
		RatingCount:      p.RatingCount,
		Images:           toImages(p.Images),
		Categories:       toTerms(p.Categories),
		Tags:             toTerms(p.Tags),
		Attributes:       toAttributes(p.Attributes),
		RelatedIDs:       append([]int64{}, p.RelatedIDs...),
		DateCreated:      parseCatalogTime(p.DateCreated),
		DateModified:     parseCatalogTime(p.DateModified),
	}
}

func toCategory(c *wcCategory) catalog.Category {
	category := catalog.Category{
		ID:          c.ID,
		Slug:        c.Slug,
		Name:        c.Name,
		ParentID:    c.Parent,
		Description: c.Description,
		Display:     c.Display,
		MenuOrder:   c.MenuOrder,
		Count:       c.Count,
	}
	if c.Image != nil {
		img := toImage(*c.Image)
		category.Image = &img
	}
	return category
}

func toImage(img wcImage) catalog.Image {
	return catalog.Image{
		ID:     img.ID,
		Src:    img.Src,
		SrcSet: img.SrcSet,
		Name:   img.Name,
		Alt:    img.Alt,
	}
}

func toImages(in []wcImage) []catalog.Image {
	out := make([]catalog.Image, 0, len(in))
	for _, img := range in {
		out = append(out, toImage(img))
	}
	return out
}

func toTerms(in []wcTerm) []catalog.TermRef {
	out := make([]catalog.TermRef, 0, len(in))
	for _, t := range in {
		out = append(out, catalog.TermRef{ID: t.ID, Name: t.Name, Slug: t.Slug})
	}
	return out
}

func toAttributes(in []wcAttribute) []catalog.Attribute {
	out := make([]catalog.Attribute, 0, len(in))
	for _, a := range in {
		out = append(out, catalog.Attribute{
			ID:      a.ID,
			Name:    a.Name,
			Visible: a.Visible,
			Options: append([]string{}, a.Options...),
		})
	}
	return out
}

func setInt(params url.Values, key string, v int) {
	if v > 0 {
		params.Set(key, strconv.Itoa(v))
	}
}

func setString(params url.Values, key, v string) {
	if v != "" {
		params.Set(key, v)
	}
}
