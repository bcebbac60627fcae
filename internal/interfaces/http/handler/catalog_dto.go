package handler

import (
	"time"

	"github.com/shopspring/decimal"

	appcatalog "github.com/storefront/backend/internal/application/catalog"
	"github.com/storefront/backend/internal/domain/catalog"
)

// ListProductsQuery is the query string of GET /products
type ListProductsQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PerPage  int    `form:"per_page" binding:"omitempty,min=1,max=100"`
	Status   string `form:"status" binding:"omitempty,oneof=publish draft pending private any"`
	Featured *bool  `form:"featured"`
	Slug     string `form:"slug" binding:"omitempty,slug"`
	Category string  `form:"category" binding:"omitempty,max=200"`
	Search   string  `form:"search" binding:"omitempty,max=200"`
	OrderBy  string  `form:"orderby" binding:"omitempty,oneof=date id include title slug price popularity rating"`
	Order    string  `form:"order" binding:"omitempty,oneof=asc desc"`
	Include  []int64 `form:"include" binding:"omitempty,max=100,dive,min=1"`
}

// Filter converts the query into a gateway filter
func (q ListProductsQuery) Filter() appcatalog.ProductFilter {
	return appcatalog.ProductFilter{
		Page:     q.Page,
		PerPage:  q.PerPage,
		Status:   q.Status,
		Featured: q.Featured,
		Slug:     q.Slug,
		Category: q.Category,
		Search:   q.Search,
		OrderBy:  q.OrderBy,
		Order:    q.Order,
		Include:  q.Include,
	}
}

// SearchQuery is the query string of GET /search. The minimum length of q is
// enforced by the gateway after trimming.
type SearchQuery struct {
	Q       string `form:"q" binding:"max=200"`
	Page    int    `form:"page" binding:"omitempty,min=1"`
	PerPage int    `form:"per_page" binding:"omitempty,min=1,max=100"`
}

// SlugParam is the path of GET /products/slug/:slug
type SlugParam struct {
	Slug string `uri:"slug" binding:"required,slug"`
}

// ImageResponse is a product image
type ImageResponse struct {
	ID     int64  `json:"id"`
	Src    string `json:"src"`
	SrcSet string `json:"srcset,omitempty"`
	Name   string `json:"name"`
	Alt    string `json:"alt"`
}

// TermResponse is a category or tag reference on a product
type TermResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// AttributeResponse is a product attribute
type AttributeResponse struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Visible bool     `json:"visible"`
	Options []string `json:"options"`
}

// ProductResponse is a product as served to the storefront
type ProductResponse struct {
	ID                 int64               `json:"id"`
	Name               string              `json:"name"`
	Slug               string              `json:"slug"`
	Permalink          string              `json:"permalink"`
	Type               string              `json:"type"`
	Status             string              `json:"status"`
	Featured           bool                `json:"featured"`
	Description        string              `json:"description"`
	ShortDescription   string              `json:"short_description"`
	Excerpt            string              `json:"excerpt"`
	SKU                string              `json:"sku"`
	Price              decimal.Decimal     `json:"price"`
	RegularPrice       decimal.Decimal     `json:"regular_price"`
	SalePrice          decimal.Decimal     `json:"sale_price"`
	PriceFormatted     string              `json:"price_formatted"`
	Currency           string              `json:"currency"`
	OnSale             bool                `json:"on_sale"`
	DiscountPercentage int                 `json:"discount_percentage"`
	Purchasable        bool                `json:"purchasable"`
	TotalSales         int                 `json:"total_sales"`
	StockQuantity      *int                `json:"stock_quantity"`
	StockStatus        string              `json:"stock_status"`
	AverageRating      decimal.Decimal     `json:"average_rating"`
	RatingCount        int                 `json:"rating_count"`
	Images             []ImageResponse     `json:"images"`
	Categories         []TermResponse      `json:"categories"`
	Tags               []TermResponse      `json:"tags"`
	Attributes         []AttributeResponse `json:"attributes"`
	RelatedIDs         []int64             `json:"related_ids"`
	DateCreated        *time.Time          `json:"date_created,omitempty"`
	DateModified       *time.Time          `json:"date_modified,omitempty"`
}

// CategoryResponse is a product category
type CategoryResponse struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Slug        string         `json:"slug"`
	Parent      int64          `json:"parent"`
	Description string         `json:"description"`
	Display     string         `json:"display"`
	MenuOrder   int            `json:"menu_order"`
	Count       int            `json:"count"`
	Image       *ImageResponse `json:"image"`
}

// FeaturedImageResponse is the featured media of a category
type FeaturedImageResponse struct {
	URL    string `json:"url"`
	Alt    string `json:"alt"`
	Width  *int   `json:"width,omitempty"`
	Height *int   `json:"height,omitempty"`
}

// CategoryImageResponse is the body of GET /categories/:id/image
type CategoryImageResponse struct {
	ID            int64                  `json:"id"`
	Name          string                 `json:"name"`
	Slug          string                 `json:"slug"`
	Description   string                 `json:"description"`
	Count         int                    `json:"count"`
	FeaturedImage *FeaturedImageResponse `json:"featured_image"`
}

// CategoryRouteResponse is a resolved category page
type CategoryRouteResponse struct {
	Category      CategoryResponse   `json:"category"`
	Parent        *CategoryResponse  `json:"parent"`
	Subcategories []CategoryResponse `json:"subcategories"`
	Siblings      []CategoryResponse `json:"siblings"`
}

// SearchResponse is the body of GET /search
type SearchResponse struct {
	Products     []ProductResponse `json:"products"`
	Query        string            `json:"query"`
	Page         int               `json:"page"`
	PerPage      int               `json:"per_page"`
	TotalResults int               `json:"total_results"`
	HasMore      bool              `json:"has_more"`
}

// productPresenter builds response bodies. A nil formatter leaves
// price_formatted empty.
type productPresenter struct {
	prices *catalog.PriceFormatter
}

func (p productPresenter) product(in catalog.Product) ProductResponse {
	out := ProductResponse{
		ID:                 in.ID,
		Name:               in.Name,
		Slug:               in.Slug,
		Permalink:          in.Permalink,
		Type:               in.Type,
		Status:             in.Status,
		Featured:           in.Featured,
		Description:        in.Description,
		ShortDescription:   in.ShortDescription,
		Excerpt:            in.Excerpt(catalog.DefaultExcerptLength),
		SKU:                in.SKU,
		Price:              in.Price,
		RegularPrice:       in.RegularPrice,
		SalePrice:          in.SalePrice,
		OnSale:             in.IsOnSale(),
		DiscountPercentage: in.DiscountPercentage(),
		Purchasable:        in.Purchasable,
		TotalSales:         in.TotalSales,
		StockQuantity:      in.StockQuantity,
		StockStatus:        string(in.StockStatus),
		AverageRating:      in.AverageRating,
		RatingCount:        in.RatingCount,
		Images:             make([]ImageResponse, 0, len(in.Images)),
		Categories:         toTermResponses(in.Categories),
		Tags:               toTermResponses(in.Tags),
		Attributes:         make([]AttributeResponse, 0, len(in.Attributes)),
		RelatedIDs:         in.RelatedIDs,
		DateCreated:        timePtr(in.DateCreated),
		DateModified:       timePtr(in.DateModified),
	}
	if out.RelatedIDs == nil {
		out.RelatedIDs = []int64{}
	}
	if p.prices != nil {
		out.PriceFormatted = p.prices.Format(in.Price)
		out.Currency = p.prices.Currency()
	}
	for _, img := range in.Images {
		out.Images = append(out.Images, toImageResponse(img))
	}
	for _, a := range in.Attributes {
		options := a.Options
		if options == nil {
			options = []string{}
		}
		out.Attributes = append(out.Attributes, AttributeResponse{
			ID:      a.ID,
			Name:    a.Name,
			Visible: a.Visible,
			Options: options,
		})
	}
	return out
}

func (p productPresenter) products(in []catalog.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(in))
	for _, prod := range in {
		out = append(out, p.product(prod))
	}
	return out
}

func (p productPresenter) search(in *appcatalog.SearchResult) SearchResponse {
	return SearchResponse{
		Products:     p.products(in.Products),
		Query:        in.Query,
		Page:         in.Page,
		PerPage:      in.PerPage,
		TotalResults: in.TotalResults,
		HasMore:      in.HasMore,
	}
}

func toImageResponse(img catalog.Image) ImageResponse {
	return ImageResponse{
		ID:     img.ID,
		Src:    img.Src,
		SrcSet: img.SrcSet,
		Name:   img.Name,
		Alt:    img.Alt,
	}
}

func toTermResponses(in []catalog.TermRef) []TermResponse {
	out := make([]TermResponse, 0, len(in))
	for _, t := range in {
		out = append(out, TermResponse{ID: t.ID, Name: t.Name, Slug: t.Slug})
	}
	return out
}

func toCategoryResponse(in catalog.Category) CategoryResponse {
	out := CategoryResponse{
		ID:          in.ID,
		Name:        in.Name,
		Slug:        in.Slug,
		Parent:      in.ParentID,
		Description: in.Description,
		Display:     in.Display,
		MenuOrder:   in.MenuOrder,
		Count:       in.Count,
	}
	if in.Image != nil {
		img := toImageResponse(*in.Image)
		out.Image = &img
	}
	return out
}

func toCategoryResponses(in []catalog.Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(in))
	for _, c := range in {
		out = append(out, toCategoryResponse(c))
	}
	return out
}

func toCategoryImageResponse(in *catalog.CategoryImage) CategoryImageResponse {
	out := CategoryImageResponse{
		ID:          in.ID,
		Name:        in.Name,
		Slug:        in.Slug,
		Description: in.Description,
		Count:       in.Count,
	}
	if in.FeaturedImage != nil {
		out.FeaturedImage = &FeaturedImageResponse{
			URL:    in.FeaturedImage.URL,
			Alt:    in.FeaturedImage.Alt,
			Width:  in.FeaturedImage.Width,
			Height: in.FeaturedImage.Height,
		}
	}
	return out
}

func toCategoryRouteResponse(in *catalog.Route) CategoryRouteResponse {
	out := CategoryRouteResponse{
		Category:      toCategoryResponse(in.Category),
		Subcategories: toCategoryResponses(in.Subcategories),
		Siblings:      toCategoryResponses(in.Siblings),
	}
	if in.Parent != nil {
		parent := toCategoryResponse(*in.Parent)
		out.Parent = &parent
	}
	return out
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
