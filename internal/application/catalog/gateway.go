package catalog

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/logger"
)

// MinSearchQueryLength is the shortest accepted search term, in characters
const MinSearchQueryLength = 2

// ImageRewriter turns catalog image addresses into same-origin references
type ImageRewriter interface {
	Rewrite(raw string) string
	RewriteSrcSet(srcset string) string
}

// GatewayConfig holds listing defaults
type GatewayConfig struct {
	// DefaultPageSize is per_page for product listings that do not set one
	DefaultPageSize int
	// CategoryPageSize is per_page for the category tree listing
	CategoryPageSize int
	// SearchPageSize is per_page for searches that do not set one
	SearchPageSize int
	// PublicStatuses are the product statuses anonymous callers may list.
	// The listing runs with the server credential, so anything beyond
	// publish exposes unpublished products.
	PublicStatuses []string
	// HideEmptyCategories drops categories without products from the tree
	HideEmptyCategories bool
}

// DefaultGatewayConfig returns the default configuration
func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		DefaultPageSize:  10,
		CategoryPageSize: 100,
		SearchPageSize:   20,
		PublicStatuses:   []string{catalog.ProductStatusPublish},
	}
}

// Gateway is the storefront's read-only view of the remote catalog. It applies
// query defaults, decides how upstream failures surface, and reshapes every
// record so image addresses point at the image proxy.
type Gateway struct {
	source catalog.Source
	images ImageRewriter
	config GatewayConfig
	logger *zap.Logger
}

// NewGateway creates a new Gateway
func NewGateway(source catalog.Source, images ImageRewriter, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{
		source: source,
		images: images,
		config: DefaultGatewayConfig(),
		logger: log,
	}
}

// SetConfig sets the gateway configuration
func (g *Gateway) SetConfig(cfg GatewayConfig) {
	if cfg.DefaultPageSize > 0 {
		g.config.DefaultPageSize = cfg.DefaultPageSize
	}
	if cfg.CategoryPageSize > 0 {
		g.config.CategoryPageSize = cfg.CategoryPageSize
	}
	if cfg.SearchPageSize > 0 {
		g.config.SearchPageSize = cfg.SearchPageSize
	}
	if len(cfg.PublicStatuses) > 0 {
		g.config.PublicStatuses = append([]string(nil), cfg.PublicStatuses...)
	}
	g.config.HideEmptyCategories = cfg.HideEmptyCategories
}

// StatusAllowed reports whether status may be requested by an anonymous
// caller. The empty status means the default and is always allowed.
func (g *Gateway) StatusAllowed(status string) bool {
	return status == "" || slices.Contains(g.config.PublicStatuses, status)
}

// Config returns the active configuration
func (g *Gateway) Config() GatewayConfig {
	return g.config
}

// ListProducts returns one page of products. An upstream failure is logged and
// yields an empty, degraded list rather than an error.
func (g *Gateway) ListProducts(ctx context.Context, filter ProductFilter) ProductList {
	q := catalog.ProductQuery{
		Page:     filter.Page,
		PerPage:  filter.PerPage,
		Status:   filter.Status,
		Featured: filter.Featured,
		Slug:     filter.Slug,
		Category: filter.Category,
		Search:   filter.Search,
		OrderBy:  filter.OrderBy,
		Order:    filter.Order,
		Include:  filter.Include,
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = g.config.DefaultPageSize
	}
	if !g.StatusAllowed(q.Status) {
		logger.For(ctx, g.logger).Warn("non-public product status requested, listing published products",
			zap.String("status", q.Status),
		)
		q.Status = ""
	}
	if q.Status == "" {
		q.Status = catalog.ProductStatusPublish
	}

	products, err := g.source.ListProducts(ctx, q)
	if err != nil {
		logger.For(ctx, g.logger).Error("failed to list products",
			zap.Int("page", q.Page),
			zap.Int("per_page", q.PerPage),
			zap.String("category", q.Category),
			zap.Error(err),
		)
		return ProductList{Items: []catalog.Product{}, Page: q.Page, PerPage: q.PerPage, Degraded: true}
	}

	return ProductList{Items: g.reshapeProducts(products), Page: q.Page, PerPage: q.PerPage}
}

// GetProduct returns a single product. Any failure is reported as
// ErrProductNotFound; the cause is logged.
func (g *Gateway) GetProduct(ctx context.Context, id int64) (*catalog.Product, error) {
	if id <= 0 {
		return nil, catalog.ErrProductNotFound
	}
	p, err := g.source.GetProduct(ctx, id)
	if err != nil {
		g.logLookupFailure(ctx, "product", strconv.FormatInt(id, 10), err)
		return nil, catalog.ErrProductNotFound
	}
	reshaped := g.reshapeProduct(*p)
	return &reshaped, nil
}

// GetProductBySlug returns the published product with slug
func (g *Gateway) GetProductBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, catalog.ErrProductNotFound
	}
	products, err := g.source.ListProducts(ctx, catalog.ProductQuery{
		Page:    1,
		PerPage: 1,
		Status:  catalog.ProductStatusPublish,
		Slug:    slug,
	})
	if err != nil {
		g.logLookupFailure(ctx, "product", slug, err)
		return nil, catalog.ErrProductNotFound
	}
	if len(products) == 0 {
		return nil, catalog.ErrProductNotFound
	}
	reshaped := g.reshapeProduct(products[0])
	return &reshaped, nil
}

// ListCategories returns the category tree as a flat list. An upstream failure
// yields an empty, degraded list.
func (g *Gateway) ListCategories(ctx context.Context) CategoryList {
	categories, err := g.source.ListCategories(ctx, catalog.CategoryQuery{
		Page:      1,
		PerPage:   g.config.CategoryPageSize,
		HideEmpty: g.config.HideEmptyCategories,
	})
	if err != nil {
		logger.For(ctx, g.logger).Error("failed to list categories", zap.Error(err))
		return CategoryList{Items: []catalog.Category{}, Degraded: true}
	}
	return CategoryList{Items: g.reshapeCategories(categories)}
}

// GetCategory returns a single category or ErrCategoryNotFound
func (g *Gateway) GetCategory(ctx context.Context, id int64) (*catalog.Category, error) {
	if id <= 0 {
		return nil, catalog.ErrCategoryNotFound
	}
	c, err := g.source.GetCategory(ctx, id)
	if err != nil {
		g.logLookupFailure(ctx, "category", strconv.FormatInt(id, 10), err)
		return nil, catalog.ErrCategoryNotFound
	}
	reshaped := g.reshapeCategory(*c)
	return &reshaped, nil
}

// GetCategoryImage returns the category with its featured image. A category
// without featured media has a nil FeaturedImage.
func (g *Gateway) GetCategoryImage(ctx context.Context, id int64) (*catalog.CategoryImage, error) {
	if id <= 0 {
		return nil, catalog.ErrCategoryNotFound
	}
	ci, err := g.source.GetCategoryImage(ctx, id)
	if err != nil {
		g.logLookupFailure(ctx, "category image", strconv.FormatInt(id, 10), err)
		return nil, catalog.ErrCategoryNotFound
	}
	reshaped := g.reshapeCategoryImage(*ci)
	return &reshaped, nil
}

// Search runs a free-text product search. The query is trimmed and must be at
// least MinSearchQueryLength characters.
func (g *Gateway) Search(ctx context.Context, query string, page, perPage int) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinSearchQueryLength {
		return nil, catalog.ErrSearchQueryTooShort
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = g.config.SearchPageSize
	}

	list := g.ListProducts(ctx, ProductFilter{
		Page:    page,
		PerPage: perPage,
		Search:  query,
	})

	return &SearchResult{
		Products:     list.Items,
		Query:        query,
		Page:         page,
		PerPage:      perPage,
		TotalResults: len(list.Items),
		HasMore:      len(list.Items) == perPage,
		Degraded:     list.Degraded,
	}, nil
}

// ResolveCategoryRoute resolves a one or two level slug path such as
// "outdoor/chairs" against the category tree.
func (g *Gateway) ResolveCategoryRoute(ctx context.Context, segments []string) (*catalog.Route, error) {
	list := g.ListCategories(ctx)
	route, err := catalog.ResolveRoute(list.Items, segments)
	if err != nil {
		log := logger.For(ctx, g.logger)
		if list.Degraded || errors.Is(err, catalog.ErrCategoryNotFound) {
			log.Warn("category route not resolved",
				zap.Strings("segments", segments),
				zap.Bool("degraded", list.Degraded),
				zap.Error(err),
			)
		}
		return nil, err
	}
	return route, nil
}

func (g *Gateway) logLookupFailure(ctx context.Context, kind, key string, err error) {
	log := logger.For(ctx, g.logger).With(
		zap.String("kind", kind),
		zap.String("key", key),
		zap.Error(err),
	)
	if shared.IsNotFound(err) {
		log.Debug("catalog lookup missed")
		return
	}
	// Upstream failures surface as not found; keep the cause visible.
	log.Warn("catalog lookup failed, reporting not found")
}
