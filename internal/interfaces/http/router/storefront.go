package router

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/storefront/backend/internal/interfaces/http/handler"
)

// Handlers are the endpoints the storefront gateway serves
type Handlers struct {
	Catalog    *handler.CatalogHandler
	ImageProxy *handler.ImageProxyHandler
	System     *handler.SystemHandler
	// ImagePath is the absolute path rewritten image references point at
	ImagePath string
	// ImageMiddleware runs before the image proxy only, e.g. a rate limiter
	ImageMiddleware []gin.HandlerFunc
}

// RegisterStorefront wires the catalog, image proxy and liveness routes and
// sets up the versioned API group
func RegisterStorefront(r *Router, h Handlers) {
	engine := r.Engine()
	engine.GET("/health", h.System.Health)

	system := NewDomainGroup("system", "")
	system.GET("/ping", h.System.Ping)

	products := NewDomainGroup("products", "/products")
	products.GET("", h.Catalog.ListProducts)
	products.GET("/categories", h.Catalog.ListCategories)
	products.GET("/categories/:id", h.Catalog.GetCategory)
	products.GET("/slug/:slug", h.Catalog.GetProductBySlug)
	products.GET("/:id", h.Catalog.GetProduct)

	categories := NewDomainGroup("categories", "")
	categories.GET("/categories/:id/image", h.Catalog.GetCategoryImage)
	categories.GET("/category-route/*path", h.Catalog.ResolveCategoryRoute)

	search := NewDomainGroup("search", "/search")
	search.GET("", h.Catalog.Search)

	r.Register(system).Register(products).Register(categories).Register(search)

	imagePath := h.ImagePath
	if imagePath == "" {
		imagePath = r.APIPrefix() + "/proxy/image"
	}
	if rel, ok := strings.CutPrefix(imagePath, r.APIPrefix()); ok && strings.HasPrefix(rel, "/") {
		images := NewDomainGroup("images", "").Use(h.ImageMiddleware...)
		images.GET(rel, h.ImageProxy.Serve)
		r.Register(images)
	} else {
		chain := make([]gin.HandlerFunc, 0, len(h.ImageMiddleware)+1)
		chain = append(chain, h.ImageMiddleware...)
		engine.GET(imagePath, append(chain, h.ImageProxy.Serve)...)
	}

	r.Setup()
}
