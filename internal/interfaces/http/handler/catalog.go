package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appcatalog "github.com/storefront/backend/internal/application/catalog"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// CatalogHandler serves the read-only catalog endpoints
type CatalogHandler struct {
	BaseHandler
	gateway   *appcatalog.Gateway
	presenter productPresenter
}

// NewCatalogHandler creates a new CatalogHandler. prices may be nil.
func NewCatalogHandler(gateway *appcatalog.Gateway, prices *catalog.PriceFormatter) *CatalogHandler {
	return &CatalogHandler{
		gateway:   gateway,
		presenter: productPresenter{prices: prices},
	}
}

// ListProducts returns one page of products as a bare array. An unreachable
// catalog answers an empty array with status 500.
// GET /products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var query ListProductsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}
	if !h.gateway.StatusAllowed(query.Status) {
		h.ValidationError(c, []dto.ValidationDetail{{
			Field:   "status",
			Message: "status is not available on the public catalog",
		}})
		return
	}

	list := h.gateway.ListProducts(c.Request.Context(), query.Filter())
	status := http.StatusOK
	if list.Degraded {
		status = http.StatusInternalServerError
	}
	h.JSON(c, status, h.presenter.products(list.Items))
}

// GetProduct returns a product by numeric id
// GET /products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		h.HandleError(c, catalog.ErrProductNotFound)
		return
	}

	product, err := h.gateway.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.JSON(c, http.StatusOK, h.presenter.product(*product))
}

// GetProductBySlug returns a published product by slug
// GET /products/slug/:slug
func (h *CatalogHandler) GetProductBySlug(c *gin.Context) {
	var param SlugParam
	if err := c.ShouldBindUri(&param); err != nil {
		h.BindError(c, err)
		return
	}

	product, err := h.gateway.GetProductBySlug(c.Request.Context(), param.Slug)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.JSON(c, http.StatusOK, h.presenter.product(*product))
}

// ListCategories returns the category tree as a flat array
// GET /products/categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	list := h.gateway.ListCategories(c.Request.Context())
	status := http.StatusOK
	if list.Degraded {
		status = http.StatusInternalServerError
	}
	h.JSON(c, status, toCategoryResponses(list.Items))
}

// GetCategory returns a category by id
// GET /products/categories/:id
func (h *CatalogHandler) GetCategory(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		h.HandleError(c, catalog.ErrCategoryNotFound)
		return
	}

	category, err := h.gateway.GetCategory(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.JSON(c, http.StatusOK, toCategoryResponse(*category))
}

// GetCategoryImage returns a category summary with its featured image
// GET /categories/:id/image
func (h *CatalogHandler) GetCategoryImage(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		h.HandleError(c, catalog.ErrCategoryNotFound)
		return
	}

	image, err := h.gateway.GetCategoryImage(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.JSON(c, http.StatusOK, toCategoryImageResponse(image))
}

// ResolveCategoryRoute resolves a category page path such as outdoor/chairs
// GET /category-route/*path
func (h *CatalogHandler) ResolveCategoryRoute(c *gin.Context) {
	segments := catalog.SplitRoute(c.Param("path"))

	route, err := h.gateway.ResolveCategoryRoute(c.Request.Context(), segments)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.JSON(c, http.StatusOK, toCategoryRouteResponse(route))
}

// Search runs a product search
// GET /search
func (h *CatalogHandler) Search(c *gin.Context) {
	var query SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.gateway.Search(c.Request.Context(), query.Q, query.Page, query.PerPage)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	status := http.StatusOK
	if result.Degraded {
		status = http.StatusInternalServerError
	}
	h.JSON(c, status, h.presenter.search(result))
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
