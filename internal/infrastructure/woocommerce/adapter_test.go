package woocommerce

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/catalog"
)

const productJSON = `{
	"id": 42,
	"name": "Teak Chair",
	"slug": "teak-chair",
	"permalink": "https://shop.example.com/product/teak-chair/",
	"type": "simple",
	"status": "publish",
	"featured": true,
	"description": "<p>Solid teak.</p>",
	"short_description": "<p>Outdoor chair</p>",
	"sku": "TC-01",
	"price": "199.00",
	"regular_price": "249.00",
	"sale_price": "199.00",
	"on_sale": true,
	"purchasable": true,
	"total_sales": "17",
	"stock_quantity": 3,
	"stock_status": "instock",
	"average_rating": "4.50",
	"rating_count": 8,
	"images": [{"id": 7, "src": "https://shop.example.com/wp-content/uploads/chair.jpg", "name": "chair", "alt": "Teak chair"}],
	"categories": [{"id": 2, "name": "Chairs", "slug": "chairs"}],
	"tags": [],
	"attributes": [{"id": 1, "name": "Finish", "visible": true, "options": ["Natural", "Oiled"]}],
	"related_ids": [43, 44],
	"date_created": "2024-03-01T10:20:30",
	"date_modified": ""
}`

// createMockCatalogServer routes the endpoints the adapter uses
func createMockCatalogServer(t *testing.T, seen *url.Values) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/wp-json/wc/v3/products", func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = r.URL.Query()
		}
		_, _ = w.Write([]byte("[" + productJSON + "]"))
	})
	mux.HandleFunc("/wp-json/wc/v3/products/42", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(productJSON))
	})
	mux.HandleFunc("/wp-json/wc/v3/products/categories", func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = r.URL.Query()
		}
		_, _ = w.Write([]byte(`[
			{"id": 1, "name": "Outdoor", "slug": "outdoor", "parent": 0, "display": "default", "menu_order": 1, "count": 12,
			 "image": {"id": 9, "src": "https://shop.example.com/outdoor.jpg", "srcset": "https://shop.example.com/outdoor-300.jpg 300w", "name": "outdoor", "alt": ""}},
			{"id": 2, "name": "Chairs", "slug": "chairs", "parent": 1, "display": "products", "menu_order": 0, "count": 5, "image": null}
		]`))
	})
	mux.HandleFunc("/wp-json/wc/v3/products/categories/2", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 2, "name": "Chairs", "slug": "chairs", "parent": 1, "count": 5, "image": null}`))
	})
	mux.HandleFunc("/wp-json/wp/v2/product_cat/2", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("_embed"))
		_, _ = w.Write([]byte(`{
			"id": 2, "name": "Chairs", "slug": "chairs", "description": "All chairs", "count": 5,
			"_embedded": {"wp:featuredmedia": [{"source_url": "https://shop.example.com/chairs.jpg", "alt_text": "", "media_details": {"width": 800, "height": 600}}]}
		}`))
	})
	mux.HandleFunc("/wp-json/wp/v2/product_cat/3", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 3, "name": "Tables", "slug": "tables", "description": "", "count": 0}`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"rest_no_route","message":"No route was found","data":{"status":404}}`))
	})

	return httptest.NewServer(mux)
}

func newTestAdapter(t *testing.T, srv *httptest.Server) *CatalogAdapter {
	t.Helper()
	client, _ := newTestClient(t, srv)
	return NewCatalogAdapter(client)
}

func TestCatalogAdapter_ListProducts(t *testing.T) {
	var seen url.Values
	srv := createMockCatalogServer(t, &seen)
	defer srv.Close()

	featured := true
	products, err := newTestAdapter(t, srv).ListProducts(context.Background(), catalog.ProductQuery{
		Page:     2,
		PerPage:  20,
		Status:   catalog.ProductStatusPublish,
		Featured: &featured,
		Category: "2",
		Search:   "teak",
		OrderBy:  "price",
		Order:    "asc",
		Include:  []int64{42, 43},
	})
	require.NoError(t, err)
	require.Len(t, products, 1)

	assert.Equal(t, "2", seen.Get("page"))
	assert.Equal(t, "20", seen.Get("per_page"))
	assert.Equal(t, "publish", seen.Get("status"))
	assert.Equal(t, "true", seen.Get("featured"))
	assert.Equal(t, "2", seen.Get("category"))
	assert.Equal(t, "teak", seen.Get("search"))
	assert.Equal(t, "42,43", seen.Get("include"))
	assert.Equal(t, "price", seen.Get("orderby"))
	assert.Equal(t, "asc", seen.Get("order"))
	assert.Empty(t, seen.Get("slug"), "unset filters are not sent")

	p := products[0]
	assert.Equal(t, int64(42), p.ID)
	assert.Equal(t, "teak-chair", p.Slug)
	assert.True(t, p.Featured)
	assert.True(t, decimal.RequireFromString("199").Equal(p.Price))
	assert.True(t, decimal.RequireFromString("249").Equal(p.RegularPrice))
	assert.True(t, decimal.RequireFromString("4.5").Equal(p.AverageRating))
	assert.Equal(t, 17, p.TotalSales)
	require.NotNil(t, p.StockQuantity)
	assert.Equal(t, 3, *p.StockQuantity)
	assert.Equal(t, catalog.StockStatusInStock, p.StockStatus)
	require.Len(t, p.Images, 1)
	assert.Equal(t, "https://shop.example.com/wp-content/uploads/chair.jpg", p.Images[0].Src)
	assert.Equal(t, []catalog.TermRef{{ID: 2, Name: "Chairs", Slug: "chairs"}}, p.Categories)
	assert.Equal(t, []string{"Natural", "Oiled"}, p.Attributes[0].Options)
	assert.Equal(t, []int64{43, 44}, p.RelatedIDs)
	assert.Equal(t, 2024, p.DateCreated.Year())
	assert.True(t, p.DateModified.IsZero())
	assert.Equal(t, 20, p.DiscountPercentage())
}

func TestCatalogAdapter_GetProduct(t *testing.T) {
	srv := createMockCatalogServer(t, nil)
	defer srv.Close()
	adapter := newTestAdapter(t, srv)

	t.Run("found", func(t *testing.T) {
		p, err := adapter.GetProduct(context.Background(), 42)
		require.NoError(t, err)
		assert.Equal(t, "Teak Chair", p.Name)
	})

	t.Run("404 maps to not found", func(t *testing.T) {
		_, err := adapter.GetProduct(context.Background(), 999)
		assert.ErrorIs(t, err, catalog.ErrProductNotFound)
	})
}

func TestCatalogAdapter_ListCategories(t *testing.T) {
	var seen url.Values
	srv := createMockCatalogServer(t, &seen)
	defer srv.Close()

	categories, err := newTestAdapter(t, srv).ListCategories(context.Background(), catalog.CategoryQuery{
		PerPage:   100,
		HideEmpty: true,
	})
	require.NoError(t, err)
	require.Len(t, categories, 2)

	assert.Equal(t, "100", seen.Get("per_page"))
	assert.Equal(t, "true", seen.Get("hide_empty"))

	outdoor := categories[0]
	assert.True(t, outdoor.IsRoot())
	assert.Equal(t, 12, outdoor.Count)
	require.NotNil(t, outdoor.Image)
	assert.Equal(t, "https://shop.example.com/outdoor-300.jpg 300w", outdoor.Image.SrcSet)

	chairs := categories[1]
	assert.Equal(t, int64(1), chairs.ParentID)
	assert.Nil(t, chairs.Image)
}

func TestCatalogAdapter_GetCategory(t *testing.T) {
	srv := createMockCatalogServer(t, nil)
	defer srv.Close()
	adapter := newTestAdapter(t, srv)

	c, err := adapter.GetCategory(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "chairs", c.Slug)

	_, err = adapter.GetCategory(context.Background(), 77)
	assert.ErrorIs(t, err, catalog.ErrCategoryNotFound)
}

func TestCatalogAdapter_GetCategoryImage(t *testing.T) {
	srv := createMockCatalogServer(t, nil)
	defer srv.Close()
	adapter := newTestAdapter(t, srv)

	t.Run("with featured media", func(t *testing.T) {
		img, err := adapter.GetCategoryImage(context.Background(), 2)
		require.NoError(t, err)

		assert.Equal(t, "Chairs", img.Name)
		assert.Equal(t, "All chairs", img.Description)
		require.NotNil(t, img.FeaturedImage)
		assert.Equal(t, "https://shop.example.com/chairs.jpg", img.FeaturedImage.URL)
		assert.Equal(t, "Chairs", img.FeaturedImage.Alt, "alt falls back to the category name")
		require.NotNil(t, img.FeaturedImage.Width)
		assert.Equal(t, 800, *img.FeaturedImage.Width)
	})

	t.Run("without featured media", func(t *testing.T) {
		img, err := adapter.GetCategoryImage(context.Background(), 3)
		require.NoError(t, err)
		assert.Nil(t, img.FeaturedImage)
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := adapter.GetCategoryImage(context.Background(), 404)
		assert.ErrorIs(t, err, catalog.ErrCategoryNotFound)
	})
}

func TestParseDecimal(t *testing.T) {
	assert.True(t, decimal.Zero.Equal(ParseDecimal("")))
	assert.True(t, decimal.Zero.Equal(ParseDecimal("n/a")))
	assert.True(t, decimal.RequireFromString("12.5").Equal(ParseDecimal("12.50")))
}

func TestFlexInt(t *testing.T) {
	var v struct {
		N flexInt `json:"n"`
	}
	for in, want := range map[string]int{`{"n":5}`: 5, `{"n":"7"}`: 7, `{"n":null}`: 0, `{"n":""}`: 0} {
		require.NoError(t, jsonUnmarshal(in, &v), in)
		assert.Equal(t, want, int(v.N), in)
	}
}

func jsonUnmarshal(s string, v any) error {
	return (&Response{Body: []byte(s)}).Decode(v)
}
