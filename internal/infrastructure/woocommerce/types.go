package woocommerce

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Catalog (wc/v3) wire types
// ---------------------------------------------------------------------------

// wcError is the JSON error body the REST API returns with non-2xx statuses
type wcError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Status int `json:"status"`
	} `json:"data"`
}

type wcImage struct {
	ID     int64  `json:"id"`
	Src    string `json:"src"`
	SrcSet string `json:"srcset,omitempty"`
	Name   string `json:"name"`
	Alt    string `json:"alt"`
}

type wcTerm struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type wcAttribute struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Visible bool     `json:"visible"`
	Options []string `json:"options"`
}

type wcProduct struct {
	ID               int64         `json:"id"`
	Name             string        `json:"name"`
	Slug             string        `json:"slug"`
	Permalink        string        `json:"permalink"`
	Type             string        `json:"type"`
	Status           string        `json:"status"`
	Featured         bool          `json:"featured"`
	Description      string        `json:"description"`
	ShortDescription string        `json:"short_description"`
	SKU              string        `json:"sku"`
	Price            string        `json:"price"`
	RegularPrice     string        `json:"regular_price"`
	SalePrice        string        `json:"sale_price"`
	OnSale           bool          `json:"on_sale"`
	Purchasable      bool          `json:"purchasable"`
	TotalSales       flexInt       `json:"total_sales"`
	StockQuantity    *int          `json:"stock_quantity"`
	StockStatus      string        `json:"stock_status"`
	AverageRating    string        `json:"average_rating"`
	RatingCount      int           `json:"rating_count"`
	Images           []wcImage     `json:"images"`
	Categories       []wcTerm      `json:"categories"`
	Tags             []wcTerm      `json:"tags"`
	Attributes       []wcAttribute `json:"attributes"`
	RelatedIDs       []int64       `json:"related_ids"`
	DateCreated      string        `json:"date_created"`
	DateModified     string        `json:"date_modified"`
}

type wcCategory struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Parent      int64    `json:"parent"`
	Description string   `json:"description"`
	Display     string   `json:"display"`
	Image       *wcImage `json:"image"`
	MenuOrder   int      `json:"menu_order"`
	Count       int      `json:"count"`
}

// ---------------------------------------------------------------------------
// Content (wp/v2) wire types
// ---------------------------------------------------------------------------

type wpMedia struct {
	SourceURL    string `json:"source_url"`
	AltText      string `json:"alt_text"`
	MediaDetails struct {
		Width  *int `json:"width"`
		Height *int `json:"height"`
	} `json:"media_details"`
}

type wpProductCategory struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Count       int    `json:"count"`
	Embedded    struct {
		FeaturedMedia []wpMedia `json:"wp:featuredmedia"`
	} `json:"_embedded"`
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// flexInt accepts both 12 and "12"; some catalog versions quote counters
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

var _ json.Unmarshaler = (*flexInt)(nil)

// ParseDecimal parses a catalog price string; empty or malformed is zero
func ParseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// catalogTimeLayout is the site-local timestamp format of date_* fields
const catalogTimeLayout = "2006-01-02T15:04:05"

func parseCatalogTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(catalogTimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
