package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockStatus is the availability reported by the catalog
type StockStatus string

const (
	StockStatusInStock     StockStatus = "instock"
	StockStatusOutOfStock  StockStatus = "outofstock"
	StockStatusOnBackorder StockStatus = "onbackorder"
)

// Product statuses the catalog accepts as a filter
const (
	ProductStatusPublish = "publish"
	ProductStatusDraft   = "draft"
	ProductStatusPending = "pending"
	ProductStatusPrivate = "private"
	ProductStatusAny     = "any"
)

// Image is a product or category image. Src and SrcSet are rewritten into
// proxy references before they leave the gateway.
type Image struct {
	ID     int64
	Src    string
	SrcSet string
	Name   string
	Alt    string
}

// TermRef is a lightweight reference to a category or tag attached to a product
type TermRef struct {
	ID   int64
	Name string
	Slug string
}

// Attribute is a named product attribute with its options (e.g. Colour: Red, Blue)
type Attribute struct {
	ID      int64
	Name    string
	Visible bool
	Options []string
}

// Product is a catalog item as reshaped by the gateway
type Product struct {
	ID               int64
	Name             string
	Slug             string
	Permalink        string
	Type             string
	Status           string
	Featured         bool
	Description      string
	ShortDescription string
	SKU              string
	Price            decimal.Decimal
	RegularPrice     decimal.Decimal
	SalePrice        decimal.Decimal
	OnSale           bool
	Purchasable      bool
	TotalSales       int
	StockQuantity    *int
	StockStatus      StockStatus
	AverageRating    decimal.Decimal
	RatingCount      int
	Images           []Image
	Categories       []TermRef
	Tags             []TermRef
	Attributes       []Attribute
	RelatedIDs       []int64
	DateCreated      time.Time
	DateModified     time.Time
}

// InStock reports whether the product can currently be ordered
func (p Product) InStock() bool {
	return p.StockStatus != StockStatusOutOfStock
}

// InCategory reports whether the product is attached to the category id
func (p Product) InCategory(id int64) bool {
	for _, c := range p.Categories {
		if c.ID == id {
			return true
		}
	}
	return false
}
