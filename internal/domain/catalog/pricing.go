package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var hundred = decimal.NewFromInt(100)

// IsOnSale reports whether the product carries a real sale price.
// The catalog can flag on_sale while leaving sale_price empty.
func (p Product) IsOnSale() bool {
	return p.OnSale && p.SalePrice.IsPositive()
}

// DiscountPercentage returns the whole-number discount of the sale price
// against the regular price, or 0 when the product is not on sale.
func (p Product) DiscountPercentage() int {
	if !p.IsOnSale() || !p.RegularPrice.IsPositive() {
		return 0
	}
	if p.SalePrice.GreaterThanOrEqual(p.RegularPrice) {
		return 0
	}
	pct := p.RegularPrice.Sub(p.SalePrice).Div(p.RegularPrice).Mul(hundred).Round(0)
	return int(pct.IntPart())
}

// MainImage returns the first product image
func (p Product) MainImage() (Image, bool) {
	if len(p.Images) == 0 {
		return Image{}, false
	}
	return p.Images[0], true
}

// PriceFormatter renders amounts in a fixed display currency and locale
type PriceFormatter struct {
	unit    currency.Unit
	printer *message.Printer
}

// NewPriceFormatter builds a formatter for an ISO 4217 code such as MYR and a
// BCP 47 locale such as en-MY.
func NewPriceFormatter(code, locale string) (*PriceFormatter, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("invalid currency %q: %w", code, err)
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	return &PriceFormatter{
		unit:    unit,
		printer: message.NewPrinter(tag),
	}, nil
}

// Format returns the amount with the currency symbol, e.g. "RM 12.50"
func (f *PriceFormatter) Format(amount decimal.Decimal) string {
	return f.printer.Sprint(currency.Symbol(f.unit.Amount(amount.InexactFloat64())))
}

// Currency returns the ISO code the formatter renders
func (f *PriceFormatter) Currency() string {
	return f.unit.String()
}
