package product

import (
	"github.com/shopspring/decimal"
)

// Product represents a catalog item available for purchase. Fields mirror the
// columns of the backing sheet; numeric fields are already parsed.
type Product struct {
	ID          string
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal

	// DiscountedPrice is nil when the product has no discount. A discount is
	// only present when its parsed value is positive and strictly below Price.
	DiscountedPrice *decimal.Decimal

	Stock        decimal.Decimal
	ImageURL     string
	IsActive     bool
	IsBestSeller bool
}

// EffectivePrice returns the discounted price when one is present, otherwise
// the regular price. This is the unit price captured by cart snapshots.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.DiscountedPrice != nil {
		return *p.DiscountedPrice
	}
	return p.Price
}

// Visible reports whether the product may be exposed to readers: it must be
// active and carry a non-empty identifier.
func (p Product) Visible() bool {
	return p.IsActive && p.ID != ""
}
